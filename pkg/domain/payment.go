package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	amountPattern      = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)
	destinationPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{2,256}@[A-Za-z][A-Za-z0-9]{1,63}$`)
)

// PaymentRequest describes the transfer being automated.
// It is passed by value; the session keeps its own copy.
type PaymentRequest struct {
	Amount        string `json:"amount" yaml:"amount"`
	DestinationID string `json:"destination_id" yaml:"destination_id"`
	DisplayName   string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// NewPaymentRequest trims and validates the given values.
func NewPaymentRequest(amount, destination, name string) (PaymentRequest, error) {
	req := PaymentRequest{
		Amount:        strings.TrimSpace(amount),
		DestinationID: strings.TrimSpace(destination),
		DisplayName:   strings.TrimSpace(name),
	}
	if err := req.Validate(); err != nil {
		return PaymentRequest{}, err
	}
	return req, nil
}

// Validate checks the amount and destination formats.
func (p PaymentRequest) Validate() error {
	if !amountPattern.MatchString(p.Amount) || strings.Trim(p.Amount, "0.") == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, p.Amount)
	}
	if !destinationPattern.MatchString(p.DestinationID) {
		return fmt.Errorf("%w: %q", ErrInvalidDestination, p.DestinationID)
	}
	return nil
}

// Payee returns the display name, falling back to the destination.
func (p PaymentRequest) Payee() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.DestinationID
}

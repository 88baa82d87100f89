package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// An empty style detects light or dark backgrounds automatically.
func NewRenderer(style string) (func(string) (string, error), error) {
	opt := glamour.WithAutoStyle()
	if style != "" {
		opt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(72))
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render, nil
}

// Headline is the line shown while a payment is in flight.
func Headline(req domain.PaymentRequest) string {
	return fmt.Sprintf("Paying ₹%s to %s", req.Amount, req.Payee())
}

// Receipt renders a snapshot as markdown.
func Receipt(snap domain.Snapshot) string {
	var b strings.Builder
	switch snap.Phase {
	case domain.PhaseSuccess:
		b.WriteString("# Payment successful\n\n")
	case domain.PhaseFailed:
		b.WriteString("# Payment failed\n\n")
	default:
		fmt.Fprintf(&b, "# %s\n\n", snap.Phase.Status())
	}

	if snap.Request == nil {
		b.WriteString("_No payment armed._\n")
		return b.String()
	}

	req := snap.Request
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Payee | %s |\n", escapeCell(req.Payee()))
	fmt.Fprintf(&b, "| Destination | `%s` |\n", req.DestinationID)
	fmt.Fprintf(&b, "| Amount | ₹%s |\n", req.Amount)
	fmt.Fprintf(&b, "| Phase | %s |\n", snap.Phase)
	if !snap.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "| Updated | %s |\n", snap.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if snap.Phase == domain.PhaseConfirm {
		b.WriteString("\n> Enter your PIN on the handset to authorise the transfer.\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

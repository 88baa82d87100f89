package uitree

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/ussdpilot/internal/match"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Injector writes input into the dialog and presses its confirm button.
type Injector struct {
	keywords []string
}

// NewInjector creates an injector that confirms with the first button whose
// label contains one of keywords.
func NewInjector(keywords []string) *Injector {
	return &Injector{keywords: slices.Clone(keywords)}
}

// Fill sets text on every field, not only the first. It keeps going after a
// failure and returns how many fields accepted the text.
func (i *Injector) Fill(ctx context.Context, fields []ports.Node, text string) (int, error) {
	var errs []error
	filled := 0
	for idx, f := range fields {
		if err := f.SetText(ctx, text); err != nil {
			errs = append(errs, fmt.Errorf("field %d: %w", idx, err))
			continue
		}
		filled++
	}
	return filled, errors.Join(errs...)
}

// Confirm activates the first matching button and stops. No match is not an error.
func (i *Injector) Confirm(ctx context.Context, buttons []ports.Node) (label string, activated bool, err error) {
	for _, b := range buttons {
		if !match.Contains(b.Label(), i.keywords...) {
			continue
		}
		if err := b.Activate(ctx); err != nil {
			return b.Label(), false, fmt.Errorf("activate %q: %w", b.Label(), err)
		}
		return b.Label(), true, nil
	}
	return "", false, nil
}

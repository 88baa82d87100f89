package runtime

import (
	"github.com/aretw0/ussdpilot/internal/match"
	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Rule maps dialog vocabulary to a phase and the reply for that phase.
type Rule struct {
	// Phase is entered when any keyword is found in the screen text.
	Phase domain.Phase

	// Keywords are matched case-insensitively as substrings.
	Keywords []string

	// Reply computes the input to submit. A nil Reply submits nothing.
	Reply func(domain.PaymentRequest) string
}

// DefaultRules is the ordered rule list for the send-money flow.
// Order is significant: the first matching rule wins, so "Confirm Amount ..."
// is classified as EnterAmount, not Confirm.
func DefaultRules() []Rule {
	return []Rule{
		{
			Phase:    domain.PhaseMenuMain,
			Keywords: []string{"send money", "1. send"},
			Reply:    func(domain.PaymentRequest) string { return "1" },
		},
		{
			Phase:    domain.PhaseEnterDestination,
			Keywords: []string{"enter upi", "vpa", "mobile/upi"},
			Reply:    func(p domain.PaymentRequest) string { return p.DestinationID },
		},
		{
			Phase:    domain.PhaseEnterAmount,
			Keywords: []string{"enter amount", "amount"},
			Reply:    func(p domain.PaymentRequest) string { return p.Amount },
		},
		{
			// The PIN is never auto-filled.
			Phase:    domain.PhaseConfirm,
			Keywords: []string{"confirm", "enter pin", "mpin"},
		},
		{
			Phase:    domain.PhaseSuccess,
			Keywords: []string{"successful", "transaction id"},
		},
		{
			Phase:    domain.PhaseFailed,
			Keywords: []string{"failed", "error", "declined"},
		},
	}
}

// matchRule returns the first rule with a keyword contained in text.
func matchRule(rules []Rule, text string) (Rule, string, bool) {
	folded := match.Fold(text)
	for _, r := range rules {
		if kw, ok := match.FirstIn(folded, r.Keywords); ok {
			return r, kw, true
		}
	}
	return Rule{}, "", false
}

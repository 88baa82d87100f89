package domain

// Phase is the automation's position within the structured-menu flow.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseMenuMain         Phase = "menu_main"
	PhaseEnterDestination Phase = "enter_destination"
	PhaseEnterAmount      Phase = "enter_amount"
	PhaseConfirm          Phase = "confirm" // PIN entry is left to the human
	PhaseSuccess          Phase = "success"
	PhaseFailed           Phase = "failed"
)

// IsTerminal reports whether no further transition can happen until a reset.
func (p Phase) IsTerminal() bool {
	return p == PhaseSuccess || p == PhaseFailed
}

// Status returns the human-readable line shown while the flow is running.
func (p Phase) Status() string {
	switch p {
	case PhaseIdle:
		return "Initializing..."
	case PhaseMenuMain:
		return "Navigating menu..."
	case PhaseEnterDestination:
		return "Entering UPI ID..."
	case PhaseEnterAmount:
		return "Entering amount..."
	case PhaseConfirm:
		return "Awaiting PIN entry..."
	case PhaseSuccess:
		return "Payment successful"
	case PhaseFailed:
		return "Payment failed"
	default:
		return "Unknown phase"
	}
}

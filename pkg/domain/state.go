package domain

import "time"

// Snapshot is a point-in-time copy of the session, safe to hand to observers.
type Snapshot struct {
	// Phase is the active phase.
	Phase Phase `json:"phase"`

	// Request is the armed payment, nil while the session is disarmed.
	Request *PaymentRequest `json:"request,omitempty"`

	// UpdatedAt is the time of the last arm, reset or transition.
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted request when the store encrypts payments.
	Sealed string `json:"sealed,omitempty"`
}

// NewSnapshot creates an idle, disarmed snapshot.
func NewSnapshot(now time.Time) Snapshot {
	return Snapshot{Phase: PhaseIdle, UpdatedAt: now}
}

// Terminal reports whether the snapshot's phase is Success or Failed.
func (s Snapshot) Terminal() bool {
	return s.Phase.IsTerminal()
}

// Armed reports whether a payment is attached.
func (s Snapshot) Armed() bool {
	return s.Request != nil
}

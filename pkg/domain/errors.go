package domain

import "errors"

// ErrInvalidAmount is returned when a payment amount is not a positive decimal with at most two places.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInvalidDestination is returned when a destination does not look like user@handle.
var ErrInvalidDestination = errors.New("invalid destination")

// ErrSessionNotFound is returned when a session key cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotArmed is returned by operations that need an armed payment.
var ErrNotArmed = errors.New("no payment armed")

/*
Package domain contains the core domain models of the USSD pilot.

It defines the payment being automated, the phases of the structured-menu flow and
the read-only snapshot observers poll. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - PaymentRequest: The transfer being automated (amount, destination, display name).
  - Phase: The automation's current position within the menu flow.
  - Snapshot: A point-in-time copy of the session, safe to hand to observers.
  - DialogProfile: The vendor-extensible allowlists used to recognise the dialog.
  - LifecycleHooks: Callbacks fired on transitions, dispatches and injections.
*/
package domain

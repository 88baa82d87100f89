/*
Package ports defines the driven ports (interfaces) for the USSD pilot.

These interfaces decouple the decision core from the host platform, allowing the same
state machine and tree engine to run against a real device, a recorded script or a
synthetic tree in tests.

# Key Interfaces

  - Node: A capability-scoped handle onto one element of the on-screen hierarchy.
  - Host: The inbound stream of screen-change notifications.
  - Dialer: Places the call that opens the structured-menu session.
  - SnapshotStore: Persists the session snapshot for remote observers.
*/
package ports

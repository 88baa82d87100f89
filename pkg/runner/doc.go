/*
Package runner provides the event dispatch loop of the USSD pilot.

The Runner consumes host notifications one at a time from a single channel. For
each notification it checks the event kind, recognises the dialog, extracts its
text, asks the session what to submit and, when there is something to submit,
fills the dialog's fields and presses its confirm button.

# Handle ownership

The source node delivered with an event belongs to the Runner from the moment it
is received. It is released exactly once before Handle returns, on every path.

# Key Components

  - Runner: The sequential dispatch loop (Run) and single-event handler (Handle).
  - Classifier: The decision port implemented by the session state machine.
  - Result: What a single dispatch did, for logs, metrics and tests.
*/
package runner

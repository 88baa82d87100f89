/*
Package ussdpilot drives a telecom structured-menu (USSD) funds-transfer dialog
on behalf of a user.

The caller arms a payment, opens the menu session and hands the pilot a stream
of screen-change notifications. For every notification the pilot decides
whether the screen belongs to the menu dialog, reads its text, classifies it
into a phase and, when the phase has an answer, types it into the dialog's
input field and presses the confirm button. The secret PIN is never entered;
the flow stops at the confirm phase and waits for the human.

# Architecture

  - pkg/domain: payment request, phases, snapshots and lifecycle hooks.
  - pkg/ports: the node tree, host, dialer and snapshot store contracts.
  - pkg/runner: the sequential dispatch loop.
  - pkg/adapters: adb (real device), memory and script (tests and replays),
    redis (shared snapshots), http and mcp (control surfaces).
  - pkg/persistence/middleware: encryption and masking for published snapshots.

# Usage

	pilot := ussdpilot.New(ussdpilot.WithLogger(logger))

	req, err := domain.NewPaymentRequest("500", "merchant@upi", "")
	if err != nil {
		log.Fatal(err)
	}
	if err := pilot.Arm(ctx, req); err != nil {
		log.Fatal(err)
	}

	client := adb.New(adb.WithSerial(serial))
	if err := pilot.Start(ctx, adb.NewDialer(client), "*99#"); err != nil {
		log.Fatal(err)
	}
	if err := pilot.Run(ctx, adb.NewHost(client)); err != nil {
		log.Fatal(err)
	}
*/
package ussdpilot

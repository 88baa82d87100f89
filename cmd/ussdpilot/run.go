package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/ussdpilot/internal/cli"
	"github.com/aretw0/ussdpilot/internal/presentation/tui"
	"github.com/aretw0/ussdpilot/pkg/adapters/adb"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Pay through the USSD menu on a connected handset",
	Long: `Arms a payment, dials the USSD menu on the device reachable through adb and
answers the menu prompts until the PIN prompt appears. Progress is shown until
the payment succeeds, fails or the command is interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runPayment(cmd))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("amount", "", "Amount to send, e.g. 500 or 12.50")
	runCmd.Flags().String("to", "", "Destination UPI ID")
	runCmd.Flags().String("name", "", "Payee display name")
	runCmd.Flags().String("dial", cli.DialCode, "How to open the session: code, voice or none")
	runCmd.Flags().Duration("lock-ttl", 10*time.Minute, "How long the device lock is held")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and receipt")
	runCmd.Flags().Bool("resume", false, "Resume the in-flight payment from the store instead of arming a new one")
}

func runPayment(cmd *cobra.Command) error {
	amount, _ := cmd.Flags().GetString("amount")
	to, _ := cmd.Flags().GetString("to")
	name, _ := cmd.Flags().GetString("name")
	dialMode, _ := cmd.Flags().GetString("dial")
	lockTTL, _ := cmd.Flags().GetDuration("lock-ttl")
	quiet, _ := cmd.Flags().GetBool("quiet")
	resume, _ := cmd.Flags().GetBool("resume")

	env, err := setupEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	target, err := env.DialTarget(dialMode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		tui.PrintBanner(os.Stdout)
	}

	device := env.NewDevice()
	if err := device.Check(ctx); err != nil {
		return err
	}

	release, err := env.HoldDevice(ctx, lockTTL)
	if err != nil {
		return err
	}
	defer release()

	pilot := env.NewPilot()
	if resume {
		ok, err := pilot.Restore(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no payment in flight to resume")
		}
	} else {
		req, err := domain.NewPaymentRequest(amount, to, name)
		if err != nil {
			return err
		}
		if err := pilot.Arm(ctx, req); err != nil {
			return err
		}
	}

	if target != "" {
		if err := pilot.Start(ctx, adb.NewDialer(device), target); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- pilot.Run(runCtx, env.NewHost(device))
		cancel()
	}()

	watcher := tui.NewWatcher(os.Stdout, env.Config.Status.PollInterval)
	snap, _ := watcher.Watch(runCtx, func(context.Context) (domain.Snapshot, error) {
		return pilot.Snapshot(), nil
	})
	cancel()

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if !quiet {
		printReceipt(snap)
	}
	if snap.Phase == domain.PhaseFailed {
		return errors.New("payment failed")
	}
	return nil
}

func printReceipt(snap domain.Snapshot) {
	render, err := tui.NewRenderer("auto")
	if err != nil {
		fmt.Println(tui.Receipt(snap))
		return
	}
	out, err := render(tui.Receipt(snap))
	if err != nil {
		fmt.Println(tui.Receipt(snap))
		return
	}
	fmt.Print(out)
}

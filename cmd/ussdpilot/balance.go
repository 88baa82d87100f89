package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/pkg/adapters/adb"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Open the USSD menu without a payment and print its dialogs",
	Long: `Dials the USSD code on the connected handset with no payment armed. The
pilot never answers a prompt; every dialog it reads is printed so the balance
can be checked by hand. Stops after --timeout or on interrupt.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(checkBalance(cmd))
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().Duration("timeout", time.Minute, "How long to watch the dialogs")
	balanceCmd.Flags().Duration("lock-ttl", 10*time.Minute, "How long the device lock is held")
}

func checkBalance(cmd *cobra.Command) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	lockTTL, _ := cmd.Flags().GetDuration("lock-ttl")

	env, err := setupEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	device := env.NewDevice()
	if err := device.Check(ctx); err != nil {
		return err
	}
	release, err := env.HoldDevice(ctx, lockTTL)
	if err != nil {
		return err
	}
	defer release()

	// Hooks run on the host loop goroutine only.
	var last string
	pilot := env.NewPilot(ussdpilot.WithLifecycleHooks(domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			text := strings.TrimSpace(e.Text)
			if text == "" || text == last {
				return
			}
			last = text
			fmt.Printf("%s\n\n", text)
		},
	}))

	if err := pilot.Dial(ctx, adb.NewDialer(device), env.Config.Dial.Code); err != nil {
		return err
	}
	err = pilot.Run(ctx, env.NewHost(device))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if last == "" {
		return errors.New("no dialog appeared")
	}
	return nil
}

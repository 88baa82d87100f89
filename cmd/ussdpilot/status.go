package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/ussdpilot/internal/presentation/tui"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session published to the store",
	Long: `Reads the session snapshot a pilot publishes to the configured store. With
the redis backend this works from any machine that can reach the server.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(showStatus(cmd))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolP("follow", "f", false, "Keep printing changes until the payment finishes")
	statusCmd.Flags().Bool("all", false, "List every live session key")
}

func showStatus(cmd *cobra.Command) error {
	follow, _ := cmd.Flags().GetBool("follow")
	all, _ := cmd.Flags().GetBool("all")

	env, err := setupEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if all {
		keys, err := env.ListSessions(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	}

	if follow {
		watcher := tui.NewWatcher(os.Stdout, env.Config.Status.PollInterval)
		snap, err := watcher.Watch(ctx, env.LoadSnapshot)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		printReceipt(snap)
		return nil
	}

	snap, err := env.LoadSnapshot(ctx)
	if errors.Is(err, domain.ErrSessionNotFound) {
		fmt.Printf("No session published under %q\n", env.Config.Store.Key)
		return nil
	}
	if err != nil {
		return err
	}
	printReceipt(snap)
	return nil
}

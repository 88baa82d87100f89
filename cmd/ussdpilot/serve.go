package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/ussdpilot"
	httpAdapter "github.com/aretw0/ussdpilot/pkg/adapters/http"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Starts the pilot behind a JSON API. Payments are armed with POST /payments,
progress is streamed on /events and metrics are exposed on /metrics. With
--device the pilot also drives the handset reachable through adb.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(serve(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
	serveCmd.Flags().Bool("device", false, "Drive the connected handset")
	serveCmd.Flags().Duration("lock-ttl", 10*time.Minute, "How long the device lock is held")
}

func serve(cmd *cobra.Command) error {
	addr, _ := cmd.Flags().GetString("addr")
	withDevice, _ := cmd.Flags().GetBool("device")
	lockTTL, _ := cmd.Flags().GetDuration("lock-ttl")

	env, err := setupEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()
	if addr == "" {
		addr = env.Config.HTTP.Addr
	}

	streams := httpAdapter.NewStreamManager(env.Logger)
	var pilot *ussdpilot.Pilot
	pilot = env.NewPilot(
		ussdpilot.WithRuntimeMetrics(),
		ussdpilot.WithLifecycleHooks(httpAdapter.PhaseHooks(streams, func() domain.Snapshot {
			return pilot.Snapshot()
		})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if restored, err := pilot.Restore(ctx); err != nil {
		env.Logger.Warn("failed to restore session", "err", err)
	} else if restored {
		env.Logger.Info("session restored", "phase", pilot.Snapshot().Phase)
	}

	// Channel to listen for errors coming from the listener or the device loop.
	serverErrors := make(chan error, 2)

	if withDevice {
		device := env.NewDevice()
		if err := device.Check(ctx); err != nil {
			return err
		}
		release, err := env.HoldDevice(ctx, lockTTL)
		if err != nil {
			return err
		}
		defer release()
		go func() {
			if err := pilot.Run(ctx, env.NewHost(device)); err != nil && !errors.Is(err, context.Canceled) {
				serverErrors <- fmt.Errorf("device loop: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr: addr,
		Handler: httpAdapter.NewHandler(pilot,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(env.Logger),
		),
	}

	go func() {
		fmt.Printf("Starting ussdpilot server on %s\n", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
		cancel()

		// Give outstanding requests a deadline for completion.
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				fmt.Printf("Error killing server: %v\n", err)
			}
		}
		fmt.Println("ussdpilot server stopped gracefully")
	}
	return nil
}

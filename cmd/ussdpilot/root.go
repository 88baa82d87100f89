package main

import (
	"fmt"
	"os"

	"github.com/aretw0/ussdpilot/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ussdpilot",
	Short: "Drive USSD money transfers on an Android handset",
	Long: `ussdpilot walks the carrier's USSD payment menu for you. It dials the
menu code, answers the send-money prompts with the armed payment and stops at
the PIN prompt, which is always left to the person holding the phone.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json)")
	rootCmd.PersistentFlags().StringP("serial", "s", "", "adb serial of the target device")
}

// setupEnv builds the shared environment from the global flags.
func setupEnv(cmd *cobra.Command) (*cli.Env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	serial, _ := cmd.Flags().GetString("serial")

	return cli.Setup(cli.Options{
		ConfigPath: configPath,
		LogLevel:   level,
		LogFormat:  format,
		Serial:     serial,
	})
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

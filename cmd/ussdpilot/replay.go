package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ussdpilot/pkg/adapters/script"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay a recorded menu session without a device",
	Long: `Feeds the screens of a YAML script through the pilot, printing the outcome
and the actions taken for each one. Screens may carry expectations; the command
fails when any of them is missed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(replayScript(cmd, args[0]))
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func replayScript(cmd *cobra.Command, path string) error {
	f, err := script.Load(path)
	if err != nil {
		return err
	}

	env, err := setupEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	pilot := env.NewPilot()
	if err := pilot.Arm(ctx, f.Payment); err != nil {
		return err
	}

	steps, err := script.Replay(ctx, pilot, f)
	for _, step := range steps {
		printStep(step)
	}
	if err != nil {
		return err
	}

	snap := pilot.Snapshot()
	fmt.Printf(">>> %s: finished in %s\n", scriptName(f, path), snap.Phase)
	if script.Failed(steps) {
		return errors.New("replay did not match expectations")
	}
	return nil
}

func printStep(step script.Step) {
	res := step.Result
	fmt.Printf("[%d] %-16s %-10s %s\n", step.Index, step.Kind, res.Outcome, res.Phase)
	for _, act := range step.Actions {
		if act.Text != "" {
			fmt.Printf("      %s %q\n", act.Kind, act.Text)
		} else {
			fmt.Printf("      %s %s\n", act.Kind, act.Label)
		}
	}
	if res.Err != nil {
		fmt.Printf("      error: %v\n", res.Err)
	}
	if step.Mismatch != "" {
		fmt.Printf("      MISMATCH: %s\n", step.Mismatch)
	}
}

func scriptName(f *script.File, path string) string {
	if f.Name != "" {
		return f.Name
	}
	return path
}

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"claudeorchestra/internal/knowledge"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <project>",
	Short: "Pause a running workflow at its next step boundary",
	Long: `Pause a running workflow.

The run holds before starting its next step until 'orchestra resume' clears
the pause. Pausing does not interrupt the step currently in flight.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := projectSignals(args[0])
		if err != nil {
			return err
		}
		defer signals.Close()

		if err := signals.SendPause(); err != nil {
			return fmt.Errorf("send pause signal: %w", err)
		}
		printStatus("✓", "Pause signal sent; the run holds at its next step boundary", color.FgYellow)
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <project>",
	Short: "Resume a paused workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := projectSignals(args[0])
		if err != nil {
			return err
		}
		defer signals.Close()

		signals.ClearPause()
		printStatus("✓", "Pause cleared", color.FgGreen)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <project>",
	Short: "Stop a running workflow at its next step boundary",
	Long: `Stop a running workflow.

The run halts before starting its next step; the step in flight finishes.
A stopped run can be picked up later with 'orchestra run --resume'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := projectSignals(args[0])
		if err != nil {
			return err
		}
		defer signals.Close()

		if err := signals.SendStop(); err != nil {
			return fmt.Errorf("send stop signal: %w", err)
		}
		printStatus("✓", "Stop signal sent; the run halts at its next step boundary", color.FgYellow)
		return nil
	},
}

// projectSignals opens the signal manager for a project's signals directory.
func projectSignals(name string) (*knowledge.SignalManager, error) {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	project, err := store.GetProject(name)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", name, err)
	}
	return knowledge.NewSignalManager(project.Path)
}

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var decisionCategory string

var decisionsCmd = &cobra.Command{
	Use:   "decisions <project>",
	Short: "Show the project decision log",
	Long: `Show the project decision log.

Decisions are appended by agents during workflow runs (lines the model
marks with "DECISION:") and by hand with 'decisions add'. The log is
append-only; every agent sees it as part of its context.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecisionsList,
}

var decisionsAddCmd = &cobra.Command{
	Use:   "add <project> <text>...",
	Short: "Record a decision by hand",
	Long: `Append a decision to the project decision log.

Examples:
  orchestra decisions add myapp "Postgres over SQLite for multi-user sync"
  orchestra decisions add myapp -c naming "All HTTP handlers end in Handler"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDecisionsAdd,
}

func init() {
	decisionsAddCmd.Flags().StringVarP(&decisionCategory, "category", "c", "manual", "Decision category")
	decisionsCmd.AddCommand(decisionsAddCmd)
}

func runDecisionsList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	project, err := store.GetProject(args[0])
	if err != nil {
		return fmt.Errorf("project %q: %w", args[0], err)
	}

	decisions, err := store.ListDecisions(project.Name)
	if err != nil {
		return fmt.Errorf("list decisions: %w", err)
	}

	if len(decisions) == 0 {
		fmt.Println("No decisions recorded yet.")
		return nil
	}

	for _, d := range decisions {
		ts := d.Timestamp.Format("2006-01-02 15:04")
		if d.Category != "" {
			fmt.Printf("  %s  [%s] %s\n", ts, d.Category, d.Text)
		} else {
			fmt.Printf("  %s  %s\n", ts, d.Text)
		}
	}
	return nil
}

func runDecisionsAdd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	project, err := store.GetProject(args[0])
	if err != nil {
		return fmt.Errorf("project %q: %w", args[0], err)
	}

	text := strings.Join(args[1:], " ")
	if err := store.AppendDecision(project.Name, decisionCategory, text); err != nil {
		return fmt.Errorf("append decision: %w", err)
	}

	printStatus("✓", "Decision recorded", color.FgGreen)
	return nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"claudeorchestra/internal/knowledge"
	"claudeorchestra/pkg/models"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status <project>",
	Short: "Show project documents and recent activity",
	Long: `Display the state of a project's knowledge store.

Shows:
  - Documents produced so far, with the role that wrote them
  - Recent agent invocations with token usage and cost
  - Total tokens and spend for the project

With --watch, re-renders whenever a document changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Re-render when project documents change")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	project, err := store.GetProject(args[0])
	if err != nil {
		return fmt.Errorf("project %q: %w", args[0], err)
	}

	if err := displayStatus(store, project); err != nil {
		return err
	}

	if !statusWatch {
		return nil
	}
	return watchStatus(store, project)
}

func displayStatus(store *knowledge.Store, project *models.Project) error {
	fmt.Printf("Project: %s\n", project.Name)
	if project.Description != "" {
		fmt.Printf("  %s\n", project.Description)
	}
	fmt.Printf("  Created: %s ago\n", formatDuration(time.Since(project.CreatedAt)))
	fmt.Println()

	artifacts, err := store.ListArtifacts(project.Name)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}

	if len(artifacts) == 0 {
		fmt.Println("No documents yet. Run 'orchestra run " + project.Name + "' to start.")
	} else {
		fmt.Println("Documents:")
		for _, a := range artifacts {
			role := ""
			if a.Role.Valid() {
				role = a.Role.DisplayName()
			}
			age := formatDuration(time.Since(a.ModifiedAt))
			fmt.Printf("  %-24s %-18s %6s  %s ago\n", a.Name, role, formatBytes(a.Size), age)
		}
	}
	fmt.Println()

	history, err := knowledge.OpenHistory(store.HistoryDBPath(project.Name))
	if err != nil {
		// A project that never ran has no history database.
		return nil
	}
	defer history.Close()

	entries, err := history.ListRecent(project.Name, 5)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(entries) > 0 {
		fmt.Println("Recent activity:")
		for _, e := range entries {
			displayHistoryEntry(e)
		}
		fmt.Println()
	}

	input, output, cost, err := history.TotalUsage(project.Name)
	if err != nil {
		return fmt.Errorf("total usage: %w", err)
	}
	fmt.Printf("Totals: %s in / %s out tokens, $%.4f\n",
		formatNumber(int(input)), formatNumber(int(output)), cost)
	return nil
}

func displayHistoryEntry(e *models.HistoryEntry) {
	age := formatDuration(time.Since(e.CreatedAt))
	fmt.Printf("  %s ago  %-10s %-10s %s tokens  $%.4f  %s\n",
		age, e.Role, e.Step, formatNumber(int(e.TotalTokens())), e.CostUSD, historyOutcome(e))
}

// historyOutcome formats the outcome column for a history entry. A
// non-terminal status means the step is still in flight, either in another
// process or because one died mid-step.
func historyOutcome(e *models.HistoryEntry) string {
	if !e.Status.Terminal() {
		return string(e.Status) + "..."
	}
	if e.Status == models.StepFailed && e.Error != "" {
		return "failed: " + e.Error
	}
	return string(e.Status)
}

// watchStatus re-renders the status display whenever a project document
// changes. Ctrl+C exits.
func watchStatus(store *knowledge.Store, project *models.Project) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(project.Path); err != nil {
		return fmt.Errorf("watch %s: %w", project.Path, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Println("\nWatching for changes (Ctrl+C to exit)...")

	// Coalesce event bursts; editors often fire several per save.
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.HasSuffix(ev.Name, ".md") {
				pending = time.After(200 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-pending:
			pending = nil
			fmt.Print("\033[2J\033[H")
			if err := displayStatus(store, project); err != nil {
				return err
			}
			fmt.Println("\nWatching for changes (Ctrl+C to exit)...")
		case <-sigCh:
			return nil
		}
	}
}

// formatBytes renders a size in B/KB/MB.
func formatBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}

// formatNumber formats a number with commas.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	offset := len(s) % 3
	if offset > 0 {
		result.WriteString(s[:offset])
		if len(s) > offset {
			result.WriteString(",")
		}
	}
	for i := offset; i < len(s); i += 3 {
		result.WriteString(s[i : i+3])
		if i+3 < len(s) {
			result.WriteString(",")
		}
	}
	return result.String()
}

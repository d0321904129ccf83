package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"claudeorchestra/internal/agent"
	"claudeorchestra/internal/api"
	"claudeorchestra/internal/config"
	"claudeorchestra/internal/knowledge"
	"claudeorchestra/internal/workflow"
	"claudeorchestra/pkg/models"
)

var (
	runWorkflow string
	runResume   bool
	runHeadless bool
)

var runCmd = &cobra.Command{
	Use:   "run <project>",
	Short: "Run a workflow for a project",
	Long: `Run a workflow for a project, one role at a time.

Each step invokes a Claude model with a role-specific prompt, feeds it
the documents earlier steps produced (compressed to the context token
budget), and saves the output to the project's knowledge store. Project
decisions the model flags are appended to decisions.md.

Built-in workflows:
  standard  analyst -> pm -> architect -> developer -> qa (default)
  review    single reviewer pass over all documents

Custom workflows are YAML files in <workspace>/workflows/<name>.yaml.

A failed or interrupted run can be resumed; completed steps are skipped:
  orchestra run myapp --resume`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflowCmd,
}

func init() {
	runCmd.Flags().StringVarP(&runWorkflow, "workflow", "w", "", "Workflow to run (default from config)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "Resume the latest incomplete run, skipping completed steps")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without TUI (plain text progress)")
}

func runWorkflowCmd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	project, err := store.GetProject(args[0])
	if err != nil {
		return fmt.Errorf("project %q: %w (create it with 'orchestra projects new')", args[0], err)
	}

	wfName := runWorkflow
	if wfName == "" {
		wfName = cfg.Defaults.Workflow
	}
	wf, err := workflow.Resolve(wfName, filepath.Join(store.Root(), "workflows"))
	if err != nil {
		return err
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil && !cfg.Anthropic.UseBedrock {
		return err
	}
	client, err := api.NewClient(api.ClientConfig{
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}
	client.Tracker().SetModel(cfg.Defaults.Model)
	// The tracker sees every call this process makes, including ones whose
	// steps fail before reaching the history database.
	defer func() {
		if line := sessionUsageLine(client.Tracker()); line != "" {
			fmt.Println(line)
		}
	}()

	history, err := knowledge.OpenHistory(store.HistoryDBPath(project.Name))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	runs, err := workflow.OpenRunStore(store.RunStateDBPath(project.Name))
	if err != nil {
		return fmt.Errorf("open run state: %w", err)
	}
	defer runs.Close()

	signals, err := knowledge.NewSignalManager(project.Path)
	if err != nil {
		return fmt.Errorf("watch signals: %w", err)
	}
	defer signals.Close()

	roleCfgs, err := config.LoadRoleConfigs(filepath.Join(store.Root(), "roles"))
	if err != nil {
		return fmt.Errorf("load role configs: %w", err)
	}

	agents := agent.NewRunner(client, store, history, cfg, roleCfgs)
	runner := workflow.NewRunner(agents, runs, signals)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := workflow.Options{
		Resume:      runResume,
		StepTimeout: cfg.Timeouts.Step,
	}

	if runHeadless {
		return runPlain(ctx, runner, project, wf, opts)
	}
	return runWithTUI(ctx, runner, project, wf, opts)
}

// sessionUsageLine summarizes API usage for this invocation, or returns ""
// when no calls were made.
func sessionUsageLine(tracker *api.TokenTracker) string {
	if tracker == nil || tracker.Calls() == 0 {
		return ""
	}
	input, output := tracker.Total()
	return fmt.Sprintf("Session API usage: %d calls, %s in / %s out tokens, $%.4f",
		tracker.Calls(), formatNumber(int(input)), formatNumber(int(output)), tracker.Cost())
}

// runPlain executes the workflow with line-oriented progress output.
func runPlain(ctx context.Context, runner *workflow.Runner, project *models.Project, wf *workflow.Workflow, opts workflow.Options) error {
	opts.OnEvent = func(ev workflow.Event) {
		switch ev.Type {
		case workflow.EventStepStarted:
			fmt.Printf("→ [%d/%d] %s (%s)\n", wf.StepIndex(ev.Step)+1, len(wf.Steps), ev.Step, ev.Role.DisplayName())
		case workflow.EventStepCompleted:
			detail := ev.Artifact
			if ev.Entry != nil {
				detail = fmt.Sprintf("%s  %s tokens  $%.4f", ev.Artifact,
					formatNumber(int(ev.Entry.TotalTokens())), ev.Entry.CostUSD)
			}
			printStatus("✓", fmt.Sprintf("%s: %s", ev.Step, detail), color.FgGreen)
		case workflow.EventStepSkipped:
			printStatus("-", fmt.Sprintf("%s: already complete, skipped", ev.Step), color.FgYellow)
		case workflow.EventStepFailed:
			printStatus("✗", fmt.Sprintf("%s: %v", ev.Step, ev.Err), color.FgRed)
		case workflow.EventRunStopped:
			printStatus("⚠", "stop signal received", color.FgYellow)
		case workflow.EventRunPaused:
			printStatus("⚠", "paused; clear with 'orchestra resume'", color.FgYellow)
		case workflow.EventRunResumed:
			printStatus("✓", "resumed", color.FgGreen)
		}
	}

	run, err := runner.Run(ctx, project, wf, opts)
	if err != nil {
		if errors.Is(err, workflow.ErrStopped) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Run stopped. Resume with --resume.")
			return err
		}
		return err
	}

	fmt.Println()
	printStatus("✓", fmt.Sprintf("Workflow %s completed (run %s)", wf.Name, run.ID), color.FgGreen)
	return nil
}

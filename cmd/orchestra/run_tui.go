package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"claudeorchestra/internal/tui"
	"claudeorchestra/internal/workflow"
	"claudeorchestra/pkg/models"
)

// runWithTUI executes the workflow behind the progress TUI.
func runWithTUI(ctx context.Context, runner *workflow.Runner, project *models.Project, wf *workflow.Workflow, opts workflow.Options) error {
	// Suppress log output while the TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	program, app := tui.NewRunProgram(wf)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.SetOnQuit(cancel)

	opts.OnEvent = func(ev workflow.Event) {
		program.Send(tui.StepMsg{Event: ev})
	}

	// Run the workflow in the background; the TUI owns the terminal.
	runDone := make(chan error, 1)
	go func() {
		_, err := runner.Run(runCtx, project, wf, opts)
		program.Send(tui.RunDoneMsg{Err: err})
		runDone <- err
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-runDone
		return fmt.Errorf("TUI error: %w", err)
	}

	err := <-runDone
	if err != nil {
		if errors.Is(err, workflow.ErrStopped) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Run stopped. Resume with --resume.")
		}
		return err
	}
	return nil
}

package workflow

import (
	"context"
	"errors"
	"time"

	"claudeorchestra/internal/agent"
	"claudeorchestra/internal/knowledge"
	"claudeorchestra/pkg/models"
)

// EventType classifies runner progress events.
type EventType string

const (
	// EventStepStarted fires before a step's API call.
	EventStepStarted EventType = "step_started"
	// EventStepCompleted fires after a step persisted its artifact.
	EventStepCompleted EventType = "step_completed"
	// EventStepSkipped fires when a resumed run skips a completed step.
	EventStepSkipped EventType = "step_skipped"
	// EventStepFailed fires when a step errors.
	EventStepFailed EventType = "step_failed"
	// EventRunStopped fires when a stop signal halts the run.
	EventRunStopped EventType = "run_stopped"
	// EventRunPaused fires when a pause signal holds the run at a step boundary.
	EventRunPaused EventType = "run_paused"
	// EventRunResumed fires when the pause signal is cleared.
	EventRunResumed EventType = "run_resumed"
)

// pauseCheckInterval is how often a paused run re-checks its signals.
var pauseCheckInterval = 2 * time.Second

// Event is one progress notification from the runner.
type Event struct {
	Type     EventType
	Step     string
	Role     models.Role
	Artifact string
	Entry    *models.HistoryEntry
	Err      error
}

// Options control one workflow run.
type Options struct {
	// Resume continues the latest incomplete run instead of starting fresh.
	Resume bool
	// StepTimeout bounds each step's API call. Zero means no per-step bound.
	StepTimeout time.Duration
	// OnEvent, when set, receives progress events synchronously.
	OnEvent func(Event)
}

// Runner executes workflows sequentially against a project.
type Runner struct {
	agents  *agent.Runner
	runs    *RunStore
	signals *knowledge.SignalManager
}

// NewRunner creates a workflow runner. signals may be nil (no out-of-band stop).
func NewRunner(agents *agent.Runner, runs *RunStore, signals *knowledge.SignalManager) *Runner {
	return &Runner{
		agents:  agents,
		runs:    runs,
		signals: signals,
	}
}

// ErrStopped is returned when a stop signal halts the run between steps.
var ErrStopped = errors.New("workflow stopped by signal")

// Run executes a workflow against a project, step by step. Completed steps of
// a resumed run are skipped. Execution halts on the first failed step, on
// context cancellation, and on a stop signal at any step boundary.
func (r *Runner) Run(ctx context.Context, project *models.Project, wf *Workflow, opts Options) (*Run, error) {
	if err := wf.Validate(); err != nil {
		return nil, err
	}

	run, done, err := r.prepareRun(project, wf, opts.Resume)
	if err != nil {
		return nil, err
	}

	if r.signals != nil {
		r.signals.ClearSignals()
	}

	for _, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			r.finishRun(run, "stopped")
			return run, err
		}
		if r.signals != nil && r.signals.ShouldStop() {
			r.emit(opts, Event{Type: EventRunStopped, Step: step.Name})
			r.finishRun(run, "stopped")
			return run, ErrStopped
		}
		if err := r.waitWhilePaused(ctx, opts, step); err != nil {
			if errors.Is(err, ErrStopped) {
				r.emit(opts, Event{Type: EventRunStopped, Step: step.Name})
			}
			r.finishRun(run, "stopped")
			return run, err
		}

		if done[step.Name] {
			r.markStep(run, step.Name, models.StepSkipped, "")
			r.emit(opts, Event{Type: EventStepSkipped, Step: step.Name, Role: step.Role})
			continue
		}

		r.markStep(run, step.Name, models.StepRunning, "")
		r.emit(opts, Event{Type: EventStepStarted, Step: step.Name, Role: step.Role})

		result, err := r.runStep(ctx, project, step, opts.StepTimeout)
		if err != nil {
			r.markStep(run, step.Name, models.StepFailed, err.Error())
			r.emit(opts, Event{Type: EventStepFailed, Step: step.Name, Role: step.Role, Err: err})
			r.finishRun(run, "failed")
			return run, err
		}

		r.markStep(run, step.Name, models.StepDone, "")
		r.emit(opts, Event{
			Type:     EventStepCompleted,
			Step:     step.Name,
			Role:     step.Role,
			Artifact: result.Artifact,
			Entry:    result.Entry,
		})
	}

	r.finishRun(run, "completed")
	return run, nil
}

// prepareRun creates a fresh run, or picks up the latest incomplete one when
// resuming. done maps step names already completed in the resumed run.
func (r *Runner) prepareRun(project *models.Project, wf *Workflow, resume bool) (*Run, map[string]bool, error) {
	done := map[string]bool{}

	if r.runs == nil {
		return nil, done, nil
	}

	if resume {
		prev, err := r.runs.LatestIncompleteRun(project.Name, wf.Name)
		if err != nil {
			return nil, nil, err
		}
		if prev != nil {
			statuses, err := r.runs.StepStatuses(prev.ID)
			if err != nil {
				return nil, nil, err
			}
			for name, status := range statuses {
				if status == models.StepDone || status == models.StepSkipped {
					done[name] = true
				}
			}
			if err := r.runs.UpdateRunStatus(prev.ID, "started"); err != nil {
				return nil, nil, err
			}
			return prev, done, nil
		}
	}

	run, err := r.runs.CreateRun(project.Name, wf)
	if err != nil {
		return nil, nil, err
	}
	return run, done, nil
}

// waitWhilePaused blocks while a pause signal is present, re-checking on an
// interval. Context cancellation and stop signals end the wait early.
func (r *Runner) waitWhilePaused(ctx context.Context, opts Options, step Step) error {
	if r.signals == nil || !r.signals.ShouldPause() {
		return nil
	}
	r.emit(opts, Event{Type: EventRunPaused, Step: step.Name, Role: step.Role})

	for r.signals.ShouldPause() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pauseCheckInterval):
		}
		if r.signals.ShouldStop() {
			return ErrStopped
		}
	}

	r.emit(opts, Event{Type: EventRunResumed, Step: step.Name, Role: step.Role})
	return nil
}

// runStep executes one step with an optional timeout.
func (r *Runner) runStep(ctx context.Context, project *models.Project, step Step, timeout time.Duration) (*agent.StepResult, error) {
	stepCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return r.agents.RunStep(stepCtx, agent.StepRequest{
		Project:  project,
		Role:     step.Role,
		StepName: step.Name,
		Task:     step.Task,
		Artifact: step.Artifact,
		Consumes: step.Consumes,
	})
}

func (r *Runner) markStep(run *Run, stepName string, status models.StepStatus, errMsg string) {
	if r.runs == nil || run == nil {
		return
	}
	// Checkpointing is best-effort; a failed write must not fail the run.
	_ = r.runs.MarkStep(run.ID, stepName, status, errMsg)
}

func (r *Runner) finishRun(run *Run, status string) {
	if r.runs == nil || run == nil {
		return
	}
	run.Status = status
	_ = r.runs.UpdateRunStatus(run.ID, status)
}

func (r *Runner) emit(opts Options, event Event) {
	if opts.OnEvent != nil {
		opts.OnEvent(event)
	}
}

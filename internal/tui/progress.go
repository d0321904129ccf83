// Package tui provides the terminal user interface for Orchestra's run command.
//
// The package contains a read-only progress view that displays workflow
// execution in real-time: the step list with per-step status, token usage and
// cost so far, and an activity log of recent events. Users can only quit with
// 'q' or Ctrl+C, which cancels the run.
//
// Usage:
//
//	program, app := tui.NewRunProgram(wf)
//	go program.Run()
//
//	// Send step updates
//	program.Send(tui.StepMsg{Event: event})
//
//	// Signal completion
//	program.Send(tui.RunDoneMsg{Err: nil})
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"claudeorchestra/internal/workflow"
	"claudeorchestra/pkg/models"
)

// StepMsg wraps a workflow event for the TUI.
type StepMsg struct {
	Event workflow.Event
}

// RunDoneMsg signals that the workflow run has finished.
type RunDoneMsg struct {
	Err error
}

// logEntry is one line of the activity log.
type logEntry struct {
	timestamp time.Time
	step      string
	message   string
}

// stepRow tracks display state for one workflow step.
type stepRow struct {
	name     string
	role     models.Role
	status   models.StepStatus
	artifact string
}

// RunApp is the bubbletea model for the run progress view.
type RunApp struct {
	// workflowName is shown in the header.
	workflowName string
	// steps holds display state in workflow order.
	steps []stepRow
	// logs is the activity log, newest last.
	logs []logEntry
	// spin animates next to the running step.
	spin spinner.Model
	// inputTokens and outputTokens accumulate across completed steps.
	inputTokens  int64
	outputTokens int64
	// cost accumulates across completed steps.
	cost float64
	// done indicates the run has finished.
	done bool
	// err holds the run error, if any.
	err error
	// quitting indicates the app is shutting down.
	quitting bool
	// onQuit is called when the user quits before the run is done.
	onQuit func()

	width int

	headerStyle  lipgloss.Style
	labelStyle   lipgloss.Style
	doneStyle    lipgloss.Style
	failStyle    lipgloss.Style
	skipStyle    lipgloss.Style
	pendingStyle lipgloss.Style
	runningStyle lipgloss.Style
	logTimeStyle lipgloss.Style
	logStepStyle lipgloss.Style
	hintStyle    lipgloss.Style
}

// NewRunApp creates a RunApp for a workflow.
func NewRunApp(wf *workflow.Workflow) *RunApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	steps := make([]stepRow, 0, len(wf.Steps))
	for _, s := range wf.Steps {
		steps = append(steps, stepRow{name: s.Name, role: s.Role, status: models.StepPending})
	}

	return &RunApp{
		workflowName: wf.Name,
		steps:        steps,
		spin:         sp,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")).
			MarginBottom(1),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14),

		doneStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		failStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		skipStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		pendingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		runningStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		logTimeStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		logStepStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Width(16),
		hintStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetOnQuit registers a callback invoked when the user quits a running
// workflow. The caller uses it to cancel the run context.
func (a *RunApp) SetOnQuit(fn func()) {
	a.onQuit = fn
}

// Init implements tea.Model.
func (a *RunApp) Init() tea.Cmd {
	return a.spin.Tick
}

// Update implements tea.Model.
func (a *RunApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !a.done && a.onQuit != nil {
				a.onQuit()
			}
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case StepMsg:
		a.applyEvent(msg.Event)

	case RunDoneMsg:
		a.done = true
		a.err = msg.Err
	}

	return a, nil
}

// applyEvent folds a workflow event into the display state.
func (a *RunApp) applyEvent(ev workflow.Event) {
	switch ev.Type {
	case workflow.EventStepStarted:
		a.setStatus(ev.Step, models.StepRunning)
		a.log(ev.Step, fmt.Sprintf("%s started", ev.Role.DisplayName()))
	case workflow.EventStepCompleted:
		a.setStatus(ev.Step, models.StepDone)
		if i := a.stepIndex(ev.Step); i >= 0 {
			a.steps[i].artifact = ev.Artifact
		}
		if ev.Entry != nil {
			a.inputTokens += ev.Entry.InputTokens
			a.outputTokens += ev.Entry.OutputTokens
			a.cost += ev.Entry.CostUSD
		}
		a.log(ev.Step, fmt.Sprintf("wrote %s", ev.Artifact))
	case workflow.EventStepSkipped:
		a.setStatus(ev.Step, models.StepSkipped)
		a.log(ev.Step, "already complete, skipped")
	case workflow.EventStepFailed:
		a.setStatus(ev.Step, models.StepFailed)
		a.log(ev.Step, fmt.Sprintf("failed: %v", ev.Err))
	case workflow.EventRunStopped:
		a.log(ev.Step, "stop signal received")
	case workflow.EventRunPaused:
		a.log(ev.Step, "paused; clear with 'orchestra resume'")
	case workflow.EventRunResumed:
		a.log(ev.Step, "resumed")
	}
}

func (a *RunApp) stepIndex(name string) int {
	for i := range a.steps {
		if a.steps[i].name == name {
			return i
		}
	}
	return -1
}

func (a *RunApp) setStatus(name string, status models.StepStatus) {
	if i := a.stepIndex(name); i >= 0 {
		a.steps[i].status = status
	}
}

func (a *RunApp) log(step, message string) {
	a.logs = append(a.logs, logEntry{timestamp: time.Now(), step: step, message: message})
}

// View implements tea.Model.
func (a *RunApp) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(a.headerStyle.Render(fmt.Sprintf("Orchestra Run: %s", a.workflowName)))
	b.WriteString("\n")

	for _, row := range a.steps {
		b.WriteString(a.renderStep(row))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Tokens:"))
	b.WriteString(fmt.Sprintf("%d in / %d out", a.inputTokens, a.outputTokens))
	b.WriteString("\n")
	b.WriteString(a.labelStyle.Render("Cost:"))
	b.WriteString(fmt.Sprintf("$%.4f", a.cost))
	b.WriteString("\n\n")

	b.WriteString(a.renderLogs())

	b.WriteString("\n")
	if a.done {
		if a.err != nil {
			b.WriteString(a.failStyle.Render(fmt.Sprintf("Run failed: %v", a.err)))
		} else {
			b.WriteString(a.doneStyle.Render("Run complete! Press q to exit."))
		}
	} else {
		b.WriteString(a.hintStyle.Render("Press q to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderStep renders one step line with its status marker.
func (a *RunApp) renderStep(row stepRow) string {
	var marker string
	switch row.status {
	case models.StepRunning:
		marker = a.spin.View()
	case models.StepDone:
		marker = a.doneStyle.Render("✓")
	case models.StepFailed:
		marker = a.failStyle.Render("✗")
	case models.StepSkipped:
		marker = a.skipStyle.Render("-")
	default:
		marker = a.pendingStyle.Render("·")
	}

	label := fmt.Sprintf("%s (%s)", row.name, row.role.DisplayName())
	if row.status == models.StepRunning {
		label = a.runningStyle.Render(label)
	} else if row.status == models.StepPending {
		label = a.pendingStyle.Render(label)
	}

	line := fmt.Sprintf("  %s %s", marker, label)
	if row.artifact != "" {
		line += a.skipStyle.Render(fmt.Sprintf("  → %s", row.artifact))
	}
	return line
}

// renderLogs renders the last few activity log entries.
func (a *RunApp) renderLogs() string {
	if len(a.logs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Render("Activity"))
	b.WriteString("\n")

	start := 0
	if len(a.logs) > 8 {
		start = len(a.logs) - 8
	}

	for _, entry := range a.logs[start:] {
		ts := a.logTimeStyle.Render(entry.timestamp.Format("15:04:05"))
		step := a.logStepStyle.Render(entry.step)
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ts, step, entry.message))
	}

	return b.String()
}

// NewRunProgram creates a new bubbletea program for the run progress view.
func NewRunProgram(wf *workflow.Workflow) (*tea.Program, *RunApp) {
	app := NewRunApp(wf)
	p := tea.NewProgram(app)
	return p, app
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"claudeorchestra/internal/api"
	"claudeorchestra/internal/assemble"
	"claudeorchestra/internal/config"
	"claudeorchestra/internal/knowledge"
	"claudeorchestra/pkg/models"
)

// Runner executes single agent steps: assemble context, render the role
// prompt, call the model, and persist the resulting artifact and history.
type Runner struct {
	client   api.Completer
	store    *knowledge.Store
	history  *knowledge.HistoryStore
	cfg      *config.Config
	roleCfgs config.RoleConfigs
}

// NewRunner creates a step runner. history may be nil (no recording) and
// roleCfgs may be nil (defaults apply).
func NewRunner(client api.Completer, store *knowledge.Store, history *knowledge.HistoryStore, cfg *config.Config, roleCfgs config.RoleConfigs) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Runner{
		client:   client,
		store:    store,
		history:  history,
		cfg:      cfg,
		roleCfgs: roleCfgs,
	}
}

// StepRequest describes one agent invocation.
type StepRequest struct {
	// Project is the project the step runs against.
	Project *models.Project
	// Role selects the prompt template and artifact bindings.
	Role models.Role
	// StepName is the workflow step name for history records.
	StepName string
	// Task is the step's task text. May contain template placeholders.
	Task string
	// Artifact overrides the output artifact name (empty: role default).
	Artifact string
	// Consumes overrides which artifacts the role reads (nil: role default).
	Consumes []string
}

// StepResult reports one completed agent invocation.
type StepResult struct {
	// Artifact is the output artifact file name.
	Artifact string
	// Output is the model's document.
	Output string
	// Decisions are the DECISION lines appended to the log.
	Decisions []string
	// Assembly describes what the context builder included and dropped.
	Assembly assemble.Result
	// Entry is the recorded history entry.
	Entry *models.HistoryEntry
}

// RunStep executes one agent step. The artifact is only written on success;
// an empty model output fails the step without touching prior artifacts.
func (r *Runner) RunStep(ctx context.Context, req StepRequest) (*StepResult, error) {
	if req.Project == nil {
		return nil, fmt.Errorf("step request has no project")
	}

	spec := SpecFor(req.Role)
	roleCfg := r.roleCfgs.Get(req.Role)

	consumes := spec.Consumes
	if req.Consumes != nil {
		consumes = req.Consumes
	} else if roleCfg != nil && roleCfg.Consumes != nil {
		consumes = roleCfg.Consumes
	}

	artifact := req.Artifact
	if artifact == "" {
		artifact = spec.Produces()
	}

	assembly := r.buildContext(req.Project.Name, consumes, spec.Keywords, roleCfg)

	data := PromptData{
		Project:     req.Project.Name,
		Description: req.Project.Description,
		Context:     assembly.Context,
	}
	task, err := RenderTask(req.Task, data)
	if err != nil {
		return nil, err
	}
	data.Task = task

	prompt, err := RenderUserPrompt(data)
	if err != nil {
		return nil, err
	}

	compReq := api.CompletionRequest{
		Model:       r.cfg.Defaults.Model,
		System:      spec.SystemPrompt,
		Prompt:      prompt,
		Temperature: r.cfg.Defaults.Temperature,
		MaxTokens:   r.cfg.Defaults.MaxTokens,
	}
	if roleCfg != nil {
		if roleCfg.Model != "" {
			compReq.Model = roleCfg.Model
		}
		if roleCfg.Temperature != nil {
			compReq.Temperature = *roleCfg.Temperature
		}
		if roleCfg.MaxTokens > 0 {
			compReq.MaxTokens = roleCfg.MaxTokens
		}
	}

	start := time.Now()
	result, err := r.complete(ctx, compReq)
	duration := time.Since(start)

	entry := &models.HistoryEntry{
		Project:    req.Project.Name,
		Role:       req.Role,
		Step:       req.StepName,
		Model:      compReq.Model,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  start.UTC(),
	}

	if err != nil {
		entry.Status = models.StepFailed
		entry.Error = err.Error()
		r.record(entry)
		return nil, fmt.Errorf("%s step: %w", req.Role, err)
	}

	entry.Model = result.Model
	entry.InputTokens = result.InputTokens
	entry.OutputTokens = result.OutputTokens
	entry.CostUSD = costOf(result)

	if strings.TrimSpace(result.Text) == "" {
		entry.Status = models.StepFailed
		entry.Error = "model returned empty output"
		r.record(entry)
		return nil, fmt.Errorf("%s step: model returned empty output", req.Role)
	}

	if err := r.store.SaveArtifact(req.Project.Name, artifact, result.Text); err != nil {
		entry.Status = models.StepFailed
		entry.Error = err.Error()
		r.record(entry)
		return nil, fmt.Errorf("save %s: %w", artifact, err)
	}

	decisions := knowledge.ExtractDecisionLines(result.Text)
	for _, d := range decisions {
		if err := r.store.AppendDecision(req.Project.Name, string(req.Role), d); err != nil {
			return nil, fmt.Errorf("append decision: %w", err)
		}
	}

	entry.Status = models.StepDone
	r.record(entry)

	return &StepResult{
		Artifact:  artifact,
		Output:    result.Text,
		Decisions: decisions,
		Assembly:  assembly,
		Entry:     entry,
	}, nil
}

// buildContext gathers the consumed artifacts and assembles the step context.
// The first consumed artifact is the handoff from the preceding step and gets
// the highest priority.
func (r *Runner) buildContext(project string, consumes, keywords []string, roleCfg *config.RoleConfig) assemble.Result {
	var sources []assemble.Source
	for i, name := range consumes {
		src := assemble.Source{
			Name:     name,
			Priority: len(consumes) - i,
		}
		content, err := r.store.LoadArtifact(project, name)
		if err != nil {
			src.Missing = true
		} else {
			src.Content = content
		}
		sources = append(sources, src)
	}

	budget := r.cfg.Context.TokenBudget
	if roleCfg != nil && roleCfg.TokenBudget > 0 {
		budget = roleCfg.TokenBudget
	}

	return assemble.Build(assemble.Request{
		Sources:      sources,
		Keywords:     keywords,
		Decisions:    r.store.ReadDecisions(project),
		TokenBudget:  budget,
		MaxListItems: r.cfg.Context.MaxListItems,
	})
}

// complete calls the model, re-issuing once against the fallback model when
// the primary is overloaded. That is the only retry behavior.
func (r *Runner) complete(ctx context.Context, req api.CompletionRequest) (*api.CompletionResult, error) {
	result, err := r.client.Complete(ctx, req)
	if err == nil {
		return result, nil
	}

	fallback := r.cfg.Defaults.FallbackModel
	if fallback == "" || fallback == req.Model || !api.IsOverloaded(err) {
		return nil, err
	}

	req.Model = fallback
	result, ferr := r.client.Complete(ctx, req)
	if ferr != nil {
		return nil, fmt.Errorf("fallback %s after %v: %w", fallback, err, ferr)
	}
	return result, nil
}

// record writes a history entry, ignoring the store when absent.
func (r *Runner) record(entry *models.HistoryEntry) {
	if r.history == nil {
		return
	}
	// History is best-effort; a failed write must not fail the step.
	_ = r.history.Record(entry)
}

// costOf estimates the dollar cost of one completion.
func costOf(result *api.CompletionResult) float64 {
	pricing := api.PricingFor(result.Model)
	return float64(result.InputTokens)/1_000_000*pricing.InputPerMillion +
		float64(result.OutputTokens)/1_000_000*pricing.OutputPerMillion
}

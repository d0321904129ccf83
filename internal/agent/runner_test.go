package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"claudeorchestra/internal/api"
	"claudeorchestra/internal/config"
	"claudeorchestra/internal/knowledge"
	"claudeorchestra/pkg/models"
)

// fakeCompleter is a scripted api.Completer for tests.
type fakeCompleter struct {
	responses []fakeResponse
	requests  []api.CompletionRequest
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(ctx context.Context, req api.CompletionRequest) (*api.CompletionResult, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return &api.CompletionResult{Text: "default output\n\n## Summary\n\nok\n", Model: req.Model, InputTokens: 100, OutputTokens: 50, StopReason: "end_turn"}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	if resp.err != nil {
		return nil, resp.err
	}
	return &api.CompletionResult{Text: resp.text, Model: req.Model, InputTokens: 100, OutputTokens: 50, StopReason: "end_turn"}, nil
}

func setupRunner(t *testing.T, fake *fakeCompleter) (*Runner, *knowledge.Store, *models.Project) {
	t.Helper()

	store, err := knowledge.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	project, err := store.CreateProject("proj", "a test project")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	history, err := knowledge.OpenHistory(store.HistoryDBPath("proj"))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	t.Cleanup(func() { history.Close() })

	runner := NewRunner(fake, store, history, config.Default(), nil)
	return runner, store, project
}

func TestRunStep_SavesArtifactAndHistory(t *testing.T) {
	fake := &fakeCompleter{responses: []fakeResponse{
		{text: "# Brief\n\nthe brief\n\n## Summary\n\nhandoff\n"},
	}}
	runner, store, project := setupRunner(t, fake)

	result, err := runner.RunStep(context.Background(), StepRequest{
		Project:  project,
		Role:     models.RoleAnalyst,
		StepName: "brief",
		Task:     "Analyze the project.",
	})
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}

	if result.Artifact != "brief.md" {
		t.Errorf("unexpected artifact %q", result.Artifact)
	}

	saved, err := store.LoadArtifact("proj", "brief.md")
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if !strings.Contains(saved, "the brief") {
		t.Errorf("artifact content not saved: %q", saved)
	}

	if result.Entry.Status != models.StepDone {
		t.Errorf("unexpected status %q", result.Entry.Status)
	}
	if result.Entry.InputTokens != 100 || result.Entry.OutputTokens != 50 {
		t.Errorf("unexpected token counts %d/%d", result.Entry.InputTokens, result.Entry.OutputTokens)
	}
	if result.Entry.CostUSD <= 0 {
		t.Error("expected positive cost")
	}
}

func TestRunStep_ContextCarriesPriorArtifacts(t *testing.T) {
	fake := &fakeCompleter{}
	runner, store, project := setupRunner(t, fake)

	if err := store.SaveArtifact("proj", "brief.md", "# Brief\n\nunique-brief-content\n"); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	_, err := runner.RunStep(context.Background(), StepRequest{
		Project: project,
		Role:    models.RolePM,
		Task:    "Write requirements.",
	})
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 API call, got %d", len(fake.requests))
	}
	prompt := fake.requests[0].Prompt
	if !strings.Contains(prompt, "unique-brief-content") {
		t.Error("prior artifact missing from prompt context")
	}
	if !strings.Contains(prompt, "Write requirements.") {
		t.Error("task missing from prompt")
	}
	if !strings.Contains(fake.requests[0].System, "Product Manager") {
		t.Error("expected PM system prompt")
	}
}

func TestRunStep_MissingArtifactIsNotedNotFatal(t *testing.T) {
	fake := &fakeCompleter{}
	runner, _, project := setupRunner(t, fake)

	// PM consumes brief.md, which does not exist yet.
	result, err := runner.RunStep(context.Background(), StepRequest{
		Project: project,
		Role:    models.RolePM,
		Task:    "Write requirements.",
	})
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}

	found := false
	for _, note := range result.Assembly.Notes {
		if strings.Contains(note, "brief.md") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected missing-artifact note, got %v", result.Assembly.Notes)
	}
}

func TestRunStep_EmptyOutputFailsWithoutOverwriting(t *testing.T) {
	fake := &fakeCompleter{responses: []fakeResponse{
		{text: "   \n"},
	}}
	runner, store, project := setupRunner(t, fake)

	if err := store.SaveArtifact("proj", "brief.md", "previous content"); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	_, err := runner.RunStep(context.Background(), StepRequest{
		Project: project,
		Role:    models.RoleAnalyst,
		Task:    "Analyze.",
	})
	if err == nil {
		t.Fatal("expected error for empty output")
	}

	saved, err := store.LoadArtifact("proj", "brief.md")
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if saved != "previous content" {
		t.Errorf("prior artifact was overwritten: %q", saved)
	}
}

func TestRunStep_ExtractsDecisions(t *testing.T) {
	fake := &fakeCompleter{responses: []fakeResponse{
		{text: "# Arch\n\nDECISION: use sqlite for storage\n\n## Summary\n\nok\n"},
	}}
	runner, store, project := setupRunner(t, fake)

	result, err := runner.RunStep(context.Background(), StepRequest{
		Project: project,
		Role:    models.RoleArchitect,
		Task:    "Design it.",
	})
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}

	if len(result.Decisions) != 1 || result.Decisions[0] != "use sqlite for storage" {
		t.Errorf("unexpected decisions %v", result.Decisions)
	}

	log := store.ReadDecisions("proj")
	if !strings.Contains(log, "use sqlite for storage") {
		t.Error("decision not appended to log")
	}
	if !strings.Contains(log, "[architect]") {
		t.Error("decision should carry the role as category")
	}
}

func TestRunStep_FallbackOnOverload(t *testing.T) {
	fake := &fakeCompleter{responses: []fakeResponse{
		{err: errors.New("api error: Overloaded")},
		{text: "# Brief\n\nrecovered\n"},
	}}
	runner, _, project := setupRunner(t, fake)

	result, err := runner.RunStep(context.Background(), StepRequest{
		Project: project,
		Role:    models.RoleAnalyst,
		Task:    "Analyze.",
	})
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}

	if len(fake.requests) != 2 {
		t.Fatalf("expected 2 API calls, got %d", len(fake.requests))
	}
	if fake.requests[1].Model != config.Default().Defaults.FallbackModel {
		t.Errorf("expected fallback model on retry, got %q", fake.requests[1].Model)
	}
	if !strings.Contains(result.Output, "recovered") {
		t.Error("expected fallback output")
	}
}

func TestRunStep_NoFallbackOnOtherErrors(t *testing.T) {
	fake := &fakeCompleter{responses: []fakeResponse{
		{err: errors.New("invalid request")},
	}}
	runner, _, project := setupRunner(t, fake)

	_, err := runner.RunStep(context.Background(), StepRequest{
		Project: project,
		Role:    models.RoleAnalyst,
		Task:    "Analyze.",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fake.requests) != 1 {
		t.Errorf("expected no fallback attempt, got %d calls", len(fake.requests))
	}
}

func TestRunStep_RoleConfigOverrides(t *testing.T) {
	fake := &fakeCompleter{}
	store, err := knowledge.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	project, err := store.CreateProject("proj", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	temp := 0.1
	roleCfgs := config.RoleConfigs{
		models.RoleQA: {Model: "claude-opus-4-5-20251101", Temperature: &temp, MaxTokens: 2048},
	}
	runner := NewRunner(fake, store, nil, config.Default(), roleCfgs)

	_, err = runner.RunStep(context.Background(), StepRequest{
		Project: project,
		Role:    models.RoleQA,
		Task:    "Review.",
	})
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}

	req := fake.requests[0]
	if req.Model != "claude-opus-4-5-20251101" {
		t.Errorf("role model override not applied, got %q", req.Model)
	}
	if req.Temperature != 0.1 {
		t.Errorf("role temperature override not applied, got %v", req.Temperature)
	}
	if req.MaxTokens != 2048 {
		t.Errorf("role max tokens override not applied, got %d", req.MaxTokens)
	}
}

func TestRenderTask_Placeholders(t *testing.T) {
	data := PromptData{Project: "proj", Description: "desc"}

	got, err := RenderTask("Plan {{.Project}} carefully.", data)
	if err != nil {
		t.Fatalf("RenderTask: %v", err)
	}
	if got != "Plan proj carefully." {
		t.Errorf("unexpected render %q", got)
	}

	// Plain strings pass through.
	got, err = RenderTask("no placeholders here", data)
	if err != nil {
		t.Fatalf("RenderTask: %v", err)
	}
	if got != "no placeholders here" {
		t.Errorf("unexpected passthrough %q", got)
	}
}

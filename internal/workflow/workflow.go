// Package workflow provides sequential workflow execution for ClaudeOrchestra.
//
// A workflow is a fixed, ordered list of agent invocations. The runner
// executes steps one at a time, checkpointing progress so an interrupted run
// can resume from the first incomplete step. There is no parallelism and no
// retry policy beyond the API client's single fallback-model attempt.
package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"claudeorchestra/pkg/models"
)

// Step is one agent invocation in a workflow.
type Step struct {
	// Name identifies the step within the workflow.
	Name string `yaml:"name"`
	// Role selects the agent prompt template.
	Role models.Role `yaml:"role"`
	// Task is the step's task text. Supports {{.Project}}, {{.Description}}
	// and {{.Context}} placeholders.
	Task string `yaml:"task"`
	// Artifact overrides the role's default output artifact.
	Artifact string `yaml:"artifact,omitempty"`
	// Consumes overrides the role's default input artifacts.
	Consumes []string `yaml:"consumes,omitempty"`
}

// Workflow is an ordered list of steps.
type Workflow struct {
	// Name identifies the workflow.
	Name string `yaml:"name"`
	// Description is shown in CLI listings.
	Description string `yaml:"description,omitempty"`
	// Steps run in order, one at a time.
	Steps []Step `yaml:"steps"`
}

// Validate checks the workflow for structural problems.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow has no name")
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps", w.Name)
	}

	seen := map[string]bool{}
	for i, step := range w.Steps {
		if step.Name == "" {
			return fmt.Errorf("workflow %q: step %d has no name", w.Name, i+1)
		}
		if seen[step.Name] {
			return fmt.Errorf("workflow %q: duplicate step name %q", w.Name, step.Name)
		}
		seen[step.Name] = true
		if step.Role == "" {
			return fmt.Errorf("workflow %q: step %q has no role", w.Name, step.Name)
		}
		if strings.TrimSpace(step.Task) == "" {
			return fmt.Errorf("workflow %q: step %q has no task", w.Name, step.Name)
		}
	}
	return nil
}

// StepIndex returns the position of a step by name, or -1.
func (w *Workflow) StepIndex(name string) int {
	for i, step := range w.Steps {
		if step.Name == name {
			return i
		}
	}
	return -1
}

// Default returns the built-in standard workflow:
// analyst -> pm -> architect -> developer -> qa.
func Default() *Workflow {
	return &Workflow{
		Name:        "standard",
		Description: "Brief, requirements, architecture, implementation plan, QA report",
		Steps: []Step{
			{
				Name: "brief",
				Role: models.RoleAnalyst,
				Task: "Explore the problem space for this project and write the project brief.",
			},
			{
				Name: "requirements",
				Role: models.RolePM,
				Task: "Turn the project brief into a requirements document with numbered requirements and user stories.",
			},
			{
				Name: "architecture",
				Role: models.RoleArchitect,
				Task: "Design the technical architecture that satisfies the requirements.",
			},
			{
				Name: "implementation",
				Role: models.RoleDeveloper,
				Task: "Write the implementation plan for the architecture.",
			},
			{
				Name: "qa",
				Role: models.RoleQA,
				Task: "Review the implementation plan against the requirements and write the QA report.",
			},
		},
	}
}

// Review returns the built-in review workflow: a single reviewer pass over
// all prior documents.
func Review() *Workflow {
	return &Workflow{
		Name:        "review",
		Description: "Final consistency review across all project documents",
		Steps: []Step{
			{
				Name: "review",
				Role: models.RoleReviewer,
				Task: "Review all project documents for contradictions and gaps, and give a go/no-go recommendation.",
			},
		},
	}
}

// BuiltIn returns the named built-in workflow, or nil.
func BuiltIn(name string) *Workflow {
	switch name {
	case "standard":
		return Default()
	case "review":
		return Review()
	default:
		return nil
	}
}

// LoadFromFile loads a workflow definition from a YAML file.
func LoadFromFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}

	wf := &Workflow{}
	if err := yaml.Unmarshal(data, wf); err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	if wf.Name == "" {
		wf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}

// Resolve finds a workflow by name: built-ins first, then <name>.yaml in the
// workflows directory (empty dir skips file lookup).
func Resolve(name, workflowsDir string) (*Workflow, error) {
	if wf := BuiltIn(name); wf != nil {
		return wf, nil
	}
	if workflowsDir != "" {
		path := filepath.Join(workflowsDir, name+".yaml")
		if _, err := os.Stat(path); err == nil {
			return LoadFromFile(path)
		}
	}
	return nil, fmt.Errorf("unknown workflow %q", name)
}

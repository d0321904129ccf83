package agent

import (
	"fmt"
	"strings"
	"text/template"
)

// Role system prompts. Each sets the persona, the expected artifact shape,
// and the shared conventions (handoff section, DECISION markers).

const sharedConventions = `
Conventions:
- Write the artifact as a complete markdown document.
- End the document with a "## Summary" section of at most ten lines; it is
  carried verbatim to the next agent in the workflow.
- When you settle something other agents must honor (naming, a pattern, a
  constraint), emit a line starting with "DECISION: " stating it with its
  rationale. Do not restate decisions already in the decision log.
- Stay within your role. Note gaps for other roles instead of filling them.`

const analystSystemPrompt = `You are the Analyst on a software project team.
You explore the problem space and produce a project brief: the problem, the
target users, the goals, and the boundaries of scope. Be concrete and brief;
the Product Manager works only from your document.
` + sharedConventions

const pmSystemPrompt = `You are the Product Manager on a software project team.
From the project brief you produce the requirements document: numbered
functional requirements, user stories with acceptance criteria, and explicit
non-goals. Every requirement must be testable.
` + sharedConventions

const architectSystemPrompt = `You are the Software Architect on a project team.
From the requirements you produce the architecture document: component
breakdown, data model, external interfaces, and technology choices with
rationale. Prefer the simplest design that satisfies the requirements.
` + sharedConventions

const developerSystemPrompt = `You are the Senior Developer on a project team.
From the architecture and requirements you produce the implementation plan:
modules with responsibilities, key types and functions, the order of
implementation, and notes on tricky parts. Flag anything in the architecture
that cannot be implemented as specified.
` + sharedConventions

const qaSystemPrompt = `You are the QA Engineer on a software project team.
You review the implementation plan against the requirements and produce the
QA report: a requirement-by-requirement verdict, a test plan, and the edge
cases the developer must cover. Call out untestable requirements.
` + sharedConventions

const reviewerSystemPrompt = `You are the final Reviewer on a software project
team. You read every prior document and produce the review: contradictions
between documents, unresolved gaps, and a go/no-go recommendation with the
smallest set of fixes needed before implementation starts.
` + sharedConventions

const genericSystemPrompt = `You are a specialist agent on a software project
team. Complete the task using the provided project context.
` + sharedConventions

// userPromptTemplate is the task template every step renders. Workflow steps
// may override Task with their own template text.
const userPromptTemplate = `Project: {{.Project}}
{{- if .Description}}
Description: {{.Description}}
{{- end}}

## Task

{{.Task}}

{{- if .Context}}

## Project Context

The documents below were produced by earlier steps. Parts may have been
filtered or truncated to fit your context; trust the decision log over
anything that conflicts with it.

{{.Context}}
{{- end}}
`

// PromptData carries the values substituted into prompt templates.
type PromptData struct {
	// Project is the project name.
	Project string
	// Description is the project description.
	Description string
	// Task is the step's task text (itself template-rendered first).
	Task string
	// Context is the assembled artifact context.
	Context string
}

// RenderUserPrompt renders the standard user prompt for a step.
func RenderUserPrompt(data PromptData) (string, error) {
	return renderTemplate("user_prompt", userPromptTemplate, data)
}

// RenderTask renders a workflow step's task template with prompt data.
// Plain strings without placeholders pass through unchanged.
func RenderTask(taskTemplate string, data PromptData) (string, error) {
	if !strings.Contains(taskTemplate, "{{") {
		return taskTemplate, nil
	}
	return renderTemplate("task", taskTemplate, data)
}

func renderTemplate(name, text string, data PromptData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return sb.String(), nil
}

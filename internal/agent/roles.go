// Package agent provides the role definitions and step execution for
// ClaudeOrchestra agents. Each agent is a role-specific prompt template
// paired with a thin execution wrapper around the Anthropic API.
package agent

import (
	"claudeorchestra/pkg/models"
)

// RoleSpec describes one agent role: its prompts and the artifacts it reads.
type RoleSpec struct {
	// Role is the role identifier.
	Role models.Role
	// SystemPrompt is the role persona sent as the system prompt.
	SystemPrompt string
	// Consumes lists the artifact files this role reads, in priority order
	// (most important first).
	Consumes []string
	// Keywords drive section relevance filtering during context compression.
	Keywords []string
}

// Produces returns the artifact file name this role writes.
func (r RoleSpec) Produces() string {
	return r.Role.DefaultArtifact()
}

// roleSpecs holds the built-in role definitions.
var roleSpecs = map[models.Role]RoleSpec{
	models.RoleAnalyst: {
		Role:         models.RoleAnalyst,
		SystemPrompt: analystSystemPrompt,
		Consumes:     nil,
		Keywords:     []string{"goal", "problem", "user", "scope"},
	},
	models.RolePM: {
		Role:         models.RolePM,
		SystemPrompt: pmSystemPrompt,
		Consumes:     []string{"brief.md"},
		Keywords:     []string{"goal", "requirement", "user", "story", "scope", "constraint"},
	},
	models.RoleArchitect: {
		Role:         models.RoleArchitect,
		SystemPrompt: architectSystemPrompt,
		Consumes:     []string{"requirements.md", "brief.md"},
		Keywords:     []string{"requirement", "constraint", "data", "interface", "non-functional", "scale"},
	},
	models.RoleDeveloper: {
		Role:         models.RoleDeveloper,
		SystemPrompt: developerSystemPrompt,
		Consumes:     []string{"architecture.md", "requirements.md"},
		Keywords:     []string{"component", "interface", "data", "api", "story", "implementation"},
	},
	models.RoleQA: {
		Role:         models.RoleQA,
		SystemPrompt: qaSystemPrompt,
		Consumes:     []string{"implementation.md", "requirements.md", "architecture.md"},
		Keywords:     []string{"requirement", "test", "acceptance", "edge", "risk", "story"},
	},
	models.RoleReviewer: {
		Role:         models.RoleReviewer,
		SystemPrompt: reviewerSystemPrompt,
		Consumes:     []string{"qa_report.md", "implementation.md", "architecture.md", "requirements.md", "brief.md"},
		Keywords:     []string{"summary", "risk", "gap", "inconsistency", "requirement"},
	},
}

// SpecFor returns the role spec for a role. Unknown roles get a generic spec
// so custom workflow steps still work.
func SpecFor(role models.Role) RoleSpec {
	if spec, ok := roleSpecs[role]; ok {
		return spec
	}
	return RoleSpec{
		Role:         role,
		SystemPrompt: genericSystemPrompt,
		Keywords:     []string{"summary", "requirement"},
	}
}

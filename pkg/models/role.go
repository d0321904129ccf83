// Package models contains the core domain types shared across ClaudeOrchestra.
package models

// Role identifies which specialist prompt an agent invocation uses.
type Role string

const (
	// RoleAnalyst explores the problem space and produces a project brief.
	RoleAnalyst Role = "analyst"
	// RolePM turns the brief into requirements with user stories.
	RolePM Role = "pm"
	// RoleArchitect designs the technical architecture.
	RoleArchitect Role = "architect"
	// RoleDeveloper produces the implementation plan and code notes.
	RoleDeveloper Role = "developer"
	// RoleQA reviews the output of prior steps and writes a test report.
	RoleQA Role = "qa"
	// RoleReviewer performs a final cross-document consistency review.
	RoleReviewer Role = "reviewer"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleAnalyst, RolePM, RoleArchitect, RoleDeveloper, RoleQA, RoleReviewer:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleAnalyst:
		return "Analyst"
	case RolePM:
		return "Product Manager"
	case RoleArchitect:
		return "Architect"
	case RoleDeveloper:
		return "Developer"
	case RoleQA:
		return "QA Engineer"
	case RoleReviewer:
		return "Reviewer"
	default:
		return string(r)
	}
}

// DefaultArtifact returns the artifact file name this role produces.
func (r Role) DefaultArtifact() string {
	switch r {
	case RoleAnalyst:
		return "brief.md"
	case RolePM:
		return "requirements.md"
	case RoleArchitect:
		return "architecture.md"
	case RoleDeveloper:
		return "implementation.md"
	case RoleQA:
		return "qa_report.md"
	case RoleReviewer:
		return "review.md"
	default:
		return string(r) + ".md"
	}
}

// AllRoles returns every known role in default workflow order.
func AllRoles() []Role {
	return []Role{RoleAnalyst, RolePM, RoleArchitect, RoleDeveloper, RoleQA, RoleReviewer}
}

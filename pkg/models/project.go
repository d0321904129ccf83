package models

import "time"

// Project represents one orchestrated project with its own knowledge directory.
type Project struct {
	// Name is the unique project identifier (directory-safe).
	Name string `json:"name" yaml:"name"`
	// Description is the one-line description captured at creation.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// CreatedAt is when the project was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// Path is the absolute path to the project directory on disk.
	Path string `json:"path,omitempty" yaml:"-"`
}

// Artifact describes one knowledge artifact file inside a project.
type Artifact struct {
	// Name is the file name of the artifact (e.g. requirements.md).
	Name string `json:"name"`
	// Role is the role that produced this artifact, if known.
	Role Role `json:"role,omitempty"`
	// Path is the absolute path to the artifact file.
	Path string `json:"path"`
	// Size is the artifact size in bytes.
	Size int64 `json:"size"`
	// ModifiedAt is the last modification time of the artifact file.
	ModifiedAt time.Time `json:"modified_at"`
}

// Decision is one append-only entry in a project's decision log.
type Decision struct {
	// Timestamp is when the decision was recorded.
	Timestamp time.Time `json:"timestamp"`
	// Category groups related decisions (naming, patterns, constraints).
	Category string `json:"category,omitempty"`
	// Text is the decision with its rationale.
	Text string `json:"text"`
}

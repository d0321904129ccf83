// Package knowledge provides the file-based knowledge store for ClaudeOrchestra.
// Each project is a directory under the workspace root holding markdown
// artifacts, an append-only decision log, and an invocation history database.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"claudeorchestra/pkg/models"
)

// projectMetaFile is the per-project metadata file name.
const projectMetaFile = "project.yaml"

// orchestraDir is the per-project directory for internal state (history db, signals).
const orchestraDir = ".orchestra"

var projectNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Store manages project directories under a workspace root.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory, creating it if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root is empty")
	}
	projectsDir := filepath.Join(root, "projects")
	if err := os.MkdirAll(projectsDir, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the workspace root directory.
func (s *Store) Root() string {
	return s.root
}

// ProjectPath returns the directory for a project name.
func (s *Store) ProjectPath(name string) string {
	return filepath.Join(s.root, "projects", name)
}

// HistoryDBPath returns the path to a project's history database.
func (s *Store) HistoryDBPath(name string) string {
	return filepath.Join(s.ProjectPath(name), orchestraDir, "history.db")
}

// RunStateDBPath returns the path to a project's workflow checkpoint database.
func (s *Store) RunStateDBPath(name string) string {
	return filepath.Join(s.ProjectPath(name), orchestraDir, "runs.db")
}

// ValidProjectName reports whether a name is safe to use as a directory.
func ValidProjectName(name string) bool {
	return projectNameRe.MatchString(name)
}

// CreateProject creates a new project directory with metadata.
// It fails if the project already exists.
func (s *Store) CreateProject(name, description string) (*models.Project, error) {
	if !ValidProjectName(name) {
		return nil, fmt.Errorf("invalid project name %q: use lowercase letters, digits, '.', '_' or '-'", name)
	}

	dir := s.ProjectPath(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("project %q already exists", name)
	}

	if err := os.MkdirAll(filepath.Join(dir, orchestraDir, "signals"), 0755); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}

	project := &models.Project{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Path:        dir,
	}

	if err := s.writeProjectMeta(project); err != nil {
		return nil, err
	}

	// Seed the decision log so agents always have something to read.
	if err := initDecisionLog(dir); err != nil {
		return nil, err
	}

	return project, nil
}

// GetProject loads a project by name.
func (s *Store) GetProject(name string) (*models.Project, error) {
	dir := s.ProjectPath(name)
	data, err := os.ReadFile(filepath.Join(dir, projectMetaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project %q not found", name)
		}
		return nil, fmt.Errorf("read project metadata: %w", err)
	}

	project := &models.Project{}
	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, fmt.Errorf("parse project metadata: %w", err)
	}
	project.Path = dir

	return project, nil
}

// ListProjects returns all projects in the workspace, newest first.
func (s *Store) ListProjects() ([]*models.Project, error) {
	projectsDir := filepath.Join(s.root, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}

	var projects []*models.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		project, err := s.GetProject(entry.Name())
		if err != nil {
			// Directories without metadata are not projects.
			continue
		}
		projects = append(projects, project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	return projects, nil
}

// SaveArtifact writes an artifact file atomically (temp file + rename).
// A save never leaves a partially written artifact behind.
func (s *Store) SaveArtifact(project, name, content string) error {
	if err := validArtifactName(name); err != nil {
		return err
	}

	dir := s.ProjectPath(project)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("project %q not found", project)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename artifact: %w", err)
	}

	return nil
}

// LoadArtifact reads an artifact's content.
// Returns os.ErrNotExist (wrapped) when the artifact is absent.
func (s *Store) LoadArtifact(project, name string) (string, error) {
	if err := validArtifactName(name); err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(s.ProjectPath(project), name))
	if err != nil {
		return "", fmt.Errorf("load artifact %s: %w", name, err)
	}
	return string(data), nil
}

// HasArtifact reports whether an artifact exists for the project.
func (s *Store) HasArtifact(project, name string) bool {
	if validArtifactName(name) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(s.ProjectPath(project), name))
	return err == nil
}

// ListArtifacts returns the markdown artifacts in a project, sorted by name.
func (s *Store) ListArtifacts(project string) ([]models.Artifact, error) {
	dir := s.ProjectPath(project)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	var artifacts []models.Artifact
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, models.Artifact{
			Name:       name,
			Role:       roleForArtifact(name),
			Path:       filepath.Join(dir, name),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name < artifacts[j].Name
	})

	return artifacts, nil
}

// writeProjectMeta writes project.yaml for a project.
func (s *Store) writeProjectMeta(project *models.Project) error {
	data, err := yaml.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project metadata: %w", err)
	}
	path := filepath.Join(project.Path, projectMetaFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write project metadata: %w", err)
	}
	return nil
}

// validArtifactName rejects names that would escape the project directory.
func validArtifactName(name string) error {
	if name == "" {
		return fmt.Errorf("artifact name is empty")
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || name != filepath.Base(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid artifact name %q: hidden files are reserved", name)
	}
	return nil
}

// roleForArtifact maps a known artifact file name back to the role that produces it.
func roleForArtifact(name string) models.Role {
	for _, role := range models.AllRoles() {
		if role.DefaultArtifact() == name {
			return role
		}
	}
	return ""
}

package workflow

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"claudeorchestra/pkg/models"
)

// Run represents one workflow execution with crash recovery state.
type Run struct {
	ID        string
	Project   string
	Workflow  string
	Status    string // started, completed, failed, stopped
	StartedAt time.Time
	UpdatedAt time.Time
}

// RunStore manages workflow run state for crash recovery.
type RunStore struct {
	db *sql.DB
}

// OpenRunStore opens (creating if needed) the run state database.
func OpenRunStore(dbPath string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			project TEXT,
			workflow TEXT,
			status TEXT,
			started_at DATETIME,
			updated_at DATETIME
		);
		CREATE TABLE IF NOT EXISTS run_steps (
			run_id TEXT,
			name TEXT,
			role TEXT,
			status TEXT,
			error TEXT,
			updated_at DATETIME,
			PRIMARY KEY (run_id, name)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &RunStore{db: db}, nil
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// CreateRun creates a new run with all steps pending.
func (s *RunStore) CreateRun(project string, wf *Workflow) (*Run, error) {
	now := time.Now()
	run := &Run{
		ID:        uuid.New().String(),
		Project:   project,
		Workflow:  wf.Name,
		Status:    "started",
		StartedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, project, workflow, status, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Project, run.Workflow, run.Status, run.StartedAt, run.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for _, step := range wf.Steps {
		_, err := s.db.Exec(`
			INSERT INTO run_steps (run_id, name, role, status, error, updated_at)
			VALUES (?, ?, ?, ?, '', ?)
		`, run.ID, step.Name, string(step.Role), string(models.StepPending), now)
		if err != nil {
			return nil, fmt.Errorf("insert run step: %w", err)
		}
	}

	return run, nil
}

// UpdateRunStatus sets the run status.
func (s *RunStore) UpdateRunStatus(runID, status string) error {
	result, err := s.db.Exec(`
		UPDATE runs SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// MarkStep sets one step's status (and error message for failures).
func (s *RunStore) MarkStep(runID, stepName string, status models.StepStatus, errMsg string) error {
	result, err := s.db.Exec(`
		UPDATE run_steps SET status = ?, error = ?, updated_at = ?
		WHERE run_id = ? AND name = ?
	`, string(status), errMsg, time.Now(), runID, stepName)
	if err != nil {
		return fmt.Errorf("update run step: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("step %q not found in run %s", stepName, runID)
	}
	return nil
}

// StepStatuses returns step name -> status for a run.
func (s *RunStore) StepStatuses(runID string) (map[string]models.StepStatus, error) {
	rows, err := s.db.Query(`
		SELECT name, status FROM run_steps WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run steps: %w", err)
	}
	defer rows.Close()

	statuses := map[string]models.StepStatus{}
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, fmt.Errorf("scan run step: %w", err)
		}
		statuses[name] = models.StepStatus(status)
	}

	return statuses, rows.Err()
}

// LatestIncompleteRun returns the most recent non-completed run of a workflow
// for a project, or nil when there is nothing to resume.
func (s *RunStore) LatestIncompleteRun(project, workflowName string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, project, workflow, status, started_at, updated_at
		FROM runs
		WHERE project = ? AND workflow = ? AND status != 'completed'
		ORDER BY started_at DESC
		LIMIT 1
	`, project, workflowName)

	var run Run
	err := row.Scan(&run.ID, &run.Project, &run.Workflow, &run.Status, &run.StartedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	return &run, nil
}

package knowledge

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"claudeorchestra/pkg/models"
)

// HistoryStore provides SQLite-backed storage for agent invocation history.
type HistoryStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// OpenHistory opens (creating if needed) the history database at the given path.
// WAL mode is enabled for concurrent reads.
func OpenHistory(dbPath string) (*HistoryStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &HistoryStore{
		db:     conn,
		dbPath: dbPath,
	}

	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (h *HistoryStore) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db.Close()
}

// Path returns the path to the database file.
func (h *HistoryStore) Path() string {
	return h.dbPath
}

// migrate applies all pending schema migrations.
func (h *HistoryStore) migrate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := h.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1History},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := h.db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1History = `
CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	role TEXT NOT NULL,
	step TEXT,
	model TEXT NOT NULL,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd REAL NOT NULL DEFAULT 0.0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_project ON history(project);
CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
`

// Record inserts one invocation record. A missing ID is generated.
func (h *HistoryStore) Record(entry *models.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := h.db.Exec(`
		INSERT INTO history (id, project, role, step, model, input_tokens, output_tokens, cost_usd, duration_ms, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Project, string(entry.Role), entry.Step, entry.Model,
		entry.InputTokens, entry.OutputTokens, entry.CostUSD, entry.DurationMS,
		string(entry.Status), entry.Error, formatTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}

	return nil
}

// ListRecent returns the most recent entries for a project, newest first.
func (h *HistoryStore) ListRecent(project string, limit int) ([]*models.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.Query(`
		SELECT id, project, role, step, model, input_tokens, output_tokens, cost_usd, duration_ms, status, error, created_at
		FROM history
		WHERE project = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// TotalUsage returns aggregate token counts and cost for a project.
func (h *HistoryStore) TotalUsage(project string) (input, output int64, cost float64, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	row := h.db.QueryRow(`
		SELECT COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost_usd), 0.0)
		FROM history
		WHERE project = ?
	`, project)
	if err := row.Scan(&input, &output, &cost); err != nil {
		return 0, 0, 0, fmt.Errorf("aggregate usage: %w", err)
	}

	return input, output, cost, nil
}

// PurgeOlderThan deletes entries older than the given duration.
// Returns the number of entries deleted.
func (h *HistoryStore) PurgeOlderThan(olderThan time.Duration) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := formatTime(time.Now().Add(-olderThan))
	result, err := h.db.Exec(`DELETE FROM history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return count, nil
}

// scanHistoryEntry reads one row into a HistoryEntry.
func scanHistoryEntry(rows *sql.Rows) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	var role, status, createdAt string
	var step, errMsg sql.NullString

	if err := rows.Scan(&entry.ID, &entry.Project, &role, &step, &entry.Model,
		&entry.InputTokens, &entry.OutputTokens, &entry.CostUSD, &entry.DurationMS,
		&status, &errMsg, &createdAt); err != nil {
		return nil, fmt.Errorf("scan history entry: %w", err)
	}

	entry.Role = models.Role(role)
	entry.Status = models.StepStatus(status)
	entry.Step = step.String
	entry.Error = errMsg.String

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	entry.CreatedAt = t

	return &entry, nil
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

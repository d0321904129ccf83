package knowledge

import (
	"path/filepath"
	"testing"
	"time"

	"claudeorchestra/pkg/models"
)

func newTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHistoryStore_RecordAndList(t *testing.T) {
	store := newTestHistory(t)

	entry := &models.HistoryEntry{
		Project:      "proj",
		Role:         models.RolePM,
		Step:         "requirements",
		Model:        "claude-sonnet-4-20250514",
		InputTokens:  1200,
		OutputTokens: 800,
		CostUSD:      0.0156,
		DurationMS:   4210,
		Status:       models.StepDone,
	}
	if err := store.Record(entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if entry.ID == "" {
		t.Error("expected generated ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	entries, err := store.ListRecent("proj", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.Role != models.RolePM {
		t.Errorf("unexpected role %q", got.Role)
	}
	if got.Step != "requirements" {
		t.Errorf("unexpected step %q", got.Step)
	}
	if got.InputTokens != 1200 || got.OutputTokens != 800 {
		t.Errorf("unexpected tokens %d/%d", got.InputTokens, got.OutputTokens)
	}
	if got.Status != models.StepDone {
		t.Errorf("unexpected status %q", got.Status)
	}
	if got.TotalTokens() != 2000 {
		t.Errorf("unexpected total tokens %d", got.TotalTokens())
	}
}

func TestHistoryStore_ListRecent_ScopedToProject(t *testing.T) {
	store := newTestHistory(t)

	for _, project := range []string{"a", "a", "b"} {
		err := store.Record(&models.HistoryEntry{
			Project: project,
			Role:    models.RoleDeveloper,
			Model:   "claude-sonnet-4-20250514",
			Status:  models.StepDone,
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := store.ListRecent("a", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for project a, got %d", len(entries))
	}
}

func TestHistoryStore_TotalUsage(t *testing.T) {
	store := newTestHistory(t)

	for i := 0; i < 3; i++ {
		err := store.Record(&models.HistoryEntry{
			Project:      "proj",
			Role:         models.RoleQA,
			Model:        "claude-3-5-haiku-20241022",
			InputTokens:  100,
			OutputTokens: 50,
			CostUSD:      0.01,
			Status:       models.StepDone,
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	input, output, cost, err := store.TotalUsage("proj")
	if err != nil {
		t.Fatalf("TotalUsage: %v", err)
	}
	if input != 300 || output != 150 {
		t.Errorf("unexpected totals %d/%d", input, output)
	}
	if cost < 0.029 || cost > 0.031 {
		t.Errorf("unexpected cost %v", cost)
	}
}

func TestHistoryStore_PurgeOlderThan(t *testing.T) {
	store := newTestHistory(t)

	old := &models.HistoryEntry{
		Project:   "proj",
		Role:      models.RoleAnalyst,
		Model:     "claude-sonnet-4-20250514",
		Status:    models.StepDone,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &models.HistoryEntry{
		Project: "proj",
		Role:    models.RoleAnalyst,
		Model:   "claude-sonnet-4-20250514",
		Status:  models.StepDone,
	}
	if err := store.Record(old); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if err := store.Record(recent); err != nil {
		t.Fatalf("Record recent: %v", err)
	}

	deleted, err := store.PurgeOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	entries, err := store.ListRecent("proj", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 remaining entry, got %d", len(entries))
	}
}

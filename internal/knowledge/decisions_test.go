package knowledge

import (
	"strings"
	"testing"
)

func TestAppendAndListDecisions(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateProject("proj", ""); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if err := store.AppendDecision("proj", "naming", "use snake_case for file names"); err != nil {
		t.Fatalf("AppendDecision: %v", err)
	}
	if err := store.AppendDecision("proj", "", "prefer SQLite over Postgres"); err != nil {
		t.Fatalf("AppendDecision: %v", err)
	}

	decisions, err := store.ListDecisions("proj")
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}

	if decisions[0].Category != "naming" {
		t.Errorf("unexpected category %q", decisions[0].Category)
	}
	if decisions[0].Text != "use snake_case for file names" {
		t.Errorf("unexpected text %q", decisions[0].Text)
	}
	if decisions[1].Category != "" {
		t.Errorf("expected empty category, got %q", decisions[1].Category)
	}
	if decisions[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be parsed")
	}
}

func TestAppendDecision_IsAppendOnly(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateProject("proj", ""); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	before := store.ReadDecisions("proj")
	if err := store.AppendDecision("proj", "patterns", "context builders stay pure"); err != nil {
		t.Fatalf("AppendDecision: %v", err)
	}
	after := store.ReadDecisions("proj")

	if !strings.HasPrefix(after, before) {
		t.Error("append must not rewrite existing log content")
	}
	if !strings.Contains(after, "context builders stay pure") {
		t.Error("appended decision missing from log")
	}
}

func TestReadDecisions_MissingLog(t *testing.T) {
	store := newTestStore(t)

	if got := store.ReadDecisions("no-such-project"); got != "" {
		t.Errorf("expected empty string for missing log, got %q", got)
	}
}

func TestExtractDecisionLines(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "plain marker line",
			output: "Some analysis.\nDECISION: use REST over GraphQL\nMore text.",
			want:   []string{"use REST over GraphQL"},
		},
		{
			name:   "bulleted markers",
			output: "- DECISION: keep artifacts in markdown\n* DECISION: one file per role",
			want:   []string{"keep artifacts in markdown", "one file per role"},
		},
		{
			name:   "no markers",
			output: "Nothing decided here.",
			want:   nil,
		},
		{
			name:   "empty decision dropped",
			output: "DECISION:\nDECISION:   ",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDecisionLines(tt.output)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d decisions, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("decision %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSignalManager(t *testing.T) {
	store := newTestStore(t)
	project, err := store.CreateProject("proj", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	sm, err := NewSignalManager(project.Path)
	if err != nil {
		t.Fatalf("NewSignalManager: %v", err)
	}
	defer sm.Close()

	if sm.ShouldStop() {
		t.Error("fresh manager should not report stop")
	}

	if err := sm.SendStop(); err != nil {
		t.Fatalf("SendStop: %v", err)
	}
	// ShouldStop stats the file directly, so no watcher latency to wait out.
	if !sm.ShouldStop() {
		t.Error("expected stop signal after SendStop")
	}

	sm.ClearSignals()
	if sm.ShouldStop() {
		t.Error("expected stop cleared after ClearSignals")
	}
}

func TestSignalManager_PauseDoesNotLatch(t *testing.T) {
	store := newTestStore(t)
	project, err := store.CreateProject("proj", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	sm, err := NewSignalManager(project.Path)
	if err != nil {
		t.Fatalf("NewSignalManager: %v", err)
	}
	defer sm.Close()

	if sm.ShouldPause() {
		t.Error("fresh manager should not report pause")
	}

	if err := sm.SendPause(); err != nil {
		t.Fatalf("SendPause: %v", err)
	}
	if !sm.ShouldPause() {
		t.Error("expected pause signal after SendPause")
	}
	// Pause must not affect stop.
	if sm.ShouldStop() {
		t.Error("pause signal must not report as stop")
	}

	// Removing the file resumes; no restart of the manager needed.
	sm.ClearPause()
	if sm.ShouldPause() {
		t.Error("expected pause cleared after ClearPause")
	}
}

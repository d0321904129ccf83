package assemble

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuild_AllFitsUnchanged(t *testing.T) {
	res := Build(Request{
		Sources: []Source{
			{Name: "brief.md", Content: "# Brief\n\nbuild a todo app\n", Priority: 1},
			{Name: "requirements.md", Content: "# Requirements\n\n- must persist\n", Priority: 2},
		},
		Decisions:   "# Project Decisions\n\n- 2026-01-02 10:00: use sqlite\n",
		TokenBudget: 10000,
	})

	if len(res.Included) != 2 {
		t.Fatalf("expected 2 included sources, got %v", res.Included)
	}
	// Highest priority first.
	if res.Included[0] != "requirements.md" {
		t.Errorf("expected requirements.md first, got %v", res.Included)
	}
	if len(res.Dropped) != 0 || len(res.Compressed) != 0 {
		t.Errorf("nothing should be dropped or compressed: %+v", res)
	}
	if !strings.Contains(res.Context, "build a todo app") {
		t.Error("brief content missing from context")
	}
	if !strings.Contains(res.Context, "use sqlite") {
		t.Error("decision log missing from context")
	}
	if res.EstimatedTokens != EstimateTokens(res.Context) {
		t.Error("estimate must match context")
	}
}

func TestBuild_MissingArtifactBecomesNote(t *testing.T) {
	res := Build(Request{
		Sources: []Source{
			{Name: "brief.md", Content: "# Brief\n\nshort\n", Priority: 2},
			{Name: "architecture.md", Missing: true, Priority: 1},
		},
		TokenBudget: 10000,
	})

	if len(res.Included) != 1 {
		t.Fatalf("expected 1 included source, got %v", res.Included)
	}
	found := false
	for _, note := range res.Notes {
		if strings.Contains(note, "architecture.md") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected note about missing artifact, got %v", res.Notes)
	}
	if !strings.Contains(res.Context, "architecture.md not available yet") {
		t.Error("missing-artifact note should appear in the context")
	}
}

func TestBuild_ListTruncationUnderPressure(t *testing.T) {
	var items strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&items, "- story number %d with some padding text\n", i)
	}
	doc := "# Stories\n\n" + items.String()

	res := Build(Request{
		Sources:      []Source{{Name: "stories.md", Content: doc, Priority: 1}},
		TokenBudget:  500,
		MaxListItems: 5,
	})

	if len(res.Compressed) != 1 || res.Compressed[0] != "stories.md" {
		t.Errorf("expected stories.md compressed, got %v", res.Compressed)
	}
	if !strings.Contains(res.Context, "story number 199") {
		t.Error("last list items should survive")
	}
	if strings.Contains(res.Context, "story number 0 ") {
		t.Error("early list items should be gone")
	}
	if res.EstimatedTokens > 500+20 {
		t.Errorf("context exceeds budget: %d tokens", res.EstimatedTokens)
	}
}

func TestBuild_RelevanceFilteringKeepsMatchingSections(t *testing.T) {
	big := strings.Repeat("irrelevant filler text ", 200)
	doc := "# Doc\n\n" + big + "\n\n## Testing Strategy\n\nuse table tests\n\n## Deployment\n\n" + big + "\n"

	res := Build(Request{
		Sources:     []Source{{Name: "architecture.md", Content: doc, Priority: 1}},
		Keywords:    []string{"testing"},
		TokenBudget: 400,
	})

	if !strings.Contains(res.Context, "use table tests") {
		t.Error("matching section must survive filtering")
	}
	if strings.Contains(res.Context, "## Deployment") {
		t.Error("non-matching section should be filtered out")
	}
	if len(res.Compressed) == 0 {
		t.Error("source should be marked compressed")
	}
}

func TestBuild_HandoffSectionAlwaysCarried(t *testing.T) {
	big := strings.Repeat("padding ", 400)
	doc := "# Doc\n\n" + big + "\n\n## Summary\n\nhand this off\n"

	res := Build(Request{
		Sources:     []Source{{Name: "implementation.md", Content: doc, Priority: 9}},
		Keywords:    []string{"nomatch"},
		TokenBudget: 200,
	})

	if !strings.Contains(res.Context, "hand this off") {
		t.Error("handoff section of the top source must survive")
	}
}

func TestBuild_DropsLowestPriorityFirst(t *testing.T) {
	big := strings.Repeat("word ", 500)

	res := Build(Request{
		Sources: []Source{
			{Name: "low.md", Content: "# Low\n\n" + big, Priority: 1},
			{Name: "mid.md", Content: "# Mid\n\n" + big, Priority: 5},
			{Name: "top.md", Content: "# Top\n\nkeep me\n", Priority: 9},
		},
		TokenBudget: 700,
	})

	if len(res.Dropped) == 0 {
		t.Fatal("expected at least one dropped source")
	}
	if res.Dropped[0] != "low.md" {
		t.Errorf("expected low.md dropped first, got %v", res.Dropped)
	}
	if !strings.Contains(res.Context, "keep me") {
		t.Error("top priority source must never be dropped")
	}
	for _, note := range res.Notes {
		if strings.Contains(note, "low.md") {
			return
		}
	}
	t.Errorf("expected a note about the dropped artifact, got %v", res.Notes)
}

func TestBuild_HardTruncateAsLastResort(t *testing.T) {
	big := strings.Repeat("unbreakable text without sections ", 500)

	res := Build(Request{
		Sources:     []Source{{Name: "wall.md", Content: big, Priority: 1}},
		TokenBudget: 100,
	})

	if res.EstimatedTokens > 130 {
		t.Errorf("expected hard truncation near budget, got %d tokens", res.EstimatedTokens)
	}
	found := false
	for _, note := range res.Notes {
		if strings.Contains(note, "hard-truncated") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected hard truncation note, got %v", res.Notes)
	}
}

func TestBuild_HardTruncateKeepsHandoff(t *testing.T) {
	// A single source whose body alone blows the budget: the cut lands on the
	// document tail, where the summary lives.
	body := strings.Repeat("- the system shall do another thing in detail\n", 200)
	content := "# Requirements\n\n" + body + "\n## Summary\n\nHand this design brief to the architect.\n"

	res := Build(Request{
		Sources:     []Source{{Name: "requirements.md", Content: content, Priority: 1}},
		Keywords:    []string{"requirements"},
		TokenBudget: 300,
	})

	if !strings.Contains(res.Context, "Hand this design brief to the architect.") {
		t.Fatalf("summary section lost under hard truncation; notes=%v", res.Notes)
	}
	if !strings.Contains(res.Context, "truncated") {
		t.Error("expected a truncation marker in the context")
	}
	if res.EstimatedTokens > 330 {
		t.Errorf("expected hard truncation near budget, got %d tokens", res.EstimatedTokens)
	}
}

func TestBuild_HardTruncateOversizedHandoff(t *testing.T) {
	// A handoff bigger than the whole budget cannot be carried; the plain
	// truncation path applies.
	content := "## Summary\n\n" + strings.Repeat("very long handoff ", 200)

	res := Build(Request{
		Sources:     []Source{{Name: "brief.md", Content: content, Priority: 1}},
		Keywords:    []string{"zzz"},
		TokenBudget: 50,
	})

	if res.EstimatedTokens > 80 {
		t.Errorf("expected truncation near budget, got %d tokens", res.EstimatedTokens)
	}
}

func TestSortByPriority_StableForTies(t *testing.T) {
	sources := []Source{
		{Name: "a.md", Priority: 1},
		{Name: "b.md", Priority: 2},
		{Name: "c.md", Priority: 1},
		{Name: "d.md", Priority: 1},
	}

	sortByPriority(sources)

	want := []string{"b.md", "a.md", "c.md", "d.md"}
	for i, name := range want {
		if sources[i].Name != name {
			t.Fatalf("position %d = %s, want %s", i, sources[i].Name, name)
		}
	}
}

func TestBuild_NeverErrors(t *testing.T) {
	// Degenerate inputs still produce a context.
	res := Build(Request{TokenBudget: 10})
	if res.Context == "" && len(res.Included) != 0 {
		t.Error("empty request should produce empty-but-valid result")
	}

	res = Build(Request{
		Sources:     []Source{{Name: "only.md", Content: "content", Priority: 1}},
		TokenBudget: 0,
	})
	if len(res.Included) != 1 {
		t.Errorf("zero budget still includes the top source, got %v", res.Included)
	}
}

func TestFilterRelevant_NoMatchReturnsOriginal(t *testing.T) {
	doc := "# A\n\nbody\n\n## B\n\nmore\n"
	if got := FilterRelevant(doc, []string{"zzz"}, false); got != doc {
		t.Error("no-match filtering must return the original document")
	}
}

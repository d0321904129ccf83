package assemble

import (
	"strings"
	"testing"
)

func TestTruncateLists_KeepsLastItems(t *testing.T) {
	doc := `## Stories

- story 1
- story 2
- story 3
- story 4
- story 5
- story 6
- story 7

done`

	got := TruncateLists(doc, 5)

	if strings.Contains(got, "story 1") || strings.Contains(got, "story 2") {
		t.Error("expected earliest items to be dropped")
	}
	for _, item := range []string{"story 3", "story 4", "story 5", "story 6", "story 7"} {
		if !strings.Contains(got, item) {
			t.Errorf("expected %q to survive", item)
		}
	}
	if !strings.Contains(got, "2 earlier items omitted") {
		t.Error("expected elision marker")
	}
	if !strings.Contains(got, "done") {
		t.Error("trailing content must survive")
	}
}

func TestTruncateLists_ShortListUnchanged(t *testing.T) {
	doc := "- a\n- b\n- c\n"
	if got := TruncateLists(doc, 5); got != doc {
		t.Errorf("short list should be unchanged, got %q", got)
	}
}

func TestTruncateLists_NumberedList(t *testing.T) {
	doc := "1. one\n2. two\n3. three\n4. four\n"
	got := TruncateLists(doc, 2)

	if strings.Contains(got, "1. one") {
		t.Error("expected first numbered item dropped")
	}
	if !strings.Contains(got, "4. four") {
		t.Error("expected last numbered item kept")
	}
	if !strings.Contains(got, "2 earlier items omitted") {
		t.Error("expected elision marker")
	}
}

func TestTruncateLists_ContinuationLinesStayWithItem(t *testing.T) {
	doc := "- item 1\n  detail 1\n- item 2\n  detail 2\n- item 3\n  detail 3\n"
	got := TruncateLists(doc, 2)

	if strings.Contains(got, "detail 1") {
		t.Error("dropped item's continuation must be dropped too")
	}
	if !strings.Contains(got, "detail 2") || !strings.Contains(got, "detail 3") {
		t.Error("kept items must keep their continuation lines")
	}
}

func TestTruncateLists_MultipleLists(t *testing.T) {
	doc := "- a1\n- a2\n- a3\n\ntext\n\n- b1\n- b2\n- b3\n"
	got := TruncateLists(doc, 2)

	if strings.Contains(got, "a1") || strings.Contains(got, "b1") {
		t.Error("both lists should be trimmed independently")
	}
	if !strings.Contains(got, "a3") || !strings.Contains(got, "b3") {
		t.Error("both lists should keep their tails")
	}
}

func TestTruncateLists_IgnoresCodeFences(t *testing.T) {
	doc := "```\n- not 1\n- not 2\n- not 3\n- not 4\n- not 5\n- not 6\n```\n"
	if got := TruncateLists(doc, 2); got != doc {
		t.Errorf("fenced list should be unchanged:\n%s", got)
	}
}

func TestTruncateLists_Disabled(t *testing.T) {
	doc := strings.Repeat("- item\n", 20)
	if got := TruncateLists(doc, 0); got != doc {
		t.Error("maxItems=0 should disable trimming")
	}
}

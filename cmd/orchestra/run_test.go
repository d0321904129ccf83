package main

import (
	"strings"
	"testing"

	"claudeorchestra/internal/api"
)

func TestSessionUsageLine(t *testing.T) {
	tracker := api.NewTokenTracker()

	if got := sessionUsageLine(tracker); got != "" {
		t.Errorf("expected empty line before any calls, got %q", got)
	}
	if got := sessionUsageLine(nil); got != "" {
		t.Errorf("expected empty line for nil tracker, got %q", got)
	}

	tracker.SetModel("claude-sonnet-4-20250514")
	tracker.Add(1000, 300)
	tracker.Add(500, 200)

	got := sessionUsageLine(tracker)
	if !strings.HasPrefix(got, "Session API usage: 2 calls, 1,500 in / 500 out tokens") {
		t.Errorf("unexpected usage line %q", got)
	}
	if !strings.Contains(got, "$") {
		t.Errorf("usage line missing cost: %q", got)
	}
}

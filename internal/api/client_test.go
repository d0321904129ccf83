package api

import (
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestTokenTracker_Add(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	tracker.Add(200, 75)

	input, output := tracker.Total()
	if input != 300 {
		t.Errorf("expected 300 input tokens, got %d", input)
	}
	if output != 125 {
		t.Errorf("expected 125 output tokens, got %d", output)
	}
	if tracker.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", tracker.Calls())
	}
}

func TestTokenTracker_Reset(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(1000, 500)

	tracker.Reset()

	input, output := tracker.Total()
	if input != 0 || output != 0 {
		t.Errorf("expected zero tokens after reset, got %d/%d", input, output)
	}
	if tracker.Calls() != 0 {
		t.Errorf("expected zero calls after reset, got %d", tracker.Calls())
	}
}

func TestTokenTracker_Cost(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.SetModel("claude-sonnet-4-20250514")
	tracker.Add(1_000_000, 1_000_000)

	cost := tracker.Cost()
	// Sonnet: $3/1M input + $15/1M output
	if cost != 18.0 {
		t.Errorf("expected cost 18.0, got %v", cost)
	}
}

func TestPricingFor(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		wantInput float64
	}{
		{"sonnet", "claude-sonnet-4-20250514", 3.00},
		{"haiku", "claude-3-5-haiku-20241022", 0.80},
		{"opus", "claude-opus-4-5-20251101", 15.00},
		{"bedrock profile name", "us.anthropic.claude-sonnet-4-20250514-v1:0", 3.00},
		{"unknown falls back to sonnet rates", "claude-future-99", 3.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PricingFor(tt.model)
			if p.InputPerMillion != tt.wantInput {
				t.Errorf("PricingFor(%q).InputPerMillion = %v, want %v", tt.model, p.InputPerMillion, tt.wantInput)
			}
		})
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	want := anthropic.Model("us.anthropic.claude-sonnet-4-20250514-v1:0")
	if got != want {
		t.Errorf("translateModelForBedrock = %q, want %q", got, want)
	}

	// Unknown models pass through unchanged.
	custom := anthropic.Model("my-custom-model")
	if translateModelForBedrock(custom) != custom {
		t.Error("expected unknown model to pass through")
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("expected error when no API key is available")
	}
}

func TestIsOverloaded(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"overloaded message", errors.New("api error: Overloaded"), true},
		{"rate limit message", errors.New("rate limit exceeded"), true},
		{"status 529", errors.New("unexpected status 529"), true},
		{"unrelated error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverloaded(tt.err); got != tt.want {
				t.Errorf("IsOverloaded(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

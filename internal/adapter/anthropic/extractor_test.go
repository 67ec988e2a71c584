package anthropic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/planvault/planvault/internal/config"
	"github.com/planvault/planvault/internal/port/extractor"
	"github.com/planvault/planvault/internal/resilience"
)

const validResponse = `{
	"name": "Outbox relay",
	"description": "move events out of the monolith",
	"items": [
		{"order": 1, "description": "add the outbox table", "status": "pending"},
		{"order": 2, "description": "write the relay loop"}
	],
	"citations": [{"source": "docs/outbox.md", "note": "pattern"}]
}`

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain json", validResponse, false},
		{"json fence", "```json\n" + validResponse + "\n```", false},
		{"bare fence", "```\n" + validResponse + "\n```", false},
		{"leading whitespace", "\n\n  " + validResponse, false},
		{"not json", "Sure! Here is the extracted document: ...", true},
		{"truncated json", validResponse[:40], true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, err := parseCandidate(tt.raw)
			if tt.wantErr {
				var xe *extractor.Error
				if !errors.As(err, &xe) {
					t.Fatalf("expected *extractor.Error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if cand.Name != "Outbox relay" || len(cand.Items) != 2 {
				t.Fatalf("candidate decoded wrong: %+v", cand)
			}
		})
	}
}

func TestValidateCandidate(t *testing.T) {
	valid := func() *extractor.Candidate {
		return &extractor.Candidate{
			Name: "Plan",
			Items: []extractor.CandidateItem{
				{Order: 1, Description: "a", Status: "pending"},
				{Order: 2, Description: "b"},
			},
			Citations: []extractor.Citation{{Source: "docs/a.md"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*extractor.Candidate)
		reason string // substring of the expected reason, "" for valid
	}{
		{"valid", func(c *extractor.Candidate) {}, ""},
		{"missing name", func(c *extractor.Candidate) { c.Name = "  " }, "missing a name"},
		{"no items", func(c *extractor.Candidate) { c.Items = nil }, "no items"},
		{"blank item description", func(c *extractor.Candidate) { c.Items[1].Description = "" }, "missing a description"},
		{"zero order", func(c *extractor.Candidate) { c.Items[0].Order = 0 }, "non-positive order"},
		{"negative order", func(c *extractor.Candidate) { c.Items[0].Order = -3 }, "non-positive order"},
		{"repeated order", func(c *extractor.Candidate) { c.Items[1].Order = 1 }, "repeats order"},
		{"invalid status", func(c *extractor.Candidate) { c.Items[0].Status = "done" }, "invalid status"},
		{"citation without source", func(c *extractor.Candidate) { c.Citations[0].Source = " " }, "missing a source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := validateCandidate(c)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("expected valid candidate, got %v", err)
				}
				return
			}
			var xe *extractor.Error
			if !errors.As(err, &xe) {
				t.Fatalf("expected *extractor.Error, got %v", err)
			}
			if !strings.Contains(xe.Reason, tt.reason) {
				t.Fatalf("expected reason containing %q, got %q", tt.reason, xe.Reason)
			}
		})
	}
}

func TestExtractRejectsBadInputWithoutCalling(t *testing.T) {
	e := New(config.Anthropic{Model: "claude-sonnet-4-20250514", MaxTokens: 1024, MaxInputBytes: 64})

	// The breaker records every attempted call; it staying closed with zero
	// failures proves no network call was made.
	b := resilience.NewBreaker(1, time.Minute)
	e.SetBreaker(b)

	for _, text := range []string{"", "   \n\t", strings.Repeat("x", 65)} {
		_, err := e.Extract(context.Background(), text)
		var xe *extractor.Error
		if !errors.As(err, &xe) {
			t.Fatalf("input %q: expected *extractor.Error, got %v", text, err)
		}
	}
	if b.State() != resilience.StateClosed {
		t.Error("breaker tripped: rejected input must not reach the call path")
	}
}

func TestExtractOpenBreakerShortCircuits(t *testing.T) {
	e := New(config.Anthropic{Model: "claude-sonnet-4-20250514", MaxTokens: 1024})

	b := resilience.NewBreaker(1, time.Minute)
	// Trip the breaker out of band.
	_ = b.Execute(func() error { return errors.New("boom") })
	e.SetBreaker(b)

	_, err := e.Extract(context.Background(), "# a plan")
	var xe *extractor.Error
	if !errors.As(err, &xe) {
		t.Fatalf("expected *extractor.Error, got %v", err)
	}
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen in the chain, got %v", err)
	}
}

func TestBuildPromptEmbedsDocument(t *testing.T) {
	p := buildPrompt("# My Plan\n\ncontent")
	if !strings.Contains(p, "# My Plan") {
		t.Error("document text missing from prompt")
	}
	if !strings.Contains(p, "JSON") {
		t.Error("prompt does not pin the JSON-only response contract")
	}
}

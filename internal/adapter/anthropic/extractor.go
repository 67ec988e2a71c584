// Package anthropic implements the record extraction port against the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	pvotel "github.com/planvault/planvault/internal/adapter/otel"
	"github.com/planvault/planvault/internal/config"
	"github.com/planvault/planvault/internal/domain/item"
	"github.com/planvault/planvault/internal/port/extractor"
	"github.com/planvault/planvault/internal/resilience"
)

// Extractor turns raw document text into a validated candidate record via
// one model call. The call is non-deterministic; the adapter never retries
// and never mutates a malformed response into a usable one.
type Extractor struct {
	client        anthropic.Client
	model         anthropic.Model
	maxTokens     int64
	maxInputBytes int
	breaker       *resilience.Breaker
}

// New creates an extractor from config. The API key comes from config,
// which in turn honors ANTHROPIC_API_KEY.
func New(cfg config.Anthropic) *Extractor {
	return &Extractor{
		client:        anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:         anthropic.Model(cfg.Model),
		maxTokens:     int64(cfg.MaxTokens),
		maxInputBytes: cfg.MaxInputBytes,
	}
}

// SetBreaker attaches a circuit breaker to the external call.
func (e *Extractor) SetBreaker(b *resilience.Breaker) {
	e.breaker = b
}

// Extract implements extractor.Extractor. Oversized input is rejected
// before any network contact.
func (e *Extractor) Extract(ctx context.Context, text string) (*extractor.Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &extractor.Error{Reason: "document text is empty"}
	}
	if e.maxInputBytes > 0 && len(text) > e.maxInputBytes {
		return nil, &extractor.Error{
			Reason: fmt.Sprintf("document text exceeds %d bytes", e.maxInputBytes),
		}
	}

	ctx, span := pvotel.StartExtractionSpan(ctx, string(e.model))
	defer span.End()

	raw, err := e.call(ctx, text)
	if err != nil {
		span.RecordError(err)
		return nil, &extractor.Error{Reason: "model call failed", Err: err}
	}

	cand, err := parseCandidate(raw)
	if err != nil {
		return nil, err
	}
	if err := validateCandidate(cand); err != nil {
		return nil, err
	}
	return cand, nil
}

func (e *Extractor) call(ctx context.Context, text string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(text))),
		},
	}

	var raw string
	call := func() error {
		message, err := e.client.Messages.New(ctx, params)
		if err != nil {
			return err
		}
		if len(message.Content) == 0 {
			return fmt.Errorf("response has no content blocks")
		}
		content := message.Content[0]
		if content.Type != "text" {
			return fmt.Errorf("response is not a text block (type=%s)", content.Type)
		}
		raw = content.Text
		return nil
	}

	if e.breaker != nil {
		if err := e.breaker.Execute(call); err != nil {
			return "", err
		}
		return raw, nil
	}
	if err := call(); err != nil {
		return "", err
	}
	return raw, nil
}

// parseCandidate decodes the model's JSON response. Models occasionally
// wrap JSON in a markdown fence; the fence is stripped, nothing else is.
func parseCandidate(raw string) (*extractor.Candidate, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var cand extractor.Candidate
	if err := json.Unmarshal([]byte(s), &cand); err != nil {
		return nil, &extractor.Error{Reason: "response is not valid JSON", Err: err}
	}
	return &cand, nil
}

// validateCandidate enforces the same structural rules the schema registry
// applies to direct writes. A violation surfaces the candidate as
// malformed; it is never silently corrected.
func validateCandidate(c *extractor.Candidate) error {
	if strings.TrimSpace(c.Name) == "" {
		return &extractor.Error{Reason: "candidate is missing a name"}
	}
	if len(c.Items) == 0 {
		return &extractor.Error{Reason: "candidate has no items"}
	}

	seen := make(map[int]bool, len(c.Items))
	for i, it := range c.Items {
		if strings.TrimSpace(it.Description) == "" {
			return &extractor.Error{Reason: fmt.Sprintf("item %d is missing a description", i)}
		}
		if it.Order <= 0 {
			return &extractor.Error{Reason: fmt.Sprintf("item %d has non-positive order %d", i, it.Order)}
		}
		if seen[it.Order] {
			return &extractor.Error{Reason: fmt.Sprintf("item %d repeats order %d", i, it.Order)}
		}
		seen[it.Order] = true
		if it.Status != "" && !item.Status(it.Status).Valid() {
			return &extractor.Error{Reason: fmt.Sprintf("item %d has invalid status %q", i, it.Status)}
		}
	}

	for i, cit := range c.Citations {
		if strings.TrimSpace(cit.Source) == "" {
			return &extractor.Error{Reason: fmt.Sprintf("citation %d is missing a source", i)}
		}
	}
	return nil
}

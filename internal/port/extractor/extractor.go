// Package extractor defines the record extraction port (interface).
package extractor

import (
	"context"
	"fmt"
)

// Candidate is the structured record an extraction produces from raw
// document text. It mirrors the document fields plus candidate items; its
// shape is validated by the adapter before it is returned, so a non-nil
// Candidate always satisfies the structural rules.
type Candidate struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Goal            string          `json:"goal"`
	Rationale       []string        `json:"rationale"`
	Body            string          `json:"body"`
	SuccessCriteria []string        `json:"success_criteria"`
	Citations       []Citation      `json:"citations"`
	ProjectTree     string          `json:"project_tree"`
	FileTree        string          `json:"file_tree"`
	Caveats         string          `json:"caveats"`
	Items           []CandidateItem `json:"items"`
}

// Citation is one reference entry in a candidate's context metadata.
type Citation struct {
	Source string `json:"source"`
	Note   string `json:"note"`
}

// CandidateItem is one actionable unit proposed by the extraction.
type CandidateItem struct {
	Order       int    `json:"order"`
	Description string `json:"description"`
	TargetPath  string `json:"target_path"`
	PatternRef  string `json:"pattern_ref"`
	Pseudocode  string `json:"pseudocode"`
	Status      string `json:"status"`
}

// Extractor turns raw document text into a candidate structured record.
// The call is non-deterministic and fallible: two extractions of identical
// input may differ, and no invariant may depend on them agreeing. Callers
// must not retry automatically.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Candidate, error)
}

// Error reports a failed or malformed extraction. A malformed response is
// surfaced as-is, never coerced into a usable candidate.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction: %s: %v", e.Reason, e.Err)
	}
	return "extraction: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

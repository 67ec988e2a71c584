// Package document defines the Document Record domain entity.
package document

import (
	"time"

	"github.com/planvault/planvault/internal/domain/item"
)

// Citation is one reference entry in a document's context block.
type Citation struct {
	Source string `json:"source"`
	Note   string `json:"note,omitempty"`
}

// ContextBlock holds the reference and background metadata attached to a
// document: ordered citations, two tree snapshots, and known caveats.
// A document may carry one block per category.
type ContextBlock struct {
	DocumentID  string     `json:"document_id"`
	Category    string     `json:"category"`
	Citations   []Citation `json:"citations,omitempty"`
	ProjectTree string     `json:"project_tree,omitempty"`
	FileTree    string     `json:"file_tree,omitempty"`
	Caveats     string     `json:"caveats,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Document represents one parsed planning document. ID and CreatedBy are
// immutable once set.
type Document struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Goal            string         `json:"goal,omitempty"`
	Rationale       []string       `json:"rationale,omitempty"`
	Body            string         `json:"body,omitempty"`
	SuccessCriteria []string       `json:"success_criteria,omitempty"`
	Context         []ContextBlock `json:"context,omitempty"`
	Items           []item.Item    `json:"items,omitempty"`
	CreatedBy       string         `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CreateRequest holds everything needed to persist a document atomically
// with its items and context block. Documents are only created through the
// extract-and-save flow, never authored directly over the CRUD surface.
type CreateRequest struct {
	Name            string
	Description     string
	Goal            string
	Rationale       []string
	Body            string
	SuccessCriteria []string
	Context         ContextBlock
	Items           []item.CreateRequest
	CreatedBy       string
}

// Page selects a slice of a document listing.
type Page struct {
	Limit  int
	Offset int
}

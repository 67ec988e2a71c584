// Package item defines the Item Record domain entity.
package item

import (
	"time"

	"github.com/planvault/planvault/internal/domain/tag"
)

// Status represents the current state of an item. The set is closed;
// transitions are unconstrained but always explicit.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status value.
func Statuses() []string {
	return []string{string(StatusPending), string(StatusInProgress), string(StatusCompleted)}
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Item represents one actionable unit of work owned by a document.
// Order values need not be contiguous but must be comparable for stable sort.
// Deletion is a tombstone (DeletedAt), never physical removal.
type Item struct {
	ID          string         `json:"id"`
	DocumentID  string         `json:"document_id"`
	Order       int            `json:"order"`
	Description string         `json:"description"`
	TargetPath  string         `json:"target_path,omitempty"`
	PatternRef  string         `json:"pattern_ref,omitempty"`
	Pseudocode  string         `json:"pseudocode,omitempty"`
	Status      Status         `json:"status"`
	Info        map[string]any `json:"info,omitempty"`
	Tags        []tag.Tag      `json:"tags,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// CreateRequest holds the fields needed to create a new item.
type CreateRequest struct {
	DocumentID  string `json:"document_id"`
	Order       int    `json:"order"`
	Description string `json:"description"`
	TargetPath  string `json:"target_path,omitempty"`
	PatternRef  string `json:"pattern_ref,omitempty"`
	Pseudocode  string `json:"pseudocode,omitempty"`
	Status      Status `json:"status"`
}

// UpdateRequest holds a field-level update. Nil pointers leave the field
// unchanged. ExpectedUpdatedAt carries the optimistic timestamp check: the
// update applies only if the stored row still has this modification time.
type UpdateRequest struct {
	ID                string
	ExpectedUpdatedAt time.Time
	Order             *int
	Description       *string
	TargetPath        *string
	PatternRef        *string
	Pseudocode        *string
	Status            *Status
}

// Filter selects items for listing. Zero values mean "no constraint".
// Tombstoned items are excluded unless IncludeDeleted is set.
type Filter struct {
	DocumentID     string
	Status         Status
	Tag            string
	Query          string
	CreatedAfter   time.Time
	CreatedBefore  time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// Package tag defines the Tag domain entity and its associations.
package tag

import "time"

// Tag is a named label attachable to documents or items. Name uniqueness is
// case-sensitive and enforced at creation time. Deleting a tag detaches it
// from its associations; it never cascades into the tagged records.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest holds the fields needed to create a new tag.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	CreatedBy   string `json:"created_by"`
}

// SearchResult groups the records associated with one tag.
type SearchResult struct {
	Tag         Tag      `json:"tag"`
	ItemIDs     []string `json:"item_ids"`
	DocumentIDs []string `json:"document_ids"`
}

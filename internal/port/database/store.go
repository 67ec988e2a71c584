// Package database defines the persistence gateway port (interface).
package database

import (
	"context"

	"github.com/planvault/planvault/internal/domain/document"
	"github.com/planvault/planvault/internal/domain/item"
	"github.com/planvault/planvault/internal/domain/tag"
)

// Store is the port interface for the persistence gateway. Every method is
// one scoped unit of work: implementations acquire a pooled connection, run
// a transaction where more than one statement is involved, and release the
// connection on every exit path. Identifiers passed in must already have
// passed schema validation; implementations only ever bind them as query
// parameters.
type Store interface {
	// Ping reports whether the store can currently serve a query. Backs
	// the readiness endpoint.
	Ping(ctx context.Context) error

	// Documents
	CreateDocumentWithItems(ctx context.Context, req document.CreateRequest) (*document.Document, error)
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	ListDocuments(ctx context.Context, page document.Page) ([]document.Document, error)
	UpsertContext(ctx context.Context, block document.ContextBlock) (*document.ContextBlock, error)
	GetContext(ctx context.Context, documentID, category string) ([]document.ContextBlock, error)

	// Items
	CreateItem(ctx context.Context, req item.CreateRequest) (*item.Item, error)
	GetItem(ctx context.Context, id string) (*item.Item, error)
	ListItems(ctx context.Context, f item.Filter) ([]item.Item, error)
	UpdateItem(ctx context.Context, req item.UpdateRequest) (*item.Item, error)
	SoftDeleteItem(ctx context.Context, id string) error
	MergeItemInfo(ctx context.Context, id string, info map[string]any) (*item.Item, error)

	// Tags and associations
	CreateTag(ctx context.Context, req tag.CreateRequest) (*tag.Tag, error)
	ListTags(ctx context.Context) ([]tag.Tag, error)
	TagItem(ctx context.Context, itemID, tagRef string) error
	UntagItem(ctx context.Context, itemID, tagRef string) error
	TagDocument(ctx context.Context, documentID, tagRef string) error
	SearchByTag(ctx context.Context, tagRef string) (*tag.SearchResult, error)
}

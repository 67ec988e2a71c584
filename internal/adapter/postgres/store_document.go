package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/planvault/planvault/internal/domain/document"
	"github.com/planvault/planvault/internal/domain/item"
)

const documentColumns = `id, name, description, goal, rationale, body, success_criteria, created_by, created_at, updated_at`

func scanDocument(row scannable) (document.Document, error) {
	var d document.Document
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.Goal, &d.Rationale,
		&d.Body, &d.SuccessCriteria, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// CreateDocumentWithItems inserts a document, its context block, and its
// items in one transaction. All-or-nothing: if any item insert fails, the
// document insert is rolled back too, so a document with a partial item
// set is never visible.
func (s *Store) CreateDocumentWithItems(ctx context.Context, req document.CreateRequest) (*document.Document, error) {
	var doc document.Document

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO documents (name, description, goal, rationale, body, success_criteria, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+documentColumns,
			req.Name, req.Description, req.Goal, orEmpty(req.Rationale),
			req.Body, orEmpty(req.SuccessCriteria), req.CreatedBy)

		var err error
		doc, err = scanDocument(row)
		if err != nil {
			return wrapErr(err, "insert document")
		}

		block := req.Context
		block.DocumentID = doc.ID
		if block.Category == "" {
			block.Category = "general"
		}
		saved, err := upsertContextTx(ctx, tx, block)
		if err != nil {
			return err
		}
		doc.Context = []document.ContextBlock{*saved}

		for i := range req.Items {
			req.Items[i].DocumentID = doc.ID
			it, err := insertItemTx(ctx, tx, req.Items[i])
			if err != nil {
				return wrapErr(err, "insert item %d", req.Items[i].Order)
			}
			doc.Items = append(doc.Items, *it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument fetches one document with its context blocks and live items.
func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, wrapErr(err, "get document %s", id)
	}

	blocks, err := s.GetContext(ctx, id, "")
	if err != nil {
		return nil, err
	}
	doc.Context = blocks

	items, err := s.ListItems(ctx, item.Filter{DocumentID: id})
	if err != nil {
		return nil, err
	}
	doc.Items = items

	return &doc, nil
}

// ListDocuments returns a page of documents, newest first, without their
// items or context blocks.
func (s *Store) ListDocuments(ctx context.Context, page document.Page) ([]document.Document, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		 ORDER BY created_at DESC, id
		 LIMIT $1 OFFSET $2`, limit, page.Offset)
	if err != nil {
		return nil, wrapErr(err, "list documents")
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return orEmpty(docs), rows.Err()
}

// UpsertContext creates or replaces a document's context block for one
// category. A missing document surfaces as not found.
func (s *Store) UpsertContext(ctx context.Context, block document.ContextBlock) (*document.ContextBlock, error) {
	var saved *document.ContextBlock
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		saved, err = upsertContextTx(ctx, tx, block)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func upsertContextTx(ctx context.Context, tx pgx.Tx, block document.ContextBlock) (*document.ContextBlock, error) {
	citations, err := json.Marshal(orEmpty(block.Citations))
	if err != nil {
		return nil, fmt.Errorf("marshal citations: %w", err)
	}
	if block.Category == "" {
		block.Category = "general"
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO document_context (document_id, category, citations, project_tree, file_tree, caveats)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (document_id, category) DO UPDATE SET
		   citations = EXCLUDED.citations,
		   project_tree = EXCLUDED.project_tree,
		   file_tree = EXCLUDED.file_tree,
		   caveats = EXCLUDED.caveats,
		   updated_at = now()
		 RETURNING updated_at`,
		block.DocumentID, block.Category, citations,
		block.ProjectTree, block.FileTree, block.Caveats)

	if err := row.Scan(&block.UpdatedAt); err != nil {
		return nil, wrapErr(err, "upsert context for document %s", block.DocumentID)
	}
	return &block, nil
}

// GetContext fetches context blocks by document id, category, or both.
// Callers guarantee at least one selector is set.
func (s *Store) GetContext(ctx context.Context, documentID, category string) ([]document.ContextBlock, error) {
	q := `SELECT document_id, category, citations, project_tree, file_tree, caveats, updated_at
	      FROM document_context WHERE 1=1`
	var args []any
	if documentID != "" {
		args = append(args, documentID)
		q += fmt.Sprintf(" AND document_id = $%d", len(args))
	}
	if category != "" {
		args = append(args, category)
		q += fmt.Sprintf(" AND category = $%d", len(args))
	}
	q += " ORDER BY document_id, category"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, wrapErr(err, "get context")
	}
	defer rows.Close()

	var blocks []document.ContextBlock
	for rows.Next() {
		var b document.ContextBlock
		var citations []byte
		if err := rows.Scan(&b.DocumentID, &b.Category, &citations,
			&b.ProjectTree, &b.FileTree, &b.Caveats, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		if err := json.Unmarshal(citations, &b.Citations); err != nil {
			return nil, fmt.Errorf("unmarshal citations: %w", err)
		}
		blocks = append(blocks, b)
	}
	return orEmpty(blocks), rows.Err()
}

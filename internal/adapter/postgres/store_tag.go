package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/planvault/planvault/internal/domain"
	"github.com/planvault/planvault/internal/domain/tag"
)

const tagColumns = `id, name, description, color, created_by, created_at`

func scanTag(row scannable) (tag.Tag, error) {
	var t tag.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Color, &t.CreatedBy, &t.CreatedAt)
	return t, err
}

// CreateTag inserts a tag. Name uniqueness is case-sensitive and enforced
// by the store; a taken name surfaces as duplicate.
func (s *Store) CreateTag(ctx context.Context, req tag.CreateRequest) (*tag.Tag, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tags (name, description, color, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+tagColumns,
		req.Name, req.Description, req.Color, req.CreatedBy)

	t, err := scanTag(row)
	if err != nil {
		return nil, wrapErr(err, "create tag %q", req.Name)
	}
	return &t, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]tag.Tag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err, "list tags")
	}
	defer rows.Close()

	var tags []tag.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return orEmpty(tags), rows.Err()
}

// resolveTag returns the tag id for a reference that is either a tag id or
// an exact (case-sensitive) tag name.
func resolveTag(ctx context.Context, q querier, ref string) (string, error) {
	var query string
	if isUUID(ref) {
		query = `SELECT id FROM tags WHERE id = $1`
	} else {
		query = `SELECT id FROM tags WHERE name = $1`
	}
	var id string
	if err := q.QueryRow(ctx, query, ref).Scan(&id); err != nil {
		return "", wrapErr(err, "resolve tag %q", ref)
	}
	return id, nil
}

// TagItem associates an item with a tag (by id or name). Re-tagging an
// already-tagged item is a no-op success.
func (s *Store) TagItem(ctx context.Context, itemID, tagRef string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tagID, err := resolveTag(ctx, tx, tagRef)
		if err != nil {
			return err
		}

		var live bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1 AND deleted_at IS NULL)`,
			itemID).Scan(&live); err != nil {
			return wrapErr(err, "tag item %s", itemID)
		}
		if !live {
			return fmt.Errorf("tag item %s: %w", itemID, domain.ErrNotFound)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO item_tags (item_id, tag_id) VALUES ($1, $2)
			 ON CONFLICT (item_id, tag_id) DO NOTHING`, itemID, tagID)
		if err != nil {
			return wrapErr(err, "tag item %s", itemID)
		}
		return nil
	})
}

// UntagItem removes an item/tag association. A missing association is not
// an error; a missing tag is.
func (s *Store) UntagItem(ctx context.Context, itemID, tagRef string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tagID, err := resolveTag(ctx, tx, tagRef)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`DELETE FROM item_tags WHERE item_id = $1 AND tag_id = $2`, itemID, tagID)
		if err != nil {
			return wrapErr(err, "untag item %s", itemID)
		}
		return nil
	})
}

// TagDocument associates a document with a tag (by id or name).
func (s *Store) TagDocument(ctx context.Context, documentID, tagRef string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tagID, err := resolveTag(ctx, tx, tagRef)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO document_tags (document_id, tag_id) VALUES ($1, $2)
			 ON CONFLICT (document_id, tag_id) DO NOTHING`, documentID, tagID)
		if err != nil {
			return wrapErr(err, "tag document %s", documentID)
		}
		return nil
	})
}

// SearchByTag lists the live items and the documents associated with a tag
// referenced by id or name.
func (s *Store) SearchByTag(ctx context.Context, tagRef string) (*tag.SearchResult, error) {
	tagID, err := resolveTag(ctx, s.pool, tagRef)
	if err != nil {
		return nil, err
	}

	t, err := scanTag(s.pool.QueryRow(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = $1`, tagID))
	if err != nil {
		return nil, wrapErr(err, "search by tag %q", tagRef)
	}
	result := &tag.SearchResult{Tag: t, ItemIDs: []string{}, DocumentIDs: []string{}}

	rows, err := s.pool.Query(ctx,
		`SELECT i.id FROM items i
		 JOIN item_tags a ON a.item_id = i.id
		 WHERE a.tag_id = $1 AND i.deleted_at IS NULL
		 ORDER BY i.ord, i.id`, tagID)
	if err != nil {
		return nil, wrapErr(err, "search items by tag %q", tagRef)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		result.ItemIDs = append(result.ItemIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docRows, err := s.pool.Query(ctx,
		`SELECT d.id FROM documents d
		 JOIN document_tags a ON a.document_id = d.id
		 WHERE a.tag_id = $1
		 ORDER BY d.created_at DESC, d.id`, tagID)
	if err != nil {
		return nil, wrapErr(err, "search documents by tag %q", tagRef)
	}
	defer docRows.Close()
	for docRows.Next() {
		var id string
		if err := docRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		result.DocumentIDs = append(result.DocumentIDs, id)
	}
	return result, docRows.Err()
}

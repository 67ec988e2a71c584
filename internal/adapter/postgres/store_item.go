package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/planvault/planvault/internal/domain"
	"github.com/planvault/planvault/internal/domain/item"
)

const itemColumns = `id, document_id, ord, description, target_path, pattern_ref, pseudocode, status, info, created_at, updated_at, deleted_at`

func scanItem(row scannable) (item.Item, error) {
	var it item.Item
	var info []byte
	err := row.Scan(
		&it.ID, &it.DocumentID, &it.Order, &it.Description, &it.TargetPath,
		&it.PatternRef, &it.Pseudocode, &it.Status, &info,
		&it.CreatedAt, &it.UpdatedAt, &it.DeletedAt,
	)
	if err != nil {
		return it, err
	}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &it.Info); err != nil {
			return it, fmt.Errorf("unmarshal item info: %w", err)
		}
	}
	return it, nil
}

func insertItemTx(ctx context.Context, tx pgx.Tx, req item.CreateRequest) (*item.Item, error) {
	status := req.Status
	if status == "" {
		status = item.StatusPending
	}
	row := tx.QueryRow(ctx,
		`INSERT INTO items (document_id, ord, description, target_path, pattern_ref, pseudocode, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+itemColumns,
		req.DocumentID, req.Order, req.Description,
		req.TargetPath, req.PatternRef, req.Pseudocode, string(status))

	it, err := scanItem(row)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateItem inserts one item under an existing document. A missing
// document surfaces as not found; a taken order as duplicate.
func (s *Store) CreateItem(ctx context.Context, req item.CreateRequest) (*item.Item, error) {
	var it *item.Item
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		it, err = insertItemTx(ctx, tx, req)
		if err != nil {
			return wrapErr(err, "create item under document %s", req.DocumentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

// GetItem fetches one item with its tags. Tombstoned items are reachable
// by direct identifier so audit history stays inspectable.
func (s *Store) GetItem(ctx context.Context, id string) (*item.Item, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		return nil, wrapErr(err, "get item %s", id)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.name, t.description, t.color, t.created_by, t.created_at
		 FROM tags t
		 JOIN item_tags a ON a.tag_id = t.id
		 WHERE a.item_id = $1
		 ORDER BY t.name`, id)
	if err != nil {
		return nil, wrapErr(err, "get item %s tags", id)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		it.Tags = append(it.Tags, t)
	}
	return &it, rows.Err()
}

// buildItemFilter renders the WHERE clause and arguments for a filter.
// Only placeholders are bound; caller input never reaches the query text.
func buildItemFilter(f item.Filter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any

	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if !f.IncludeDeleted {
		clauses = append(clauses, "i.deleted_at IS NULL")
	}
	if f.DocumentID != "" {
		add("i.document_id = $%d", f.DocumentID)
	}
	if f.Status != "" {
		add("i.status = $%d", string(f.Status))
	}
	if f.Query != "" {
		add("i.description ILIKE '%%' || $%d || '%%'", f.Query)
	}
	if !f.CreatedAfter.IsZero() {
		add("i.created_at > $%d", f.CreatedAfter)
	}
	if !f.CreatedBefore.IsZero() {
		add("i.created_at < $%d", f.CreatedBefore)
	}
	if f.Tag != "" {
		if isUUID(f.Tag) {
			add("EXISTS (SELECT 1 FROM item_tags a WHERE a.item_id = i.id AND a.tag_id = $%d)", f.Tag)
		} else {
			add("EXISTS (SELECT 1 FROM item_tags a JOIN tags t ON t.id = a.tag_id WHERE a.item_id = i.id AND t.name = $%d)", f.Tag)
		}
	}

	return strings.Join(clauses, " AND "), args
}

// ListItems returns a filtered, paginated page of items. Ordering by
// (ord, id) keeps fixed-filter pages disjoint and order-consistent.
func (s *Store) ListItems(ctx context.Context, f item.Filter) ([]item.Item, error) {
	where, args := buildItemFilter(f)

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, f.Offset)
	limitClause += fmt.Sprintf(" OFFSET $%d", len(args))

	q := `SELECT ` + prefixColumns("i", itemColumns) + ` FROM items i WHERE ` + where +
		` ORDER BY i.ord, i.id` + limitClause

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, wrapErr(err, "list items")
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return orEmpty(items), rows.Err()
}

// UpdateItem applies a field-level update guarded by the optimistic
// timestamp check. A stale timestamp on a live row is a conflict; a
// missing or tombstoned row is not found (a concurrent soft delete loses
// the race as not found, never as a silent resurrect).
func (s *Store) UpdateItem(ctx context.Context, req item.UpdateRequest) (*item.Item, error) {
	var updated *item.Item

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		set := []string{"updated_at = now()"}
		args := []any{req.ID, req.ExpectedUpdatedAt}
		add := func(column string, v any) {
			args = append(args, v)
			set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
		}
		if req.Order != nil {
			add("ord", *req.Order)
		}
		if req.Description != nil {
			add("description", *req.Description)
		}
		if req.TargetPath != nil {
			add("target_path", *req.TargetPath)
		}
		if req.PatternRef != nil {
			add("pattern_ref", *req.PatternRef)
		}
		if req.Pseudocode != nil {
			add("pseudocode", *req.Pseudocode)
		}
		if req.Status != nil {
			add("status", string(*req.Status))
		}

		q := `UPDATE items SET ` + strings.Join(set, ", ") +
			` WHERE id = $1 AND updated_at = $2 AND deleted_at IS NULL RETURNING ` + itemColumns

		it, err := scanItem(tx.QueryRow(ctx, q, args...))
		if err == nil {
			updated = &it
			return nil
		}
		if classified := classify(err); classified != domain.ErrNotFound {
			return wrapErr(err, "update item %s", req.ID)
		}

		// Zero rows matched: distinguish stale timestamp from gone.
		var live bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1 AND deleted_at IS NULL)`,
			req.ID).Scan(&live); err != nil {
			return wrapErr(err, "update item %s", req.ID)
		}
		if live {
			return fmt.Errorf("update item %s: %w", req.ID, domain.ErrConflict)
		}
		return fmt.Errorf("update item %s: %w", req.ID, domain.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDeleteItem tombstones an item. Deleting an already-deleted item is a
// no-op success and keeps the original tombstone timestamp; the row is
// never physically removed.
func (s *Store) SoftDeleteItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET deleted_at = COALESCE(deleted_at, now()) WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "delete item %s", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// MergeItemInfo merges the given keys into the item's attribute bag.
// Existing keys not named are preserved; the bag is never replaced
// wholesale.
func (s *Store) MergeItemInfo(ctx context.Context, id string, info map[string]any) (*item.Item, error) {
	patch, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal info: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE items SET info = info || $2::jsonb, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+itemColumns, id, patch)

	it, err := scanItem(row)
	if err != nil {
		return nil, wrapErr(err, "merge info into item %s", id)
	}
	return &it, nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

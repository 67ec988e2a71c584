// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested record does not exist (or is tombstoned).
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (stale timestamp).
var ErrConflict = errors.New("conflict: record was modified by another request")

// ErrDuplicate indicates a uniqueness constraint violation (e.g. tag name).
var ErrDuplicate = errors.New("duplicate: record already exists")

// ErrUnavailable indicates the store could not be reached or the pool is
// exhausted. Callers may retry.
var ErrUnavailable = errors.New("store temporarily unavailable")

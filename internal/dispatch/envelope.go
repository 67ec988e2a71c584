package dispatch

import (
	"context"
	"errors"

	"github.com/planvault/planvault/internal/domain"
	"github.com/planvault/planvault/internal/policy"
	"github.com/planvault/planvault/internal/port/extractor"
	"github.com/planvault/planvault/internal/schema"
)

// Envelope is the uniform result wrapper returned by every operation.
// On failure, Message comes from a closed set of user-facing strings and
// CorrelationID keys the server-side log entry holding the internal detail.
type Envelope struct {
	OK            bool   `json:"ok"`
	Data          any    `json:"data,omitempty"`
	ErrorKind     string `json:"errorKind,omitempty"`
	Message       string `json:"message,omitempty"`
	Details       any    `json:"details,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Error kinds surfaced to callers. Persistence failures are split into
// not_found / conflict / duplicate / unavailable so callers can decide
// whether a retry makes sense.
const (
	KindValidation    = "validation"
	KindAuthorization = "authorization"
	KindExtraction    = "extraction"
	KindNotFound      = "not_found"
	KindConflict      = "conflict"
	KindDuplicate     = "duplicate"
	KindUnavailable   = "unavailable"
	KindInternal      = "internal"
)

// messages is the closed set of user-facing error strings. Raw driver or
// vendor error text never crosses the dispatcher boundary.
var messages = map[string]string{
	KindValidation:    "invalid arguments",
	KindAuthorization: "insufficient permissions",
	KindExtraction:    "document extraction failed",
	KindNotFound:      "record not found",
	KindConflict:      "record was modified concurrently",
	KindDuplicate:     "record already exists",
	KindUnavailable:   "temporarily unavailable, retry later",
	KindInternal:      "internal error",
}

// classify rolls an operation failure into the error taxonomy. Anything
// unrecognized is internal.
func classify(err error) string {
	var ve *schema.ValidationError
	var xe *extractor.Error
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.Is(err, policy.ErrDenied):
		return KindAuthorization
	case errors.As(err, &xe):
		return KindExtraction
	case errors.Is(err, domain.ErrNotFound):
		return KindNotFound
	case errors.Is(err, domain.ErrConflict):
		return KindConflict
	case errors.Is(err, domain.ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindUnavailable
	default:
		return KindInternal
	}
}

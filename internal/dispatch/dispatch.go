// Package dispatch implements the operation dispatcher: the state machine
// that takes (operation name, raw arguments, identity) through validation,
// authorization, execution, and envelope shaping, terminal on first failure.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	pvotel "github.com/planvault/planvault/internal/adapter/otel"
	"github.com/planvault/planvault/internal/domain/identity"
	"github.com/planvault/planvault/internal/logger"
	"github.com/planvault/planvault/internal/policy"
	"github.com/planvault/planvault/internal/schema"
)

// Handler executes the body of one operation with validated arguments.
type Handler func(ctx context.Context, args schema.Args, id identity.Identity) (any, error)

// Dispatcher routes named operations through schema validation, the
// authorization policy, and the registered operation body. Validation
// always precedes authorization, which always precedes any side effect:
// a denied or invalid call never reaches the store or the extractor.
type Dispatcher struct {
	registry *schema.Registry
	policy   *policy.Policy
	handlers map[string]Handler
	log      *slog.Logger
	timeout  time.Duration
	metrics  *pvotel.Metrics
}

// New creates a dispatcher. Operation bodies are attached with Register.
func New(registry *schema.Registry, pol *policy.Policy, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		policy:   pol,
		handlers: make(map[string]Handler),
		log:      log,
	}
}

// Register attaches the body for an operation name.
func (d *Dispatcher) Register(operation string, h Handler) {
	d.handlers[operation] = h
}

// SetTimeout bounds every operation body with a deadline. The deadline
// covers the wait for a pooled connection, so a saturated pool surfaces as
// an unavailable envelope instead of a call that never returns.
func (d *Dispatcher) SetTimeout(t time.Duration) {
	d.timeout = t
}

// SetMetrics attaches metric instruments. A nil Metrics (the default)
// disables recording.
func (d *Dispatcher) SetMetrics(m *pvotel.Metrics) {
	d.metrics = m
}

// Operations returns the names with a registered schema.
func (d *Dispatcher) Operations() []string {
	return d.registry.Operations()
}

// Dispatch runs one invocation to a terminal envelope. It never panics
// outward and never returns raw internal error text. A correlation id is
// minted per invocation and travels on the context, so every log record
// and span below this point carries it.
func (d *Dispatcher) Dispatch(ctx context.Context, operation string, raw map[string]any, id identity.Identity) Envelope {
	cid := uuid.NewString()
	ctx = logger.WithCorrelationID(ctx, cid)

	ctx, span := pvotel.StartOperationSpan(ctx, operation, cid)
	defer span.End()

	if d.metrics != nil {
		d.metrics.OpsStarted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation)))
	}
	start := time.Now()

	env := d.run(ctx, operation, raw, id, cid)

	if d.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("operation", operation))
		if env.OK {
			d.metrics.OpsSucceeded.Add(ctx, 1, attrs)
		} else {
			d.metrics.OpsFailed.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("error_kind", env.ErrorKind)))
		}
		d.metrics.OpDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	if !env.OK {
		span.SetStatus(codes.Error, env.ErrorKind)
	}
	return env
}

// run is the validation → authorization → body pipeline.
func (d *Dispatcher) run(ctx context.Context, operation string, raw map[string]any, id identity.Identity, cid string) Envelope {
	args, err := d.registry.Validate(operation, raw)
	if err != nil {
		var ve *schema.ValidationError
		env := d.failure(ctx, operation, err, cid)
		if errors.As(err, &ve) {
			env.Details = ve.Fields
		}
		return env
	}

	if err := d.policy.Authorize(operation, id); err != nil {
		return d.failure(ctx, operation, err, cid)
	}

	h, ok := d.handlers[operation]
	if !ok {
		return d.failure(ctx, operation, errors.New("no handler registered for "+operation), cid)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	data, err := h(ctx, args, id)
	if err != nil {
		return d.failure(ctx, operation, err, cid)
	}
	return Envelope{OK: true, Data: data}
}

// failure shapes any error into a sanitized envelope and logs the internal
// detail. The correlation id reaches the log record through the context,
// not an explicit attribute.
func (d *Dispatcher) failure(ctx context.Context, operation string, err error, cid string) Envelope {
	kind := classify(err)
	trace.SpanFromContext(ctx).RecordError(err)

	switch kind {
	case KindValidation, KindAuthorization:
		d.log.DebugContext(ctx, "operation rejected",
			"operation", operation, "error_kind", kind, "error", err)
	default:
		d.log.ErrorContext(ctx, "operation failed",
			"operation", operation, "error_kind", kind, "error", err)
	}

	return Envelope{
		ErrorKind:     kind,
		Message:       messages[kind],
		CorrelationID: cid,
	}
}

package shell

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AntonStoeckl/library-inventory/core"
)

const (
	// OperationDurationMetric tracks the execution duration of service operations (OpenTelemetry-compatible).
	OperationDurationMetric = "inventory_operation_duration_seconds"

	// OperationCallsMetric tracks total service operation calls.
	OperationCallsMetric = "inventory_operation_calls_total"

	// OperationRetriesMetric tracks retry attempts caused by concurrency conflicts.
	//
	// Labels:
	//   - operation: the operation being retried (e.g., "authority.rent")
	//   - attempt_number: which retry attempt (1, 2, 3, 4, 5)
	//   - error_type: category of error causing retry
	OperationRetriesMetric = "inventory_operation_retries_total"

	// OperationRetryDelayMetric tracks backoff delays before retries.
	OperationRetryDelayMetric = "inventory_operation_retry_delay_seconds"

	// OperationMaxRetriesReachedMetric tracks when max retries are exhausted.
	OperationMaxRetriesReachedMetric = "inventory_operation_max_retries_reached_total"

	// StatusSuccess indicates successful completion.
	StatusSuccess = "success"

	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"

	// StatusRejected indicates a business rule rejected the operation.
	StatusRejected = "rejected"

	// StatusError indicates a technical failure.
	StatusError = "error"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	// StatusConcurrencyConflict indicates the operation failed due to optimistic concurrency control.
	StatusConcurrencyConflict = "concurrency_conflict"

	// LogAttrOperation is the log attribute key for the operation name.
	LogAttrOperation = "operation"

	// LogAttrStatus is the log attribute key for the outcome status.
	LogAttrStatus = "status"

	// LogAttrError is the log attribute key for errors.
	LogAttrError = "error"

	// LogAttrErrorKind is the log attribute key for the error taxonomy kind.
	LogAttrErrorKind = "error_kind"

	// LogAttrDurationMS is the log attribute key for durations in milliseconds.
	LogAttrDurationMS = "duration_ms"

	// LogAttrItemID is the log attribute key for catalog item IDs.
	LogAttrItemID = "item_id"

	// LogAttrBranchID is the log attribute key for branch IDs.
	LogAttrBranchID = "branch_id"

	// LogAttrUserID is the log attribute key for user IDs.
	LogAttrUserID = "user_id"

	// LogAttrEntryID is the log attribute key for ledger entry IDs.
	LogAttrEntryID = "entry_id"

	logMsgOperationCompleted = "operation completed"
	logMsgOperationRejected  = "operation rejected"
	logMsgOperationFailed    = "operation failed"
	spanAttrErrorKind        = "error.kind"
)

// ErrIdempotentOperation is returned by an observed function to signal an idempotent no-op.
// Observe records it with StatusIdempotent and returns nil to the caller.
var ErrIdempotentOperation = errors.New("idempotent operation - no state change needed")

// Observability bundles the optional observability collaborators of a component.
// All fields may be nil.
type Observability struct {
	Logger           Logger
	ContextualLogger ContextualLogger
	Metrics          MetricsCollector
	Tracing          TracingCollector
}

// Observe runs fn inside a span, records duration and call count labeled with the outcome,
// and logs the outcome. The error of fn is returned unchanged, except ErrIdempotentOperation which becomes nil.
func (o Observability) Observe(
	ctx context.Context,
	operation string,
	attrs map[string]string,
	fn func(ctx context.Context) error,
) error {
	spanCtx := ctx
	var span SpanContext

	if o.Tracing != nil {
		spanCtx, span = o.Tracing.StartSpan(ctx, operation, attrs)
	}

	start := time.Now()
	err := fn(spanCtx)
	duration := time.Since(start)

	status := StatusFor(err)
	if status == StatusIdempotent {
		err = nil
	}

	labels := map[string]string{LogAttrOperation: operation, LogAttrStatus: status}
	o.recordDuration(spanCtx, OperationDurationMetric, duration, labels)
	o.incrementCounter(spanCtx, OperationCallsMetric, labels)

	args := []any{LogAttrOperation, operation, LogAttrStatus, status, LogAttrDurationMS, DurationToMilliseconds(duration)}
	for key, val := range attrs {
		args = append(args, key, val)
	}

	switch status {
	case StatusSuccess, StatusIdempotent:
		o.Info(spanCtx, logMsgOperationCompleted, args...)
	case StatusRejected:
		o.Info(spanCtx, logMsgOperationRejected, append(args, LogAttrErrorKind, core.KindOf(err).String(), LogAttrError, err.Error())...)
	default:
		o.Error(spanCtx, logMsgOperationFailed, append(args, LogAttrErrorKind, core.KindOf(err).String(), LogAttrError, err.Error())...)
	}

	if span != nil {
		finishAttrs := map[string]string{}
		if err != nil {
			finishAttrs[spanAttrErrorKind] = core.KindOf(err).String()
		}
		o.Tracing.FinishSpan(span, spanStatusFor(status), finishAttrs)
	}

	return err
}

// StatusFor maps an operation error onto a metrics/logging status.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrIdempotentOperation):
		return StatusIdempotent
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, core.ErrConcurrencyConflict):
		return StatusConcurrencyConflict
	case errors.Is(err, core.ErrLedgerAhead):
		return StatusError
	}

	switch core.KindOf(err) {
	case core.KindNotFound,
		core.KindInvalidState,
		core.KindReservationConflict,
		core.KindAlreadyExtended,
		core.KindQuotaExceeded,
		core.KindForbidden,
		core.KindInvalidArgument:
		return StatusRejected
	default:
		return StatusError
	}
}

func spanStatusFor(status string) string {
	switch status {
	case StatusSuccess, StatusIdempotent, StatusRejected:
		return "ok"
	case StatusCanceled:
		return "cancelled"
	case StatusTimeout:
		return "timeout"
	case StatusConcurrencyConflict:
		return "conflict"
	default:
		return "error"
	}
}

// Debug logs at debug level, preferring the contextual logger.
func (o Observability) Debug(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}
}

// Info logs at info level, preferring the contextual logger.
func (o Observability) Info(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if o.Logger != nil {
		o.Logger.Info(msg, args...)
	}
}

// Warn logs at warn level, preferring the contextual logger.
func (o Observability) Warn(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if o.Logger != nil {
		o.Logger.Warn(msg, args...)
	}
}

// Error logs at error level, preferring the contextual logger.
func (o Observability) Error(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if o.Logger != nil {
		o.Logger.Error(msg, args...)
	}
}

// RecordValue records a gauge value if a metrics collector is configured.
func (o Observability) RecordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	o.Metrics.RecordValue(metric, value, labels)
}

func (o Observability) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	o.Metrics.RecordDuration(metric, duration, labels)
}

func (o Observability) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.Metrics == nil {
		return
	}

	if contextual, ok := o.Metrics.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.Metrics.IncrementCounter(metric, labels)
}

// DurationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func DurationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

package logging

import "context"

// Context keys for run correlation
type contextKey string

const (
	runIDKey   contextKey = "run_id"
	traceIDKey contextKey = "trace_id"
)

// RunIDKey returns the context key for the agent run ID.
// Use this to correlate all log lines of one analysis run:
//
//	ctx := context.WithValue(ctx, logging.RunIDKey(), runID)
func RunIDKey() interface{} {
	return runIDKey
}

// TraceIDKey returns the context key for an external trace ID.
func TraceIDKey() interface{} {
	return traceIDKey
}

// extractContextFields extracts run_id and trace_id from context if present.
// Returns nil if context is nil or carries neither.
func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	fields := make(map[string]interface{})

	if runID := ctx.Value(runIDKey); runID != nil {
		fields["run_id"] = runID
	}

	if traceID := ctx.Value(traceIDKey); traceID != nil {
		fields["trace_id"] = traceID
	}

	if len(fields) == 0 {
		return nil
	}

	return fields
}

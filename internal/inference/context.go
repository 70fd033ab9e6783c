package inference

import (
	"context"

	"github.com/example/leafscan/internal/logging"
)

type contextKey string

const dispatchKey contextKey = "inferenceDispatch"

// WithDispatch tags ctx so client logs and errors carry the dispatch's id and generation.
func WithDispatch(ctx context.Context, d logging.Dispatch) context.Context {
	return context.WithValue(ctx, dispatchKey, d)
}

// DispatchFromContext returns the value set by WithDispatch, or the zero Dispatch.
func DispatchFromContext(ctx context.Context) logging.Dispatch {
	if ctx == nil {
		return logging.Dispatch{}
	}
	d, _ := ctx.Value(dispatchKey).(logging.Dispatch)
	return d
}

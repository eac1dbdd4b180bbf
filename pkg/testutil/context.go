// Package testutil provides shared helpers for service and store tests.
package testutil

import (
	"context"
	"time"

	"lingap/pkg/requestcontext"
)

// AdminContext returns a context carrying a typical acting administrator,
// the shape the session collaborator injects in production.
func AdminContext() context.Context {
	ctx := requestcontext.WithActor(context.Background(), "admin-1", "MSWDO Staff", "admin")
	ctx = requestcontext.WithClientIP(ctx, "10.0.0.5")
	return requestcontext.WithRequestID(ctx, "req-test")
}

// ContextAt pins the request-scoped clock so timestamp assertions are
// deterministic.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(AdminContext(), t)
}

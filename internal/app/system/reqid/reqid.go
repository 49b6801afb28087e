// Package reqid tags each request with an id that follows it into logs and
// audit events.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header carries the id in requests and responses.
const Header = "X-Request-ID"

type ctxKey struct{}

// Middleware reuses an incoming X-Request-ID or generates a new one, stores
// it in the request context, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

// WithID returns ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id, or "" outside a request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

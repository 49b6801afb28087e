// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Write sends {"error": msg, "kind": kind} with status.
func Write(w http.ResponseWriter, status int, kind, msg string) {
	httpjson.Write(w, status, errorBody{Error: msg, Kind: kind})
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusNotFound, "not_found", "route not found")
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, KindBadRequest, "method not allowed")
}

// Unauthorized answers requests that need a signed-in user.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusUnauthorized, KindUnauthorized, "authentication required")
}

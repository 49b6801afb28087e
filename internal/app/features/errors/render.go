// internal/app/features/errors/render.go
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/reqid"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"go.uber.org/zap"
)

// Kinds reported in error bodies that are not engine kinds.
const (
	KindUnauthorized = "unauthorized"
	KindBadRequest   = "bad_request"
	KindInternal     = "internal"
	KindTimeout      = "timeout"
)

// StatusFor maps an engine error kind to its HTTP status.
func StatusFor(k taskengine.Kind) int {
	switch k {
	case taskengine.KindNotFound:
		return http.StatusNotFound
	case taskengine.KindForbidden:
		return http.StatusForbidden
	case taskengine.KindInvalidState:
		return http.StatusConflict
	case taskengine.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Render writes err as a JSON error body. Engine errors keep their reason;
// anything else is logged and reported as a bare 500 so storage details do
// not reach the client.
func Render(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var de *taskengine.Error
	if stderrors.As(err, &de) {
		Write(w, StatusFor(de.Kind), de.Kind.String(), de.Reason)
		return
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		Write(w, http.StatusGatewayTimeout, KindTimeout, "request timed out")
		return
	}
	if log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", reqid.FromContext(r.Context())),
			zap.Error(err))
	}
	Write(w, http.StatusInternalServerError, KindInternal, "internal server error")
}

// BadRequest reports a malformed request: unparsable JSON, a bad ID in the
// path, and the like.
func BadRequest(w http.ResponseWriter, msg string) {
	Write(w, http.StatusBadRequest, KindBadRequest, msg)
}

// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"

	apperrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the task endpoints. Every decision is made by the engine;
// handlers only translate between JSON and engine calls.
type Handler struct {
	Engine *taskengine.Engine
	Log    *zap.Logger
}

// NewHandler constructs a tasks Handler.
func NewHandler(eng *taskengine.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: eng,
		Log:    logger,
	}
}

// call carries the per-request values every endpoint needs.
type call struct {
	ctx    context.Context
	actor  primitive.ObjectID
	cancel context.CancelFunc
}

// begin resolves the actor and opens a bounded context. It writes the
// response and returns ok=false when the request cannot proceed.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request, op string) (call, bool) {
	_, actor, ok := authz.UserCtx(r)
	if !ok {
		apperrors.Unauthorized(w, r)
		return call{}, false
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
	return call{ctx: ctx, actor: actor, cancel: cancel}, true
}

// pathID parses the named chi URL parameter as an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := httpjson.ObjectID(name, chi.URLParam(r, name))
	if err != nil {
		apperrors.BadRequest(w, err.Error())
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.Render(w, r, h.Log, err)
}

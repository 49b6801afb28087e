// internal/app/features/groups/handler.go
package groups

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

// Handler is the shared dependency container for the groups feature.
type Handler struct {
	Engine *taskengine.Engine
	Log    *zap.Logger
}

// NewHandler constructs a groups Handler. It is called from bootstrap
// once the engine has been assembled.
func NewHandler(eng *taskengine.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: eng,
		Log:    logger,
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	_, id, ok := authz.UserCtx(r)
	if !ok {
		apperrors.Unauthorized(w, r)
	}
	return id, ok
}

func (h *Handler) ctx(r *http.Request, op string) (context.Context, context.CancelFunc) {
	return timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, op)
}

func groupID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := httpjson.ObjectID("groupID", chi.URLParam(r, "groupID"))
	if err != nil {
		apperrors.BadRequest(w, err.Error())
		return primitive.NilObjectID, false
	}
	return id, true
}

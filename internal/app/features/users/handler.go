// internal/app/features/users/handler.go
package users

import (
	"net/http"

	apperrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the user directory.
type Handler struct {
	Engine *taskengine.Engine
	Log    *zap.Logger
}

func NewHandler(eng *taskengine.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: eng,
		Log:    logger,
	}
}

// Entry is one directory row.
type Entry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func entryOf(u models.User) Entry {
	return Entry{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email}
}

// ServeDirectory handles GET /users: every user, sorted by name.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	_, actor, ok := authz.UserCtx(r)
	if !ok {
		apperrors.Unauthorized(w, r)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list_users")
	defer cancel()

	us, err := h.Engine.ListUsers(ctx, actor)
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	out := make([]Entry, 0, len(us))
	for _, u := range us {
		out = append(out, entryOf(u))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// ServeMe handles GET /users/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, actor, ok := authz.UserCtx(r)
	if !ok {
		apperrors.Unauthorized(w, r)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get_user")
	defer cancel()

	u, err := h.Engine.GetUser(ctx, actor)
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, entryOf(u))
}

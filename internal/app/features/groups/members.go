// internal/app/features/groups/members.go
package groups

import (
	"net/http"

	apperrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/go-chi/chi/v5"
)

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

// HandleAddMember handles POST /groups/{groupID}/members. Admins only.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}
	uid, err := httpjson.ObjectID("user_id", req.UserID)
	if err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.ctx(r, "add_member")
	defer cancel()

	m, err := h.Engine.AddMember(ctx, actor, gid, uid)
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, m)
}

// HandleRemoveMember handles DELETE /groups/{groupID}/members/{userID}.
// Participation rows of existing tasks are kept.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	uid, err := httpjson.ObjectID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.ctx(r, "remove_member")
	defer cancel()

	if err := h.Engine.RemoveMember(ctx, actor, gid, uid); err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

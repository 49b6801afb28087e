// internal/app/features/groups/groups.go
package groups

import (
	"net/http"

	apperrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreateGroup handles POST /groups. The caller becomes the first admin.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createGroupRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.ctx(r, "create_group")
	defer cancel()

	g, err := h.Engine.CreateGroup(ctx, actor, taskengine.GroupInput{Name: req.Name, Description: req.Description})
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, g)
}

// ServeMyGroups handles GET /groups.
func (h *Handler) ServeMyGroups(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(r, "my_groups")
	defer cancel()

	gs, err := h.Engine.MyGroups(ctx, actor)
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, gs)
}

// ServeGroup handles GET /groups/{groupID}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(r, "get_group")
	defer cancel()

	d, err := h.Engine.GetGroup(ctx, actor, gid)
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

// ServeGroupTasks handles GET /groups/{groupID}/tasks.
func (h *Handler) ServeGroupTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(r, "group_tasks")
	defer cancel()

	ts, err := h.Engine.GroupTasks(ctx, actor, gid)
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ts)
}

// ServeGroupProgress handles GET /groups/{groupID}/progress.
func (h *Handler) ServeGroupProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(r, "group_progress")
	defer cancel()

	p, err := h.Engine.GroupProgress(ctx, actor, gid)
	if err != nil {
		apperrors.Render(w, r, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

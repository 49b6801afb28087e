// internal/app/features/tasks/group.go
package tasks

import (
	"net/http"

	apperrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
)

// HandleCreateGroupTask handles POST /tasks/group/{groupID}.
func (h *Handler) HandleCreateGroupTask(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "create_group_task")
	if !ok {
		return
	}
	defer c.cancel()

	groupID, ok := pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req createGroupTaskRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}

	t, err := h.Engine.CreateGroupTask(c.ctx, c.actor, groupID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, t)
}

// HandleUpdateGroupTask handles PUT /tasks/group/{taskID}.
func (h *Handler) HandleUpdateGroupTask(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "update_group_task")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	var req updateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}
	fields, err := req.fields()
	if err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}

	t, err := h.Engine.UpdateGroupTask(c.ctx, c.actor, taskID, fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, t)
}

// HandleToggleParticipation handles PATCH /tasks/group/{taskID}/participation.
// It marks the caller's own participation complete.
func (h *Handler) HandleToggleParticipation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "toggle_participation")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}

	p, err := h.Engine.ToggleParticipation(c.ctx, c.actor, taskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

// HandleFinalize handles PATCH /tasks/group/{taskID}/finalize.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "finalize_group_task")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}

	t, err := h.Engine.FinalizeGroupTask(c.ctx, c.actor, taskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, t)
}

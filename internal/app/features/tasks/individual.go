// internal/app/features/tasks/individual.go
package tasks

import (
	"net/http"

	apperrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// HandleCreateIndividual handles POST /tasks/individual.
func (h *Handler) HandleCreateIndividual(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "create_individual_task")
	if !ok {
		return
	}
	defer c.cancel()

	var req createIndividualRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}

	t, err := h.Engine.CreateIndividualTask(c.ctx, c.actor, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, t)
}

// HandleUpdateIndividual handles PUT /tasks/individual/{taskID}.
func (h *Handler) HandleUpdateIndividual(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "update_individual_task")
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

	t, err := h.Engine.UpdateIndividualTask(c.ctx, c.actor, taskID, fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, t)
}

// HandleSetStatus handles PATCH /tasks/individual/{taskID}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "set_individual_task_status")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	var req statusRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperrors.BadRequest(w, err.Error())
		return
	}

	t, err := h.Engine.SetIndividualTaskStatus(c.ctx, c.actor, taskID, models.Status(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, t)
}

// internal/app/features/tasks/read.go
package tasks

import (
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
)

// ServeTask handles GET /tasks/{taskID}.
func (h *Handler) ServeTask(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "get_task")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	t, err := h.Engine.GetTask(c.ctx, c.actor, taskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, t)
}

// ServeProgress handles GET /tasks/{taskID}/progress.
func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "task_progress")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	p, err := h.Engine.ProgressFor(c.ctx, c.actor, taskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

// ServeParticipants handles GET /tasks/{taskID}/participants.
func (h *Handler) ServeParticipants(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "list_participants")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	ps, err := h.Engine.ParticipantsFor(c.ctx, c.actor, taskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ps)
}

// HandleDelete handles DELETE /tasks/{taskID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "delete_task")
	if !ok {
		return
	}
	defer c.cancel()

	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	if err := h.Engine.DeleteTask(c.ctx, c.actor, taskID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeMyTasks handles GET /tasks/my.
func (h *Handler) ServeMyTasks(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "my_tasks")
	if !ok {
		return
	}
	defer c.cancel()

	mine, err := h.Engine.MyTasks(c.ctx, c.actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, mine)
}

// ServeCreatedByMe handles GET /tasks/created-by-me.
func (h *Handler) ServeCreatedByMe(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r, "tasks_created_by")
	if !ok {
		return
	}
	defer c.cancel()

	ts, err := h.Engine.TasksCreatedBy(c.ctx, c.actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ts)
}

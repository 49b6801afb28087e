package taskengine_test

import (
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateIndividualTask(t *testing.T) {
	e := setup(t)
	creator := e.fx.CreateUser(e.ctx, "Creator", "creator@example.com")
	assignee := e.fx.CreateUser(e.ctx, "Assignee", "assignee@example.com")
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	task, err := e.eng.CreateIndividualTask(e.ctx, creator.ID, taskengine.IndividualTaskInput{
		Title:          "  Write <b>report</b> ",
		Description:    "Quarterly numbers",
		DueDate:        &due,
		AssignedUserID: assignee.ID,
	})
	if err != nil {
		t.Fatalf("CreateIndividualTask: %v", err)
	}

	if task.Title != "Write report" {
		t.Errorf("Title = %q, want sanitized %q", task.Title, "Write report")
	}
	if task.Status != models.StatusTodo {
		t.Errorf("Status = %q, want TODO", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want default MEDIUM", task.Priority)
	}
	if task.AssignmentType != models.AssignmentIndividual {
		t.Errorf("AssignmentType = %q", task.AssignmentType)
	}
	if !task.IsAssignedTo(assignee.ID) {
		t.Error("task should be assigned to assignee")
	}
	if task.GroupID != nil {
		t.Error("individual task must not carry a group id")
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", task.DueDate, due)
	}

	stored, err := e.eng.GetTask(e.ctx, assignee.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if stored.Title != task.Title || stored.CreatedBy != creator.ID {
		t.Errorf("stored task mismatch: %+v", stored)
	}

	if got := len(e.sink.ofType(audit.EventTaskCreated)); got != 1 {
		t.Errorf("task_created events = %d, want 1", got)
	}
}

func TestCreateIndividualTask_MissingAssigneeIsValidationError(t *testing.T) {
	e := setup(t)
	creator := e.fx.CreateUser(e.ctx, "Creator", "creator@example.com")

	_, err := e.eng.CreateIndividualTask(e.ctx, creator.ID, taskengine.IndividualTaskInput{Title: "No owner"})
	requireKind(t, err, taskengine.ErrValidation)

	created, err := e.eng.TasksCreatedBy(e.ctx, creator.ID)
	if err != nil {
		t.Fatalf("TasksCreatedBy: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("expected no task persisted, found %d", len(created))
	}
}

func TestCreateIndividualTask_Rejections(t *testing.T) {
	e := setup(t)
	creator := e.fx.CreateUser(e.ctx, "Creator", "creator@example.com")
	assignee := e.fx.CreateUser(e.ctx, "Assignee", "assignee@example.com")

	tests := []struct {
		name  string
		actor primitive.ObjectID
		in    taskengine.IndividualTaskInput
		want  error
	}{
		{"short title", creator.ID, taskengine.IndividualTaskInput{Title: "ab", AssignedUserID: assignee.ID}, taskengine.ErrValidation},
		{"title only markup", creator.ID, taskengine.IndividualTaskInput{Title: "<i></i>", AssignedUserID: assignee.ID}, taskengine.ErrValidation},
		{"bad priority", creator.ID, taskengine.IndividualTaskInput{Title: "Valid", Priority: "URGENT", AssignedUserID: assignee.ID}, taskengine.ErrValidation},
		{"unknown assignee", creator.ID, taskengine.IndividualTaskInput{Title: "Valid", AssignedUserID: primitive.NewObjectID()}, taskengine.ErrNotFound},
		{"no actor", primitive.NilObjectID, taskengine.IndividualTaskInput{Title: "Valid", AssignedUserID: assignee.ID}, taskengine.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.eng.CreateIndividualTask(e.ctx, tt.actor, tt.in)
			requireKind(t, err, tt.want)
		})
	}

	created, _ := e.eng.TasksCreatedBy(e.ctx, creator.ID)
	if len(created) != 0 {
		t.Errorf("expected no tasks persisted, found %d", len(created))
	}
}

func newIndividual(t *testing.T, e *env) (creator, assignee models.User, task models.Task) {
	t.Helper()
	creator = e.fx.CreateUser(e.ctx, "Creator", "creator@example.com")
	assignee = e.fx.CreateUser(e.ctx, "Assignee", "assignee@example.com")
	task, err := e.eng.CreateIndividualTask(e.ctx, creator.ID, taskengine.IndividualTaskInput{
		Title:          "Write report",
		AssignedUserID: assignee.ID,
	})
	if err != nil {
		t.Fatalf("CreateIndividualTask: %v", err)
	}
	return creator, assignee, task
}

func TestUpdateIndividualTask_CreatorOnly(t *testing.T) {
	e := setup(t)
	creator, assignee, task := newIndividual(t, e)

	_, err := e.eng.UpdateIndividualTask(e.ctx, assignee.ID, task.ID, taskengine.TaskFields{Title: ptr("Hijacked")})
	requireKind(t, err, taskengine.ErrForbidden)

	updated, err := e.eng.UpdateIndividualTask(e.ctx, creator.ID, task.ID, taskengine.TaskFields{
		Title:    ptr("Write final report"),
		Priority: ptr(models.PriorityHigh),
	})
	if err != nil {
		t.Fatalf("UpdateIndividualTask: %v", err)
	}
	if updated.Title != "Write final report" || updated.Priority != models.PriorityHigh {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if updated.Description != task.Description {
		t.Error("unset fields must be left unchanged")
	}

	stored, _ := e.eng.GetTask(e.ctx, creator.ID, task.ID)
	if stored.Title != "Write final report" {
		t.Errorf("stored title = %q", stored.Title)
	}
}

func TestUpdateIndividualTask_CompletedStaysEditable(t *testing.T) {
	e := setup(t)
	creator, assignee, task := newIndividual(t, e)

	if _, err := e.eng.SetIndividualTaskStatus(e.ctx, assignee.ID, task.ID, models.StatusCompleted); err != nil {
		t.Fatalf("SetIndividualTaskStatus: %v", err)
	}
	if _, err := e.eng.UpdateIndividualTask(e.ctx, creator.ID, task.ID, taskengine.TaskFields{Title: ptr("Edited after done")}); err != nil {
		t.Fatalf("completed individual task should stay editable, got %v", err)
	}
}

func TestUpdateIndividualTask_Reassign(t *testing.T) {
	e := setup(t)
	creator, _, task := newIndividual(t, e)
	other := e.fx.CreateUser(e.ctx, "Other", "other@example.com")

	_, err := e.eng.UpdateIndividualTask(e.ctx, creator.ID, task.ID, taskengine.TaskFields{AssignedUserID: ptr(primitive.NewObjectID())})
	requireKind(t, err, taskengine.ErrNotFound)

	updated, err := e.eng.UpdateIndividualTask(e.ctx, creator.ID, task.ID, taskengine.TaskFields{AssignedUserID: &other.ID})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if !updated.IsAssignedTo(other.ID) {
		t.Error("expected task reassigned")
	}
	if _, err := e.eng.GetTask(e.ctx, other.ID, task.ID); err != nil {
		t.Errorf("new assignee should see the task: %v", err)
	}
}

func TestUpdateIndividualTask_DueDate(t *testing.T) {
	e := setup(t)
	creator, _, task := newIndividual(t, e)
	due := time.Date(2026, 12, 24, 12, 0, 0, 0, time.UTC)

	updated, err := e.eng.UpdateIndividualTask(e.ctx, creator.ID, task.ID, taskengine.TaskFields{DueDate: &due})
	if err != nil {
		t.Fatalf("set due date: %v", err)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Fatalf("DueDate = %v, want %v", updated.DueDate, due)
	}

	cleared, err := e.eng.UpdateIndividualTask(e.ctx, creator.ID, task.ID, taskengine.TaskFields{ClearDueDate: true})
	if err != nil {
		t.Fatalf("clear due date: %v", err)
	}
	if cleared.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", cleared.DueDate)
	}
	stored, _ := e.eng.GetTask(e.ctx, creator.ID, task.ID)
	if stored.DueDate != nil {
		t.Errorf("stored DueDate = %v, want nil", stored.DueDate)
	}
}

func TestUpdateIndividualTask_GroupTaskNotFound(t *testing.T) {
	w := setupGroup(t)
	task := w.createGroupTask(t)

	_, err := w.eng.UpdateIndividualTask(w.ctx, w.a.ID, task.ID, taskengine.TaskFields{Title: ptr("Nope")})
	requireKind(t, err, taskengine.ErrNotFound)
}

func TestSetIndividualTaskStatus(t *testing.T) {
	e := setup(t)
	creator, assignee, task := newIndividual(t, e)
	outsider := e.fx.CreateUser(e.ctx, "Outsider", "outsider@example.com")

	got, err := e.eng.SetIndividualTaskStatus(e.ctx, assignee.ID, task.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("assignee status change: %v", err)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("Status = %q", got.Status)
	}

	if _, err := e.eng.SetIndividualTaskStatus(e.ctx, creator.ID, task.ID, models.StatusCompleted); err != nil {
		t.Fatalf("creator status change: %v", err)
	}

	// Completed individual tasks can move back.
	if _, err := e.eng.SetIndividualTaskStatus(e.ctx, assignee.ID, task.ID, models.StatusTodo); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	_, err = e.eng.SetIndividualTaskStatus(e.ctx, outsider.ID, task.ID, models.StatusCompleted)
	requireKind(t, err, taskengine.ErrForbidden)

	_, err = e.eng.SetIndividualTaskStatus(e.ctx, creator.ID, task.ID, "DONE")
	requireKind(t, err, taskengine.ErrValidation)

	_, err = e.eng.SetIndividualTaskStatus(e.ctx, creator.ID, primitive.NewObjectID(), models.StatusTodo)
	requireKind(t, err, taskengine.ErrNotFound)

	if got := len(e.sink.ofType(audit.EventTaskStatusChanged)); got != 3 {
		t.Errorf("status change events = %d, want 3", got)
	}
}

func TestSetIndividualTaskStatus_SameValueIsNoOp(t *testing.T) {
	e := setup(t)
	_, assignee, task := newIndividual(t, e)

	got, err := e.eng.SetIndividualTaskStatus(e.ctx, assignee.ID, task.ID, models.StatusTodo)
	if err != nil {
		t.Fatalf("SetIndividualTaskStatus: %v", err)
	}
	if got.Status != models.StatusTodo || !got.UpdatedAt.Equal(task.UpdatedAt) {
		t.Errorf("expected unchanged task, got %+v", got)
	}
	if n := len(e.sink.ofType(audit.EventTaskStatusChanged)); n != 0 {
		t.Errorf("no-op should not be audited, got %d events", n)
	}
}

func TestSetIndividualTaskStatus_GroupTaskNotFound(t *testing.T) {
	w := setupGroup(t)
	task := w.createGroupTask(t)

	_, err := w.eng.SetIndividualTaskStatus(w.ctx, w.a.ID, task.ID, models.StatusCompleted)
	requireKind(t, err, taskengine.ErrNotFound)
}

func TestProgress_IndividualTask(t *testing.T) {
	e := setup(t)
	_, assignee, task := newIndividual(t, e)

	p, err := e.eng.GetProgress(e.ctx, task.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p != (models.Progress{Total: 1, Completed: 0, Percentage: 0}) {
		t.Errorf("progress = %+v", p)
	}

	if _, err := e.eng.SetIndividualTaskStatus(e.ctx, assignee.ID, task.ID, models.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	p, _ = e.eng.GetProgress(e.ctx, task.ID)
	if p != (models.Progress{Total: 1, Completed: 1, Percentage: 100}) {
		t.Errorf("progress = %+v", p)
	}

	rows, err := e.eng.ListParticipants(e.ctx, task.ID)
	if err != nil {
		t.Fatalf("ListParticipants: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("individual tasks have no participants, got %d", len(rows))
	}
}

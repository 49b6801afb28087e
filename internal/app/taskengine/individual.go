package taskengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateIndividualTask creates a TODO task assigned to in.AssignedUserID.
// Any signed-in user may create one; the assignee must exist.
func (e *Engine) CreateIndividualTask(ctx context.Context, creatorID primitive.ObjectID, in IndividualTaskInput) (models.Task, error) {
	const op = "create_individual_task"

	in = in.normalized()
	if err := check(op, in); err != nil {
		return models.Task{}, e.fail(ctx, op, creatorID, primitive.NilObjectID, nil, err)
	}
	if in.AssignedUserID.IsZero() {
		return models.Task{}, e.fail(ctx, op, creatorID, primitive.NilObjectID, nil, validation(op, "Assigned user is required"))
	}

	var out models.Task
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		f := taskpolicy.Facts{ActorID: creatorID, AssignmentType: models.AssignmentIndividual}
		if err := authorize(op, f, taskpolicy.ActionCreate); err != nil {
			return err
		}

		ok, err := r.Users.UserExists(ctx, in.AssignedUserID)
		if err != nil {
			return fmt.Errorf("%s: assignee lookup: %w", op, err)
		}
		if !ok {
			return notFound(op, "assigned user not found")
		}

		now := e.clock()
		assignee := in.AssignedUserID
		t := models.Task{
			ID:             primitive.NewObjectID(),
			Title:          in.Title,
			Description:    in.Description,
			Priority:       in.Priority,
			DueDate:        utcPtr(in.DueDate),
			Status:         models.StatusTodo,
			AssignmentType: models.AssignmentIndividual,
			CreatedBy:      creatorID,
			AssignedUserID: &assignee,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		out, err = r.Tasks.Create(ctx, t)
		if err != nil {
			return fmt.Errorf("%s: insert task: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, e.fail(ctx, op, creatorID, primitive.NilObjectID, nil, err)
	}

	e.logTask(ctx, "task created", op, creatorID, out)
	e.audit.TaskCreated(ctx, creatorID, out, 0)
	return out, nil
}

// UpdateIndividualTask applies fields to an individual task. Only the
// creator may edit, and a COMPLETED individual task stays editable.
func (e *Engine) UpdateIndividualTask(ctx context.Context, actorID, taskID primitive.ObjectID, fields TaskFields) (models.Task, error) {
	const op = "update_individual_task"

	fields = fields.normalized()
	if err := check(op, fields); err != nil {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, nil, err)
	}
	if fields.AssignedUserID != nil && fields.AssignedUserID.IsZero() {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, nil, validation(op, "Assigned user is invalid"))
	}

	var out models.Task
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		t, err := loadTyped(ctx, r, op, taskID, models.AssignmentIndividual)
		if err != nil {
			return err
		}
		if err := e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionEditFields); err != nil {
			return err
		}

		if fields.AssignedUserID != nil && !t.IsAssignedTo(*fields.AssignedUserID) {
			ok, err := r.Users.UserExists(ctx, *fields.AssignedUserID)
			if err != nil {
				return fmt.Errorf("%s: assignee lookup: %w", op, err)
			}
			if !ok {
				return notFound(op, "assigned user not found")
			}
		}

		next := fields.apply(t)
		next.UpdatedAt = e.clock()
		if err := r.Tasks.Update(ctx, next, t.Status); err != nil {
			if errors.Is(err, storeerr.ErrStale) {
				return invalidState(op, "task changed concurrently")
			}
			return fmt.Errorf("%s: update task: %w", op, err)
		}
		out = next
		return nil
	})
	if err != nil {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, nil, err)
	}

	e.logTask(ctx, "task updated", op, actorID, out)
	e.audit.TaskUpdated(ctx, actorID, out)
	return out, nil
}

// SetIndividualTaskStatus moves an individual task to status. The creator
// and the assignee may both do this, in any direction. Setting the current
// status again is a no-op.
func (e *Engine) SetIndividualTaskStatus(ctx context.Context, actorID, taskID primitive.ObjectID, status models.Status) (models.Task, error) {
	const op = "set_individual_task_status"

	if !status.Valid() {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, nil,
			validation(op, "Status must be one of: TODO, IN_PROGRESS, COMPLETED"))
	}

	var (
		out     models.Task
		from    models.Status
		changed bool
	)
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		changed = false
		t, err := loadTyped(ctx, r, op, taskID, models.AssignmentIndividual)
		if err != nil {
			return err
		}
		if err := e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionChangeStatus); err != nil {
			return err
		}

		out, from = t, t.Status
		if t.Status == status {
			return nil
		}

		now := e.clock()
		ok, err := r.Tasks.CompareAndSetStatus(ctx, t.ID, t.Status, status, now)
		if err != nil {
			return fmt.Errorf("%s: write status: %w", op, err)
		}
		if !ok {
			return invalidState(op, "status changed concurrently")
		}
		out.Status, out.UpdatedAt, changed = status, now, true
		return nil
	})
	if err != nil {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, nil, err)
	}

	if changed {
		e.logTask(ctx, "task status changed", op, actorID, out)
		e.audit.TaskStatusChanged(ctx, actorID, out, from)
	}
	return out, nil
}

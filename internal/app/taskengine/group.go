package taskengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateGroupTask creates a TODO task for groupID and one incomplete
// participation row for each current member. Only a group admin may create
// one. The task and its rows are written together or not at all.
func (e *Engine) CreateGroupTask(ctx context.Context, creatorID, groupID primitive.ObjectID, in GroupTaskInput) (models.Task, error) {
	const op = "create_group_task"
	gid := groupID

	in = in.normalized()
	if err := check(op, in); err != nil {
		return models.Task{}, e.fail(ctx, op, creatorID, primitive.NilObjectID, &gid, err)
	}

	var (
		out     models.Task
		members int
	)
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		isAdmin, err := grouppolicy.CanManageGroup(ctx, r.Memberships, groupID, creatorID)
		if err != nil {
			return fmt.Errorf("%s: admin lookup: %w", op, err)
		}
		f := taskpolicy.Facts{
			ActorID:        creatorID,
			AssignmentType: models.AssignmentGroup,
			GroupID:        groupID,
			IsMember:       isAdmin,
			IsAdmin:        isAdmin,
		}
		if err := authorize(op, f, taskpolicy.ActionCreate); err != nil {
			return err
		}
		if _, err := r.Groups.GetByID(ctx, groupID); err != nil {
			if errors.Is(err, storeerr.ErrNotFound) {
				return notFound(op, "group not found")
			}
			return fmt.Errorf("%s: load group: %w", op, err)
		}

		userIDs, err := r.Memberships.ListCurrentMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("%s: list members: %w", op, err)
		}

		now := e.clock()
		t := models.Task{
			ID:             primitive.NewObjectID(),
			Title:          in.Title,
			Description:    in.Description,
			Priority:       in.Priority,
			DueDate:        utcPtr(in.DueDate),
			Status:         models.StatusTodo,
			AssignmentType: models.AssignmentGroup,
			CreatedBy:      creatorID,
			GroupID:        &gid,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if out, err = r.Tasks.Create(ctx, t); err != nil {
			return fmt.Errorf("%s: insert task: %w", op, err)
		}

		if err := r.Participations.InsertBatch(ctx, t.ID, userIDs, now); err != nil {
			e.compensateGroupTask(ctx, r, t.ID)
			return fmt.Errorf("%s: insert participations: %w", op, err)
		}
		members = len(userIDs)
		return nil
	})
	if err != nil {
		return models.Task{}, e.fail(ctx, op, creatorID, primitive.NilObjectID, &gid, err)
	}

	e.logTask(ctx, "task created", op, creatorID, out)
	e.audit.TaskCreated(ctx, creatorID, out, members)
	return out, nil
}

// compensateGroupTask removes a half-created group task. Inside a real
// transaction the rollback already does this; without one it is the only
// cleanup.
func (e *Engine) compensateGroupTask(ctx context.Context, r Repos, taskID primitive.ObjectID) {
	if err := r.Participations.DeleteByTask(ctx, taskID); err != nil {
		e.log.Warn("compensating participation delete failed",
			zap.String("task_id", taskID.Hex()), zap.Error(err))
	}
	if _, err := r.Tasks.Delete(ctx, taskID, models.StatusTodo); err != nil {
		e.log.Warn("compensating task delete failed",
			zap.String("task_id", taskID.Hex()), zap.Error(err))
	}
}

// UpdateGroupTask applies fields to a group task. Only a group admin may
// edit, and never after the task is finalized.
func (e *Engine) UpdateGroupTask(ctx context.Context, actorID, taskID primitive.ObjectID, fields TaskFields) (models.Task, error) {
	const op = "update_group_task"

	fields = fields.normalized()
	if err := check(op, fields); err != nil {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, nil, err)
	}
	if fields.AssignedUserID != nil {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, nil,
			validation(op, "Assigned user applies to individual tasks only"))
	}

	var out models.Task
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		t, err := loadTyped(ctx, r, op, taskID, models.AssignmentGroup)
		if err != nil {
			return err
		}
		out = t
		if err := e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionEditFields); err != nil {
			return err
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
		return models.Task{}, e.fail(ctx, op, actorID, taskID, out.GroupID, err)
	}

	e.logTask(ctx, "task updated", op, actorID, out)
	e.audit.TaskUpdated(ctx, actorID, out)
	return out, nil
}

// ToggleParticipation marks the actor's own participation row completed.
// Completion is one-way; toggling a completed row returns it unchanged.
func (e *Engine) ToggleParticipation(ctx context.Context, actorID, taskID primitive.ObjectID) (models.Participation, error) {
	const op = "toggle_participation"

	var (
		out     models.Participation
		task    models.Task
		changed bool
	)
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		changed = false
		t, err := loadTyped(ctx, r, op, taskID, models.AssignmentGroup)
		if err != nil {
			return err
		}
		task = t
		if err := e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionToggle); err != nil {
			return err
		}

		p, err := r.Participations.Get(ctx, taskID, actorID)
		if err != nil {
			if errors.Is(err, storeerr.ErrNotFound) {
				return forbidden(op, taskpolicy.ReasonNotParticipant)
			}
			return fmt.Errorf("%s: load participation: %w", op, err)
		}
		if p.IsCompleted {
			out = p
			return nil
		}

		if out, err = r.Participations.MarkCompleted(ctx, taskID, actorID, e.clock()); err != nil {
			return fmt.Errorf("%s: mark completed: %w", op, err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return models.Participation{}, e.fail(ctx, op, actorID, taskID, task.GroupID, err)
	}

	if changed {
		e.logTask(ctx, "participation completed", op, actorID, task)
		e.audit.ParticipationCompleted(ctx, actorID, task)
	}
	return out, nil
}

// FinalizeGroupTask marks a group task COMPLETED regardless of how many
// members finished. Only a group admin may finalize, and only once.
func (e *Engine) FinalizeGroupTask(ctx context.Context, actorID, taskID primitive.ObjectID) (models.Task, error) {
	const op = "finalize_group_task"

	var out models.Task
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		t, err := loadTyped(ctx, r, op, taskID, models.AssignmentGroup)
		if err != nil {
			return err
		}
		out = t
		if err := e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionFinalize); err != nil {
			return err
		}

		now := e.clock()
		ok, err := r.Tasks.CompareAndSetStatus(ctx, t.ID, t.Status, models.StatusCompleted, now)
		if err != nil {
			return fmt.Errorf("%s: write status: %w", op, err)
		}
		if !ok {
			return invalidState(op, taskpolicy.ReasonLocked)
		}
		out.Status, out.UpdatedAt = models.StatusCompleted, now
		return nil
	})
	if err != nil {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, out.GroupID, err)
	}

	e.logTask(ctx, "task finalized", op, actorID, out)
	e.audit.TaskFinalized(ctx, actorID, out)
	return out, nil
}

// DeleteTask removes a task and, for group tasks, its participation rows.
// Finalized group tasks cannot be deleted; completed individual tasks can.
func (e *Engine) DeleteTask(ctx context.Context, actorID, taskID primitive.ObjectID) error {
	const op = "delete_task"

	var task models.Task
	err := e.backend.RunInTx(ctx, func(ctx context.Context, r Repos) error {
		t, err := loadTask(ctx, r, op, taskID)
		if err != nil {
			return err
		}
		task = t
		if err := e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionDelete); err != nil {
			return err
		}

		ok, err := r.Tasks.Delete(ctx, t.ID, t.Status)
		if err != nil {
			return fmt.Errorf("%s: delete task: %w", op, err)
		}
		if !ok {
			return invalidState(op, "task changed concurrently")
		}
		if t.IsGroup() {
			if err := r.Participations.DeleteByTask(ctx, t.ID); err != nil {
				return fmt.Errorf("%s: delete participations: %w", op, err)
			}
		}
		return nil
	})
	if err != nil {
		return e.fail(ctx, op, actorID, taskID, task.GroupID, err)
	}

	e.logTask(ctx, "task deleted", op, actorID, task)
	e.audit.TaskDeleted(ctx, actorID, task)
	return nil
}

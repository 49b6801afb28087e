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
)

// GroupTaskEntry is a group task as seen by one participant.
type GroupTaskEntry struct {
	Task                   models.Task `json:"task"`
	ParticipationCompleted bool        `json:"participation_completed"`
}

// MyTasks is everything assigned to one user.
type MyTasks struct {
	Individual []models.Task     `json:"individual_tasks"`
	Group      []GroupTaskEntry `json:"group_tasks"`
}

// GetTask returns a task the actor may view.
func (e *Engine) GetTask(ctx context.Context, actorID, taskID primitive.ObjectID) (models.Task, error) {
	const op = "get_task"
	r := e.backend.Repos()

	t, err := loadTask(ctx, r, op, taskID)
	if err == nil {
		err = e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionView)
	}
	if err != nil {
		return models.Task{}, e.fail(ctx, op, actorID, taskID, t.GroupID, err)
	}
	return t, nil
}

// GetProgress reports completion of a task. Group task counts come from a
// single read of the participation rows; an individual task is 0 or 100.
// It does not check who is asking; see ProgressFor.
func (e *Engine) GetProgress(ctx context.Context, taskID primitive.ObjectID) (models.Progress, error) {
	const op = "get_progress"
	r := e.backend.Repos()

	t, err := loadTask(ctx, r, op, taskID)
	if err != nil {
		return models.Progress{}, err
	}
	return progressOf(ctx, r, op, t)
}

// ProgressFor is GetProgress for an actor who must be able to view the task.
func (e *Engine) ProgressFor(ctx context.Context, actorID, taskID primitive.ObjectID) (models.Progress, error) {
	const op = "get_progress"
	r := e.backend.Repos()

	t, err := loadTask(ctx, r, op, taskID)
	if err == nil {
		err = e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionView)
	}
	if err != nil {
		return models.Progress{}, e.fail(ctx, op, actorID, taskID, t.GroupID, err)
	}
	return progressOf(ctx, r, op, t)
}

func progressOf(ctx context.Context, r Repos, op string, t models.Task) (models.Progress, error) {
	if !t.IsGroup() {
		return models.IndividualProgress(t), nil
	}
	total, completed, err := r.Participations.Counts(ctx, t.ID)
	if err != nil {
		return models.Progress{}, fmt.Errorf("%s: count participations: %w", op, err)
	}
	return models.NewProgress(total, completed), nil
}

// ListParticipants returns the participation rows of a task. Individual
// tasks have none. It does not check who is asking; see ParticipantsFor.
func (e *Engine) ListParticipants(ctx context.Context, taskID primitive.ObjectID) ([]models.Participation, error) {
	const op = "list_participants"
	r := e.backend.Repos()

	t, err := loadTask(ctx, r, op, taskID)
	if err != nil {
		return nil, err
	}
	return participantsOf(ctx, r, op, t)
}

// ParticipantsFor is ListParticipants for an actor who must be able to
// view the task.
func (e *Engine) ParticipantsFor(ctx context.Context, actorID, taskID primitive.ObjectID) ([]models.Participation, error) {
	const op = "list_participants"
	r := e.backend.Repos()

	t, err := loadTask(ctx, r, op, taskID)
	if err == nil {
		err = e.authorizeTask(ctx, r, op, actorID, t, taskpolicy.ActionView)
	}
	if err != nil {
		return nil, e.fail(ctx, op, actorID, taskID, t.GroupID, err)
	}
	return participantsOf(ctx, r, op, t)
}

func participantsOf(ctx context.Context, r Repos, op string, t models.Task) ([]models.Participation, error) {
	if !t.IsGroup() {
		return []models.Participation{}, nil
	}
	rows, err := r.Participations.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: list participations: %w", op, err)
	}
	if rows == nil {
		rows = []models.Participation{}
	}
	return rows, nil
}

// MyTasks lists the individual tasks assigned to the actor and the group
// tasks the actor holds a participation row for.
func (e *Engine) MyTasks(ctx context.Context, actorID primitive.ObjectID) (MyTasks, error) {
	const op = "my_tasks"
	r := e.backend.Repos()

	individual, err := r.Tasks.ListAssignedTo(ctx, actorID)
	if err != nil {
		return MyTasks{}, fmt.Errorf("%s: list assigned: %w", op, err)
	}

	rows, err := r.Participations.ListByUser(ctx, actorID)
	if err != nil {
		return MyTasks{}, fmt.Errorf("%s: list participations: %w", op, err)
	}
	done := make(map[primitive.ObjectID]bool, len(rows))
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, p := range rows {
		done[p.TaskID] = p.IsCompleted
		ids = append(ids, p.TaskID)
	}
	groupTasks, err := r.Tasks.ListByIDs(ctx, ids)
	if err != nil {
		return MyTasks{}, fmt.Errorf("%s: load group tasks: %w", op, err)
	}

	out := MyTasks{
		Individual: nonNil(individual),
		Group:      make([]GroupTaskEntry, 0, len(groupTasks)),
	}
	for _, t := range groupTasks {
		out.Group = append(out.Group, GroupTaskEntry{Task: t, ParticipationCompleted: done[t.ID]})
	}
	return out, nil
}

// TasksCreatedBy lists the tasks the actor created, newest first.
func (e *Engine) TasksCreatedBy(ctx context.Context, actorID primitive.ObjectID) ([]models.Task, error) {
	tasks, err := e.backend.Repos().Tasks.ListCreatedBy(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("tasks_created_by: %w", err)
	}
	return nonNil(tasks), nil
}

// GroupTasks lists a group's tasks, newest first. The actor must be a
// current member.
func (e *Engine) GroupTasks(ctx context.Context, actorID, groupID primitive.ObjectID) ([]models.Task, error) {
	const op = "group_tasks"
	r := e.backend.Repos()

	if err := requireMember(ctx, r, op, actorID, groupID); err != nil {
		return nil, e.failGroup(ctx, op, actorID, groupID, err)
	}
	tasks, err := r.Tasks.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return nonNil(tasks), nil
}

// GroupProgress reports how many of a group's tasks are finalized.
// The actor must be a current member.
func (e *Engine) GroupProgress(ctx context.Context, actorID, groupID primitive.ObjectID) (models.Progress, error) {
	const op = "group_progress"
	r := e.backend.Repos()

	if err := requireMember(ctx, r, op, actorID, groupID); err != nil {
		return models.Progress{}, e.failGroup(ctx, op, actorID, groupID, err)
	}
	total, completed, err := r.Tasks.CountByGroup(ctx, groupID)
	if err != nil {
		return models.Progress{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.NewProgress(total, completed), nil
}

// requireMember fails with NotFound for an unknown group and Forbidden for
// a non-member.
func requireMember(ctx context.Context, r Repos, op string, actorID, groupID primitive.ObjectID) error {
	if err := requireGroup(ctx, r, op, actorID, groupID); err != nil {
		return err
	}
	ok, err := grouppolicy.CanViewGroup(ctx, r.Memberships, groupID, actorID)
	if err != nil {
		return fmt.Errorf("%s: membership lookup: %w", op, err)
	}
	if !ok {
		return forbidden(op, ReasonNotMember)
	}
	return nil
}

// requireGroup checks there is an actor and that the group exists.
func requireGroup(ctx context.Context, r Repos, op string, actorID, groupID primitive.ObjectID) error {
	if actorID.IsZero() {
		return forbidden(op, taskpolicy.ReasonNoActor)
	}
	if _, err := r.Groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, storeerr.ErrNotFound) {
			return notFound(op, "group not found")
		}
		return fmt.Errorf("%s: load group: %w", op, err)
	}
	return nil
}

// ReasonNotMember is the denial reason for group reads by outsiders.
const ReasonNotMember = "group membership required"

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

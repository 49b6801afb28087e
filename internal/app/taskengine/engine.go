// Package taskengine is the task lifecycle controller.
//
// Every operation takes the acting user's ID explicitly, loads the facts it
// needs inside one backend transaction, asks taskpolicy for a decision, and
// only then writes. Status writes are conditional on the status that was
// read, so two concurrent finalizes cannot both succeed.
package taskengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/reqid"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Engine runs task and group operations against a Backend.
type Engine struct {
	backend Backend
	log     *zap.Logger
	audit   *auditlog.Logger
	now     func() time.Time
	conceal bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAudit records every mutation and denial through a.
func WithAudit(a *auditlog.Logger) Option {
	return func(e *Engine) { e.audit = a }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConcealment reports missing tasks as Forbidden instead of NotFound,
// so callers cannot tell which task IDs exist.
func WithConcealment(on bool) Option {
	return func(e *Engine) { e.conceal = on }
}

// New returns an Engine over backend.
func New(backend Backend, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		backend: backend,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// loadTask reads a task and translates a miss into a NotFound error.
func loadTask(ctx context.Context, r Repos, op string, id primitive.ObjectID) (models.Task, error) {
	t, err := r.Tasks.GetByID(ctx, id)
	if errors.Is(err, storeerr.ErrNotFound) {
		return models.Task{}, notFound(op, "task not found")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: load task: %w", op, err)
	}
	return t, nil
}

// loadTyped is loadTask that also requires the assignment type. A task of
// the other type is reported as missing.
func loadTyped(ctx context.Context, r Repos, op string, id primitive.ObjectID, want models.AssignmentType) (models.Task, error) {
	t, err := loadTask(ctx, r, op, id)
	if err != nil {
		return t, err
	}
	if t.AssignmentType != want {
		if want == models.AssignmentGroup {
			return models.Task{}, notFound(op, "group task not found")
		}
		return models.Task{}, notFound(op, "individual task not found")
	}
	return t, nil
}

// factsFor gathers what taskpolicy needs to judge actorID against t.
// Individual tasks need nothing beyond the task itself.
func factsFor(ctx context.Context, r Repos, actorID primitive.ObjectID, t models.Task) (taskpolicy.Facts, error) {
	f := taskpolicy.Facts{ActorID: actorID, Task: &t}
	if !t.IsGroup() || t.GroupID == nil {
		return f, nil
	}

	role, err := grouppolicy.RoleOf(ctx, r.Memberships, *t.GroupID, actorID)
	if err != nil {
		return f, fmt.Errorf("membership lookup: %w", err)
	}
	f.IsMember = role != grouppolicy.RoleNone
	f.IsAdmin = role == grouppolicy.RoleAdmin
	_, err = r.Participations.Get(ctx, t.ID, actorID)
	switch {
	case err == nil:
		f.HasParticipation = true
	case errors.Is(err, storeerr.ErrNotFound):
	default:
		return f, fmt.Errorf("participation lookup: %w", err)
	}
	return f, nil
}

// authorize turns a policy denial into a domain error.
func authorize(op string, f taskpolicy.Facts, a taskpolicy.Action) error {
	d := taskpolicy.Decide(f, a)
	switch d.Kind {
	case taskpolicy.DenyNone:
		return nil
	case taskpolicy.DenyLocked:
		return invalidState(op, d.Reason)
	default:
		return forbidden(op, d.Reason)
	}
}

// authorizeTask loads facts for t and applies action a. With concealment
// on, an actor who cannot view t gets the same reason a missing task gets.
func (e *Engine) authorizeTask(ctx context.Context, r Repos, op string, actorID primitive.ObjectID, t models.Task, a taskpolicy.Action) error {
	f, err := factsFor(ctx, r, actorID, t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = authorize(op, f, a)
	if err != nil && e.conceal && KindOf(err) == KindForbidden && !taskpolicy.Decide(f, taskpolicy.ActionView).Allowed {
		return forbidden(op, taskpolicy.ReasonNotVisible)
	}
	return err
}

// fail finishes a failed task operation: it applies concealment, logs the
// outcome, and records domain denials in the audit trail.
func (e *Engine) fail(ctx context.Context, op string, actorID, taskID primitive.ObjectID, groupID *primitive.ObjectID, err error) error {
	var de *Error
	if !errors.As(err, &de) {
		e.log.Error("task operation failed",
			zap.String("op", op),
			zap.String("actor_id", actorID.Hex()),
			zap.String("task_id", hexOrEmpty(taskID)),
			zap.String("request_id", reqid.FromContext(ctx)),
			zap.Error(err))
		return err
	}

	if e.conceal && de.Kind == KindNotFound && !taskID.IsZero() {
		de = &Error{Kind: KindForbidden, Op: de.Op, Reason: taskpolicy.ReasonNotVisible}
		err = de
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("actor_id", actorID.Hex()),
		zap.String("kind", de.Kind.String()),
		zap.String("reason", de.Reason),
		zap.String("request_id", reqid.FromContext(ctx)),
	}
	if !taskID.IsZero() {
		fields = append(fields, zap.String("task_id", taskID.Hex()))
	}
	if groupID != nil {
		fields = append(fields, zap.String("group_id", groupID.Hex()))
	}
	e.log.Warn("task operation denied", fields...)

	e.audit.TaskActionDenied(ctx, actorID, taskID, groupID, op, failureKind(de.Kind), de.Reason)
	return err
}

// failGroup is fail for group management operations.
func (e *Engine) failGroup(ctx context.Context, op string, actorID, groupID primitive.ObjectID, err error) error {
	var de *Error
	if !errors.As(err, &de) {
		e.log.Error("group operation failed",
			zap.String("op", op),
			zap.String("actor_id", actorID.Hex()),
			zap.String("group_id", hexOrEmpty(groupID)),
			zap.String("request_id", reqid.FromContext(ctx)),
			zap.Error(err))
		return err
	}
	e.log.Warn("group operation denied",
		zap.String("op", op),
		zap.String("actor_id", actorID.Hex()),
		zap.String("group_id", hexOrEmpty(groupID)),
		zap.String("kind", de.Kind.String()),
		zap.String("reason", de.Reason),
		zap.String("request_id", reqid.FromContext(ctx)))
	e.audit.GroupActionDenied(ctx, actorID, groupID, op, failureKind(de.Kind), de.Reason)
	return err
}

func failureKind(k Kind) string {
	switch k {
	case KindNotFound:
		return audit.FailureNotFound
	case KindForbidden:
		return audit.FailureForbidden
	case KindInvalidState:
		return audit.FailureInvalidState
	case KindValidation:
		return audit.FailureValidation
	}
	return ""
}

func (e *Engine) logTask(ctx context.Context, msg, op string, actorID primitive.ObjectID, t models.Task) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("actor_id", actorID.Hex()),
		zap.String("task_id", t.ID.Hex()),
		zap.String("status", string(t.Status)),
		zap.String("request_id", reqid.FromContext(ctx)),
	}
	if t.GroupID != nil {
		fields = append(fields, zap.String("group_id", t.GroupID.Hex()))
	}
	e.log.Info(msg, fields...)
}

func hexOrEmpty(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}

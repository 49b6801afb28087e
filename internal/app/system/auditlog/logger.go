// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/reqid"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sink persists audit events. *audit.Store is the Mongo sink; the SQL
// backend runs without one and logs to zap only.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Config holds audit logging configuration.
type Config struct {
	// Task controls logging for task events (create, update, status, participation, finalize, delete).
	// Values: "all" (store + zap), "db" (store only), "log" (zap only), "off" (disabled)
	Task string
	// Group controls logging for group events (create, membership changes).
	// Same values as Task.
	Group string
}

// Logger provides convenience methods for logging audit events.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. sink may be nil.
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		sink:   sink,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.TaskID != nil {
		fields = append(fields, zap.String("task_id", event.TaskID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.FailureKind != "" {
		fields = append(fields, zap.String("failure_kind", event.FailureKind))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryTask:
		setting = l.config.Task
	case audit.CategoryGroup:
		setting = l.config.Group
	default:
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if event.RequestID == "" {
		event.RequestID = reqid.FromContext(ctx)
	}

	if (setting == "all" || setting == "log") && l.zapLog != nil {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

func taskEvent(eventType string, actorID primitive.ObjectID, t models.Task) audit.Event {
	return audit.Event{
		Category:  audit.CategoryTask,
		EventType: eventType,
		ActorID:   idPtr(actorID),
		TaskID:    idPtr(t.ID),
		GroupID:   t.GroupID,
		Success:   true,
		Details: map[string]string{
			"assignment_type": string(t.AssignmentType),
			"status":          string(t.Status),
		},
	}
}

// --- Task Events ---

// TaskCreated logs creation of an individual or group task.
func (l *Logger) TaskCreated(ctx context.Context, actorID primitive.ObjectID, t models.Task, participants int) {
	e := taskEvent(audit.EventTaskCreated, actorID, t)
	e.Details["title"] = t.Title
	if t.IsGroup() {
		e.Details["participants"] = strconv.Itoa(participants)
	}
	l.Log(ctx, e)
}

// TaskUpdated logs an edit of task fields.
func (l *Logger) TaskUpdated(ctx context.Context, actorID primitive.ObjectID, t models.Task) {
	l.Log(ctx, taskEvent(audit.EventTaskUpdated, actorID, t))
}

// TaskStatusChanged logs a status change on an individual task.
func (l *Logger) TaskStatusChanged(ctx context.Context, actorID primitive.ObjectID, t models.Task, from models.Status) {
	e := taskEvent(audit.EventTaskStatusChanged, actorID, t)
	e.Details["from"] = string(from)
	e.Details["to"] = string(t.Status)
	l.Log(ctx, e)
}

// ParticipationCompleted logs a member marking their part of a group task done.
func (l *Logger) ParticipationCompleted(ctx context.Context, actorID primitive.ObjectID, t models.Task) {
	l.Log(ctx, taskEvent(audit.EventParticipationCompleted, actorID, t))
}

// TaskFinalized logs an admin closing a group task.
func (l *Logger) TaskFinalized(ctx context.Context, actorID primitive.ObjectID, t models.Task) {
	l.Log(ctx, taskEvent(audit.EventTaskFinalized, actorID, t))
}

// TaskDeleted logs deletion of a task and its participation rows.
func (l *Logger) TaskDeleted(ctx context.Context, actorID primitive.ObjectID, t models.Task) {
	l.Log(ctx, taskEvent(audit.EventTaskDeleted, actorID, t))
}

// TaskActionDenied logs a refused task operation. failureKind is one of
// the audit.Failure* constants.
func (l *Logger) TaskActionDenied(ctx context.Context, actorID, taskID primitive.ObjectID, groupID *primitive.ObjectID, action, failureKind, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryTask,
		EventType:     audit.EventTaskActionDenied,
		ActorID:       idPtr(actorID),
		TaskID:        idPtr(taskID),
		GroupID:       groupID,
		Success:       false,
		FailureKind:   failureKind,
		FailureReason: reason,
		Details:       map[string]string{"action": action},
	})
}

// --- Group Events ---

// GroupCreated logs creation of a group and its first admin membership.
func (l *Logger) GroupCreated(ctx context.Context, actorID primitive.ObjectID, g models.Group) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventGroupCreated,
		ActorID:   idPtr(actorID),
		GroupID:   idPtr(g.ID),
		Success:   true,
		Details:   map[string]string{"name": g.Name},
	})
}

// MemberAdded logs a user being added to a group.
func (l *Logger) MemberAdded(ctx context.Context, actorID, groupID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventMemberAddedToGroup,
		ActorID:   idPtr(actorID),
		UserID:    idPtr(userID),
		GroupID:   idPtr(groupID),
		Success:   true,
	})
}

// MemberRemoved logs a user being removed from a group.
func (l *Logger) MemberRemoved(ctx context.Context, actorID, groupID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: audit.EventMemberRemovedFromGroup,
		ActorID:   idPtr(actorID),
		UserID:    idPtr(userID),
		GroupID:   idPtr(groupID),
		Success:   true,
	})
}

// GroupActionDenied logs a refused group management operation.
func (l *Logger) GroupActionDenied(ctx context.Context, actorID, groupID primitive.ObjectID, action, failureKind, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryGroup,
		EventType:     audit.EventGroupActionDenied,
		ActorID:       idPtr(actorID),
		GroupID:       idPtr(groupID),
		Success:       false,
		FailureKind:   failureKind,
		FailureReason: reason,
		Details:       map[string]string{"action": action},
	})
}

// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryTask  = "task"
	CategoryGroup = "group"
)

// Task event types
const (
	EventTaskCreated            = "task_created"
	EventTaskUpdated            = "task_updated"
	EventTaskStatusChanged      = "task_status_changed"
	EventParticipationCompleted = "participation_completed"
	EventTaskFinalized          = "task_finalized"
	EventTaskDeleted            = "task_deleted"
	EventTaskActionDenied       = "task_action_denied"
)

// Group event types
const (
	EventGroupCreated           = "group_created"
	EventMemberAddedToGroup     = "member_added_to_group"
	EventMemberRemovedFromGroup = "member_removed_from_group"
	EventGroupActionDenied      = "group_action_denied"
)

// Failure kinds recorded on denied events. Forbidden and invalid-state
// denials are always stored separately even when callers present them alike.
const (
	FailureForbidden    = "forbidden"
	FailureInvalidState = "invalid_state"
	FailureNotFound     = "not_found"
	FailureValidation   = "validation"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who and what
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"` // who performed the action
	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`  // affected user (membership changes)
	TaskID  *primitive.ObjectID `bson:"task_id,omitempty"`
	GroupID *primitive.ObjectID `bson:"group_id,omitempty"`

	// Correlates the event with the request log line.
	RequestID string `bson:"request_id,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureKind   string `bson:"failure_kind,omitempty"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	ActorID     *primitive.ObjectID
	TaskID      *primitive.ObjectID
	GroupID     *primitive.ObjectID
	Category    string
	EventType   string
	FailureKind string
	StartTime   *time.Time
	EndTime     *time.Time
	Limit       int64
	Offset      int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "task_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "actor_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.ActorID != nil {
		query["actor_id"] = filter.ActorID
	}
	if filter.TaskID != nil {
		query["task_id"] = filter.TaskID
	}
	if filter.GroupID != nil {
		query["group_id"] = filter.GroupID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.FailureKind != "" {
		query["failure_kind"] = filter.FailureKind
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

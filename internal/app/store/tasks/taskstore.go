// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the Task Store backed by the tasks collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// newestFirst is the ordering every task list uses.
var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

// Create inserts t. A zero ID is replaced with a new ObjectID and the
// timestamps are set when unset.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID returns storeerr.ErrNotFound when no task has id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, storeerr.ErrNotFound
	}
	return t, err
}

// Update writes the mutable fields of t (title, description, priority, due
// date, individual assignee) provided the stored status still equals
// expect. A miss returns storeerr.ErrStale.
func (s *Store) Update(ctx context.Context, t models.Task, expect models.Status) error {
	set := bson.M{
		"title":       t.Title,
		"description": t.Description,
		"priority":    t.Priority,
		"updated_at":  t.UpdatedAt,
	}
	unset := bson.M{}
	if t.DueDate != nil {
		set["due_date"] = *t.DueDate
	} else {
		unset["due_date"] = ""
	}
	if t.AssignedUserID != nil {
		set["assigned_user_id"] = *t.AssignedUserID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": t.ID, "status": expect}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storeerr.ErrStale
	}
	return nil
}

// CompareAndSetStatus moves the task from status from to status to in one
// conditional write. It reports false when the stored status was not from.
func (s *Store) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.Status, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": at}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Delete removes the task if its stored status still equals expect.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, expect models.Status) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": expect})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// ListAssignedTo returns the INDIVIDUAL tasks assigned to userID.
func (s *Store) ListAssignedTo(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.find(ctx, bson.M{
		"assignment_type":  models.AssignmentIndividual,
		"assigned_user_id": userID,
	})
}

// ListCreatedBy returns every task userID created.
func (s *Store) ListCreatedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.find(ctx, bson.M{"created_by": userID})
}

// ListByGroup returns the GROUP tasks of groupID.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Task, error) {
	return s.find(ctx, bson.M{
		"assignment_type": models.AssignmentGroup,
		"group_id":        groupID,
	})
}

// ListByIDs returns the tasks whose IDs are in ids. Unknown IDs are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByGroup returns how many GROUP tasks groupID has and how many of
// them are COMPLETED, from a single aggregation.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (total, completed int, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"assignment_type": models.AssignmentGroup,
			"group_id":        groupID,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusCompleted}}, 1, 0},
			}},
		}}},
	}
	return sumCounts(ctx, s.c, pipeline)
}

func sumCounts(ctx context.Context, c *mongo.Collection, pipeline mongo.Pipeline) (int, int, error) {
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cur.Close(ctx)

	var row struct {
		Total     int `bson:"total"`
		Completed int `bson:"completed"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, 0, err
		}
	}
	return row.Total, row.Completed, cur.Err()
}

// internal/app/store/participations/participationstore.go
package participationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the Participation Ledger backed by the task_participations
// collection. Rows are written once per group task and then only marked
// completed.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_participations")}
}

// InsertBatch writes one incomplete row per user for taskID in a single
// InsertMany. The write is ordered, so a failure leaves a prefix inserted;
// callers run it inside a transaction or clean up with DeleteByTask.
func (s *Store) InsertBatch(ctx context.Context, taskID primitive.ObjectID, userIDs []primitive.ObjectID, now time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(userIDs))
	for _, uid := range userIDs {
		docs = append(docs, models.Participation{
			ID:        primitive.NewObjectID(),
			TaskID:    taskID,
			UserID:    uid,
			CreatedAt: now,
		})
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) || wafflemongo.IsDup(err) {
			return storeerr.ErrDuplicate
		}
		return err
	}
	return nil
}

// Get returns storeerr.ErrNotFound when userID has no row for taskID.
func (s *Store) Get(ctx context.Context, taskID, userID primitive.ObjectID) (models.Participation, error) {
	var p models.Participation
	err := s.c.FindOne(ctx, bson.M{"task_id": taskID, "user_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Participation{}, storeerr.ErrNotFound
	}
	return p, err
}

// MarkCompleted sets the row completed and returns it. A row that is
// already completed keeps its original completed_at.
func (s *Store) MarkCompleted(ctx context.Context, taskID, userID primitive.ObjectID, at time.Time) (models.Participation, error) {
	filter := bson.M{"task_id": taskID, "user_id": userID, "is_completed": false}
	update := bson.M{"$set": bson.M{"is_completed": true, "completed_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Participation
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s.Get(ctx, taskID, userID)
	}
	return p, err
}

// ListByTask returns the rows of taskID in insertion order.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Participation, error) {
	return s.find(ctx, bson.M{"task_id": taskID})
}

// ListByUser returns every row userID holds.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Participation, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Participation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Participation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Counts returns the number of rows for taskID and how many are completed.
// Both come from one $group stage so they describe the same snapshot.
func (s *Store) Counts(ctx context.Context, taskID primitive.ObjectID) (total, completed int, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"task_id": taskID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$is_completed", 1, 0},
			}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
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

// DeleteByTask removes every row of taskID.
func (s *Store) DeleteByTask(ctx context.Context, taskID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"task_id": taskID})
	return err
}

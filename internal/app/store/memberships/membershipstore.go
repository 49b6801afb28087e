// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the Membership Directory backed by the group_memberships
// collection. Reads are never cached: admin checks gate finalize and delete,
// so they must see the latest committed rows.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

var ErrDuplicateMembership = fmt.Errorf("user is already a member of this group: %w", storeerr.ErrDuplicate)

// Add creates a membership row. The unique (group_id, user_id) index makes
// a second Add for the same pair fail with ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, m models.GroupMembership) error {
	doc := bson.M{
		"group_id":   m.GroupID,
		"user_id":    m.UserID,
		"is_admin":   m.IsAdmin,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership document for (groupID, userID).
// Removing a non-member is not an error.
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	return err
}

// IsMember reports whether userID belongs to groupID. A missing group or
// row is simply false.
func (s *Store) IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsAdmin reports whether userID holds admin rights in groupID.
func (s *Store) IsAdmin(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"is_admin": true,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListCurrentMembers returns the user IDs of every current member of groupID.
func (s *Store) ListCurrentMembers(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetProjection(bson.M{"user_id": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			UserID primitive.ObjectID `bson:"user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.UserID)
	}
	return ids, cur.Err()
}

// ListByGroup returns all memberships for a group, oldest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupMembership, error) {
	return s.find(ctx, bson.M{"group_id": groupID})
}

// ListByUser returns all memberships held by a user, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.GroupMembership, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.GroupMembership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountByGroup returns the number of members of a group.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}

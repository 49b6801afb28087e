// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/taskhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections lists every collection taskhub writes, in creation order.
var Collections = []string{"users", "groups", "group_memberships", "tasks", "task_participations", "audit_events"}

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	schemas := map[string]bson.M{
		"users":               usersSchema(),
		"groups":              groupsSchema(),
		"group_memberships":   groupMembershipsSchema(),
		"tasks":               tasksSchema(),
		"task_participations": participationsSchema(),
	}

	for _, coll := range Collections {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			continue
		}
		schema, ok := schemas[coll]
		if !ok {
			continue
		}
		if err := setValidator(ctx, db, coll, schema, logger); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				continue
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		logger.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

// setValidator uses moderate validation: documents already in the
// collection that fail the schema can still be updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, logger *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	logger.Debug("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	objectID = bson.M{"bsonType": "objectId"}
	date     = bson.M{"bsonType": "date"}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email"},
			"properties": bson.M{
				"full_name":    nonBlank,
				"full_name_ci": bson.M{"bsonType": "string"},
				"email":        bson.M{"bsonType": "string"},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "created_by"},
			"properties": bson.M{
				"name":        bson.M{"bsonType": "string", "minLength": 3, "maxLength": 100, "pattern": ".*\\S.*"},
				"name_ci":     nonBlank,
				"description": bson.M{"bsonType": "string"},
				"created_by":  objectID,
			},
		},
	}
}

func groupMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "user_id", "is_admin"},
			"properties": bson.M{
				"group_id":   objectID,
				"user_id":    objectID,
				"is_admin":   bson.M{"bsonType": "bool"},
				"created_at": date,
			},
		},
	}
}

func enumOf[T ~string](vals ...T) bson.M {
	a := bson.A{}
	for _, v := range vals {
		a = append(a, string(v))
	}
	return bson.M{"enum": a}
}

// tasksSchema pins the assignment invariant: an INDIVIDUAL task carries an
// assignee and a GROUP task carries a group.
func tasksSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "priority", "status", "assignment_type", "created_by"},
			"properties": bson.M{
				"title":            bson.M{"bsonType": "string", "minLength": 3, "maxLength": 150},
				"description":      bson.M{"bsonType": "string"},
				"priority":         enumOf(models.PriorityLow, models.PriorityMedium, models.PriorityHigh),
				"status":           enumOf(models.StatusTodo, models.StatusInProgress, models.StatusCompleted),
				"assignment_type":  enumOf(models.AssignmentIndividual, models.AssignmentGroup),
				"created_by":       objectID,
				"assigned_user_id": objectID,
				"group_id":         objectID,
				"due_date":         date,
			},
			"oneOf": bson.A{
				bson.M{
					"properties": bson.M{"assignment_type": enumOf(models.AssignmentIndividual)},
					"required":   bson.A{"assigned_user_id"},
					"not":        bson.M{"required": bson.A{"group_id"}},
				},
				bson.M{
					"properties": bson.M{"assignment_type": enumOf(models.AssignmentGroup)},
					"required":   bson.A{"group_id"},
					"not":        bson.M{"required": bson.A{"assigned_user_id"}},
				},
			},
		},
	}
}

func participationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"task_id", "user_id", "is_completed"},
			"properties": bson.M{
				"task_id":      objectID,
				"user_id":      objectID,
				"is_completed": bson.M{"bsonType": "bool"},
				"completed_at": date,
			},
		},
	}
}

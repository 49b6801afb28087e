// internal/domain/models/participation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participation is one member's completion record for a GROUP task.
//
// The rows for a task are a snapshot of the group's membership when the
// task was created. They are never added or removed afterwards, only
// marked completed by their owner, and they are deleted with the task.
type Participation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID      primitive.ObjectID `bson:"task_id" json:"task_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	IsCompleted bool               `bson:"is_completed" json:"is_completed"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// DefaultPriority is applied when a task is created without one.
const DefaultPriority = PriorityMedium

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// AssignmentType says whether a task targets one user or a whole group.
type AssignmentType string

const (
	AssignmentIndividual AssignmentType = "INDIVIDUAL"
	AssignmentGroup      AssignmentType = "GROUP"
)

// Task is a unit of work assigned to one user or to every member of a group.
//
// Exactly one of AssignedUserID (INDIVIDUAL) and GroupID (GROUP) is set;
// the other is always nil.
type Task struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	Title          string              `bson:"title" json:"title"`
	Description    string              `bson:"description" json:"description"`
	Priority       Priority            `bson:"priority" json:"priority"`
	DueDate        *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Status         Status              `bson:"status" json:"status"`
	AssignmentType AssignmentType      `bson:"assignment_type" json:"assignment_type"`
	CreatedBy      primitive.ObjectID  `bson:"created_by" json:"created_by"`
	AssignedUserID *primitive.ObjectID `bson:"assigned_user_id,omitempty" json:"assigned_user_id,omitempty"`
	GroupID        *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsGroup reports whether the task is assigned to a group.
func (t Task) IsGroup() bool { return t.AssignmentType == AssignmentGroup }

// IsLocked reports whether the task is a finalized group task.
// Locked tasks refuse edits, participation changes, and deletion.
func (t Task) IsLocked() bool {
	return t.IsGroup() && t.Status == StatusCompleted
}

// IsAssignedTo reports whether userID is the individual assignee.
func (t Task) IsAssignedTo(userID primitive.ObjectID) bool {
	return t.AssignedUserID != nil && *t.AssignedUserID == userID
}

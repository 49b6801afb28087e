package taskengine

import (
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IndividualTaskInput creates a task for one user.
type IndividualTaskInput struct {
	Title          string             `validate:"required,min=3,max=150" label:"Title"`
	Description    string             `label:"Description"`
	Priority       models.Priority    `validate:"omitempty,oneof=LOW MEDIUM HIGH" label:"Priority"`
	DueDate        *time.Time         `label:"Due date"`
	AssignedUserID primitive.ObjectID `label:"Assigned user"`
}

// GroupTaskInput creates a task for every current member of a group.
type GroupTaskInput struct {
	Title       string          `validate:"required,min=3,max=150" label:"Title"`
	Description string          `label:"Description"`
	Priority    models.Priority `validate:"omitempty,oneof=LOW MEDIUM HIGH" label:"Priority"`
	DueDate     *time.Time      `label:"Due date"`
}

// TaskFields is a partial update. Nil fields are left unchanged.
// ClearDueDate removes the due date and wins over DueDate.
// AssignedUserID applies to individual tasks only.
type TaskFields struct {
	Title          *string             `validate:"omitnil,min=3,max=150" label:"Title"`
	Description    *string             `label:"Description"`
	Priority       *models.Priority    `validate:"omitnil,oneof=LOW MEDIUM HIGH" label:"Priority"`
	DueDate        *time.Time          `label:"Due date"`
	ClearDueDate   bool                `label:"Clear due date"`
	AssignedUserID *primitive.ObjectID `label:"Assigned user"`
}

// GroupInput creates a group.
type GroupInput struct {
	Name        string `validate:"required,min=3,max=100" label:"Name"`
	Description string `label:"Description"`
}

func clean(s string) string { return htmlsanitize.PlainText(s) }

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := clean(*s)
	return &c
}

func check(op string, in any) error {
	if res := inputval.Validate(in); res.HasErrors() {
		return validation(op, res.First())
	}
	return nil
}

func (in IndividualTaskInput) normalized() IndividualTaskInput {
	in.Title = clean(in.Title)
	in.Description = clean(in.Description)
	if in.Priority == "" {
		in.Priority = models.DefaultPriority
	}
	return in
}

func (in GroupTaskInput) normalized() GroupTaskInput {
	in.Title = clean(in.Title)
	in.Description = clean(in.Description)
	if in.Priority == "" {
		in.Priority = models.DefaultPriority
	}
	return in
}

func (f TaskFields) normalized() TaskFields {
	f.Title = cleanPtr(f.Title)
	f.Description = cleanPtr(f.Description)
	return f
}

func (in GroupInput) normalized() GroupInput {
	in.Name = clean(in.Name)
	in.Description = clean(in.Description)
	return in
}

// apply returns t with f's non-nil fields written onto it.
func (f TaskFields) apply(t models.Task) models.Task {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.ClearDueDate {
		t.DueDate = nil
	} else if f.DueDate != nil {
		t.DueDate = utcPtr(f.DueDate)
	}
	if f.AssignedUserID != nil && !t.IsGroup() {
		id := *f.AssignedUserID
		t.AssignedUserID = &id
	}
	return t
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Millisecond)
	return &u
}

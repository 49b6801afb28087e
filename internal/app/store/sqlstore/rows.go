package sqlstore

import (
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRow struct {
	ID         string `gorm:"primaryKey;size:24"`
	FullName   string
	FullNameCI string `gorm:"index"`
	Email      string `gorm:"uniqueIndex"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (userRow) TableName() string { return "users" }

type groupRow struct {
	ID          string `gorm:"primaryKey;size:24"`
	Name        string
	NameCI      string `gorm:"index"`
	Description string
	CreatedBy   string `gorm:"size:24;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (groupRow) TableName() string { return "groups" }

type membershipRow struct {
	ID        string `gorm:"primaryKey;size:24"`
	GroupID   string `gorm:"size:24;not null;uniqueIndex:idx_group_user"`
	UserID    string `gorm:"size:24;not null;uniqueIndex:idx_group_user;index"`
	IsAdmin   bool
	CreatedAt time.Time
}

func (membershipRow) TableName() string { return "group_memberships" }

type taskRow struct {
	ID             string `gorm:"primaryKey;size:24"`
	Title          string
	Description    string
	Priority       string
	DueDate        *time.Time
	Status         string  `gorm:"index"`
	AssignmentType string  `gorm:"index"`
	CreatedBy      string  `gorm:"size:24;index"`
	AssignedUserID *string `gorm:"size:24;index"`
	GroupID        *string `gorm:"size:24;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (taskRow) TableName() string { return "tasks" }

type participationRow struct {
	ID          string `gorm:"primaryKey;size:24"`
	TaskID      string `gorm:"size:24;not null;uniqueIndex:idx_task_user"`
	UserID      string `gorm:"size:24;not null;uniqueIndex:idx_task_user;index"`
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

func (participationRow) TableName() string { return "task_participations" }

// oid parses a stored hex ID. Stored IDs are always written by hexes, so a
// parse failure yields the zero ID.
func oid(s string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(s)
	return id
}

func oidPtr(s *string) *primitive.ObjectID {
	if s == nil {
		return nil
	}
	id := oid(*s)
	return &id
}

func hexPtr(id *primitive.ObjectID) *string {
	if id == nil {
		return nil
	}
	h := id.Hex()
	return &h
}

func hexes(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r userRow) model() models.User {
	return models.User{
		ID:         oid(r.ID),
		FullName:   r.FullName,
		FullNameCI: r.FullNameCI,
		Email:      r.Email,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r groupRow) model() models.Group {
	return models.Group{
		ID:          oid(r.ID),
		Name:        r.Name,
		NameCI:      r.NameCI,
		Description: r.Description,
		CreatedBy:   oid(r.CreatedBy),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r membershipRow) model() models.GroupMembership {
	return models.GroupMembership{
		ID:        oid(r.ID),
		GroupID:   oid(r.GroupID),
		UserID:    oid(r.UserID),
		IsAdmin:   r.IsAdmin,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func taskRowFrom(t models.Task) taskRow {
	return taskRow{
		ID:             t.ID.Hex(),
		Title:          t.Title,
		Description:    t.Description,
		Priority:       string(t.Priority),
		DueDate:        utc(t.DueDate),
		Status:         string(t.Status),
		AssignmentType: string(t.AssignmentType),
		CreatedBy:      t.CreatedBy.Hex(),
		AssignedUserID: hexPtr(t.AssignedUserID),
		GroupID:        hexPtr(t.GroupID),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (r taskRow) model() models.Task {
	return models.Task{
		ID:             oid(r.ID),
		Title:          r.Title,
		Description:    r.Description,
		Priority:       models.Priority(r.Priority),
		DueDate:        utc(r.DueDate),
		Status:         models.Status(r.Status),
		AssignmentType: models.AssignmentType(r.AssignmentType),
		CreatedBy:      oid(r.CreatedBy),
		AssignedUserID: oidPtr(r.AssignedUserID),
		GroupID:        oidPtr(r.GroupID),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func (r participationRow) model() models.Participation {
	return models.Participation{
		ID:          oid(r.ID),
		TaskID:      oid(r.TaskID),
		UserID:      oid(r.UserID),
		IsCompleted: r.IsCompleted,
		CompletedAt: utc(r.CompletedAt),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

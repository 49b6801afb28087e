package taskengine

import (
	"context"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory answers membership questions. A missing group or membership
// row is reported as false, not as an error.
type Directory interface {
	IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	ListCurrentMembers(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Memberships is the Directory plus the writes group management needs.
// Add returns an error matching storeerr.ErrDuplicate for an existing pair.
type Memberships interface {
	Directory
	Add(ctx context.Context, m models.GroupMembership) error
	Remove(ctx context.Context, groupID, userID primitive.ObjectID) error
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupMembership, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.GroupMembership, error)
}

// Users resolves user identities.
type Users interface {
	UserExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

// Groups stores group records.
type Groups interface {
	Create(ctx context.Context, g models.Group) (models.Group, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error)
}

// TaskRepo stores tasks. Update and Delete are conditional on the stored
// status so a write never lands on a task that moved underneath the caller.
type TaskRepo interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error)
	Update(ctx context.Context, t models.Task, expect models.Status) error
	CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.Status, at time.Time) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID, expect models.Status) (bool, error)
	ListAssignedTo(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error)
	ListCreatedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Task, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error)
	CountByGroup(ctx context.Context, groupID primitive.ObjectID) (total, completed int, err error)
}

// ParticipationRepo stores participation rows for group tasks.
type ParticipationRepo interface {
	InsertBatch(ctx context.Context, taskID primitive.ObjectID, userIDs []primitive.ObjectID, now time.Time) error
	Get(ctx context.Context, taskID, userID primitive.ObjectID) (models.Participation, error)
	MarkCompleted(ctx context.Context, taskID, userID primitive.ObjectID, at time.Time) (models.Participation, error)
	ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Participation, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Participation, error)
	Counts(ctx context.Context, taskID primitive.ObjectID) (total, completed int, err error)
	DeleteByTask(ctx context.Context, taskID primitive.ObjectID) error
}

// Repos bundles the repositories of one backend. Inside RunInTx the
// bundle is bound to the transaction.
type Repos struct {
	Users          Users
	Groups         Groups
	Memberships    Memberships
	Tasks          TaskRepo
	Participations ParticipationRepo
}

// Backend is a record store the engine can run against.
type Backend interface {
	Repos() Repos

	// RunInTx runs fn as one logical transaction. fn must use the ctx and
	// Repos it is given. Backends that cannot provide a transaction run fn
	// directly; the engine keeps compensating cleanup for that case.
	RunInTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}

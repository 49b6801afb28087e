package sqlstore

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"gorm.io/gorm"
)

// Store is a taskengine.Backend over one gorm database.
type Store struct {
	db *gorm.DB
}

// New wraps an opened, migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Users exposes the user repository with its seeding helpers.
func (s *Store) Users() *UserRepo { return &UserRepo{db: s.db} }

func (s *Store) Repos() taskengine.Repos {
	return reposFor(s.db)
}

// RunInTx runs fn inside a database transaction. Returning an error from
// fn rolls everything back.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, r taskengine.Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, reposFor(tx))
	})
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func reposFor(db *gorm.DB) taskengine.Repos {
	return taskengine.Repos{
		Users:          &UserRepo{db: db},
		Groups:         &GroupRepo{db: db},
		Memberships:    &MembershipRepo{db: db},
		Tasks:          &TaskRepo{db: db},
		Participations: &ParticipationRepo{db: db},
	}
}

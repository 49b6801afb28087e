// Package mongobackend assembles the per-collection Mongo stores into a
// taskengine.Backend.
package mongobackend

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/store/groups"
	"github.com/dalemusser/taskhub/internal/app/store/memberships"
	"github.com/dalemusser/taskhub/internal/app/store/participations"
	"github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/txn"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Backend runs engine operations against one Mongo database.
type Backend struct {
	db    *mongo.Database
	log   *zap.Logger
	repos taskengine.Repos
}

func New(db *mongo.Database, log *zap.Logger) *Backend {
	return &Backend{
		db:  db,
		log: log,
		repos: taskengine.Repos{
			Users:          userstore.New(db),
			Groups:         groupstore.New(db),
			Memberships:    membershipstore.New(db),
			Tasks:          taskstore.New(db),
			Participations: participationstore.New(db),
		},
	}
}

// Repos returns the stores. They are safe to share; a transaction travels
// in the ctx passed to each call, not in the store.
func (b *Backend) Repos() taskengine.Repos { return b.repos }

// RunInTx runs fn in a session transaction via txn.Run. On deployments
// without transactions fn runs directly.
func (b *Backend) RunInTx(ctx context.Context, fn func(ctx context.Context, r taskengine.Repos) error) error {
	return txn.Run(ctx, b.db, b.log, func(ctx context.Context) error {
		return fn(ctx, b.repos)
	})
}

// Ping checks that the primary answers.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.Client().Ping(ctx, readpref.Primary())
}

// Package storeconn opens the configured record store and hands back the
// engine backend over it. The server and the operator CLI share it.
package storeconn

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/store/mongobackend"
	"github.com/dalemusser/taskhub/internal/app/store/sqlstore"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/app/system/validators"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backend kinds.
const (
	KindMongo  = "mongo"
	KindSQLite = "sqlite"
)

// Config selects and addresses the record store.
type Config struct {
	Kind          string
	MongoURI      string
	MongoDatabase string
	MaxPoolSize   uint64
	MinPoolSize   uint64
	SQLiteDSN     string
}

// Validate checks the fields the chosen kind needs.
func (c Config) Validate() error {
	switch c.Kind {
	case KindMongo:
		if c.MongoDatabase == "" {
			return fmt.Errorf("mongo backend requires a database name")
		}
	case KindSQLite:
		if c.SQLiteDSN == "" {
			return fmt.Errorf("sqlite backend requires a DSN")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want %q or %q)", c.Kind, KindMongo, KindSQLite)
	}
	return nil
}

type backend interface {
	taskengine.Backend
	Ping(ctx context.Context) error
}

// Conn is an open record store.
type Conn struct {
	Kind string

	// Set for KindMongo.
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Set for KindSQLite.
	SQL *gorm.DB

	backend backend
	log     *zap.Logger
}

// Open connects to the store described by cfg.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.Kind == KindSQLite {
		db, err := sqlstore.Open(cfg.SQLiteDSN, log)
		if err != nil {
			return nil, err
		}
		log.Info("connected to sqlite", zap.String("dsn", cfg.SQLiteDSN))
		return &Conn{Kind: KindSQLite, SQL: db, backend: sqlstore.New(db), log: log}, nil
	}

	opts := options.Client().ApplyURI(cfg.MongoURI).SetServerSelectionTimeout(10 * time.Second)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)
	log.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))

	return &Conn{
		Kind:          KindMongo,
		MongoClient:   client,
		MongoDatabase: db,
		backend:       mongobackend.New(db, log),
		log:           log,
	}, nil
}

// FromSQL wraps an already opened gorm database.
func FromSQL(db *gorm.DB, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conn{Kind: KindSQLite, SQL: db, backend: sqlstore.New(db), log: log}
}

// Backend returns the engine backend.
func (c *Conn) Backend() taskengine.Backend { return c.backend }

// Ping checks that the store answers.
func (c *Conn) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// AuditSink returns where audit events are persisted. Only Mongo keeps
// them; the SQL backend logs them to zap.
func (c *Conn) AuditSink() auditlog.Sink {
	if c.MongoDatabase == nil {
		return nil
	}
	return audit.New(c.MongoDatabase)
}

// EnsureSchema creates collections, validators and indexes on Mongo or migrates tables on SQLite.
// It is safe to run on every start.
func (c *Conn) EnsureSchema(ctx context.Context) error {
	if c.Kind == KindSQLite {
		return sqlstore.Migrate(c.SQL.WithContext(ctx))
	}
	if err := validators.EnsureAll(ctx, c.MongoDatabase, c.log); err != nil {
		return err
	}
	if err := indexes.EnsureAll(ctx, c.MongoDatabase); err != nil {
		return err
	}
	return audit.New(c.MongoDatabase).EnsureIndexes(ctx)
}

// Engine builds a task engine over the store.
func (c *Conn) Engine(auditCfg auditlog.Config, conceal bool) *taskengine.Engine {
	return taskengine.New(c.backend, c.log,
		taskengine.WithAudit(auditlog.New(c.AuditSink(), c.log, auditCfg)),
		taskengine.WithConcealment(conceal),
	)
}

// Close releases the connection.
func (c *Conn) Close(ctx context.Context) error {
	switch {
	case c.MongoClient != nil:
		return c.MongoClient.Disconnect(ctx)
	case c.SQL != nil:
		return sqlstore.Close(c.SQL)
	}
	return nil
}

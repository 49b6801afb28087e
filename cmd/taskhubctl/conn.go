package main

import (
	"context"
	"os"

	"github.com/dalemusser/taskhub/internal/app/store/storeconn"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// connOptions are the persistent flags shared by every subcommand.
type connOptions struct {
	backend   string
	mongoURI  string
	mongoDB   string
	sqliteDSN string
	verbose   bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (o *connOptions) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.backend, "backend", envOr("TASKHUB_STORE_BACKEND", storeconn.KindMongo), "record store: mongo or sqlite")
	f.StringVar(&o.mongoURI, "mongo-uri", envOr("TASKHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	f.StringVar(&o.mongoDB, "mongo-db", envOr("TASKHUB_MONGO_DATABASE", "taskhub"), "MongoDB database name")
	f.StringVar(&o.sqliteDSN, "sqlite-dsn", envOr("TASKHUB_SQLITE_DSN", "data/taskhub.db"), "SQLite database file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log store activity to stderr")
}

// session is an open store plus an engine over it.
type session struct {
	conn   *storeconn.Conn
	engine *taskengine.Engine
	log    *zap.Logger
}

func (o *connOptions) open(ctx context.Context) (*session, error) {
	log := zap.NewNop()
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		log = l
	}

	conn, err := storeconn.Open(ctx, storeconn.Config{
		Kind:          o.backend,
		MongoURI:      o.mongoURI,
		MongoDatabase: o.mongoDB,
		SQLiteDSN:     o.sqliteDSN,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := conn.EnsureSchema(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	// Operator writes are audited like API writes, minus the zap copy.
	eng := conn.Engine(auditlog.Config{Task: "db", Group: "db"}, false)
	return &session{conn: conn, engine: eng, log: log}, nil
}

func (s *session) close() {
	_ = s.conn.Close(context.Background())
	_ = s.log.Sync()
}

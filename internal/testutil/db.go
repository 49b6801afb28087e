package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/sqlstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoURIEnv names the variable that points tests at a Mongo server.
const MongoURIEnv = "TASKHUB_TEST_MONGO_URI"

// TestContext returns a context with a timeout suitable for tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// MongoURI returns the server tests connect to.
func MongoURI() string {
	if uri := os.Getenv(MongoURIEnv); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// SetupTestDB connects to Mongo and returns a fresh, uniquely named
// database that is dropped when the test ends. The test is skipped when no
// server is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := MongoURI()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo not available: %v", err)
	}

	db := client.Database("taskhub_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// SetupSQLStore returns a SQL backend on a private in-memory SQLite
// database.
func SetupSQLStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	db, err := sqlstore.Open(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlstore.Close(db) })
	return sqlstore.New(db)
}

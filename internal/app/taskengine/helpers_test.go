package taskengine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memorySink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *memorySink) Log(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memorySink) ofType(eventType string) []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Event
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type env struct {
	ctx     context.Context
	backend taskengine.Backend
	eng     *taskengine.Engine
	fx      *testutil.Fixtures
	sink    *memorySink
}

func setup(t *testing.T, opts ...taskengine.Option) *env {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	store := testutil.SetupSQLStore(t)
	sink := &memorySink{}
	al := auditlog.New(sink, zap.NewNop(), auditlog.Config{Task: "db", Group: "db"})
	opts = append([]taskengine.Option{taskengine.WithAudit(al)}, opts...)

	return &env{
		ctx:     ctx,
		backend: store,
		eng:     taskengine.New(store, zap.NewNop(), opts...),
		fx:      testutil.NewFixtures(t, store.Repos()),
		sink:    sink,
	}
}

// groupWorld is group G with admin A and members B and C.
type groupWorld struct {
	*env
	a, b, c models.User
	group   models.Group
}

func setupGroup(t *testing.T, opts ...taskengine.Option) *groupWorld {
	t.Helper()
	e := setup(t, opts...)
	w := &groupWorld{env: e}
	w.a = e.fx.CreateUser(e.ctx, "Alice", "alice@example.com")
	w.b = e.fx.CreateUser(e.ctx, "Bob", "bob@example.com")
	w.c = e.fx.CreateUser(e.ctx, "Carol", "carol@example.com")
	w.group = e.fx.CreateGroup(e.ctx, "Team G", w.a.ID)
	e.fx.AddMember(e.ctx, w.group.ID, w.b.ID, false)
	e.fx.AddMember(e.ctx, w.group.ID, w.c.ID, false)
	return w
}

func (w *groupWorld) createGroupTask(t *testing.T) models.Task {
	t.Helper()
	task, err := w.eng.CreateGroupTask(w.ctx, w.a.ID, w.group.ID, taskengine.GroupTaskInput{Title: "Ship release"})
	if err != nil {
		t.Fatalf("CreateGroupTask: %v", err)
	}
	return task
}

func requireKind(t *testing.T, err error, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func ptr[T any](v T) *T { return &v }

func participantIDs(rows []models.Participation) map[primitive.ObjectID]bool {
	out := make(map[primitive.ObjectID]bool, len(rows))
	for _, p := range rows {
		out[p.UserID] = true
	}
	return out
}

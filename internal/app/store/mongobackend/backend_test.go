package mongobackend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/store/mongobackend"
	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (context.Context, *mongobackend.Backend, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	b := mongobackend.New(db, zap.NewNop())
	return ctx, b, testutil.NewFixtures(t, b.Repos())
}

func TestBackend_GroupScenario(t *testing.T) {
	ctx, b, fx := setup(t)
	eng := taskengine.New(b, zap.NewNop())

	a := fx.CreateUser(ctx, "Alice", "alice@example.com")
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	c := fx.CreateUser(ctx, "Carol", "carol@example.com")
	g := fx.CreateGroup(ctx, "Team", a.ID)
	fx.AddMember(ctx, g.ID, bob.ID, false)
	fx.AddMember(ctx, g.ID, c.ID, false)

	task, err := eng.CreateGroupTask(ctx, a.ID, g.ID, taskengine.GroupTaskInput{Title: "Ship release"})
	if err != nil {
		t.Fatalf("CreateGroupTask: %v", err)
	}
	if _, err := eng.ToggleParticipation(ctx, bob.ID, task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	p, err := eng.GetProgress(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p != (models.Progress{Total: 3, Completed: 1, Percentage: 33}) {
		t.Errorf("progress = %+v", p)
	}

	if _, err := eng.FinalizeGroupTask(ctx, a.ID, task.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := eng.FinalizeGroupTask(ctx, a.ID, task.ID); !errors.Is(err, taskengine.ErrInvalidState) {
		t.Errorf("second finalize = %v, want InvalidState", err)
	}
	if _, err := eng.ToggleParticipation(ctx, c.ID, task.ID); !errors.Is(err, taskengine.ErrInvalidState) {
		t.Errorf("toggle after finalize = %v, want InvalidState", err)
	}
}

func TestBackend_RunInTx_PropagatesError(t *testing.T) {
	ctx, b, _ := setup(t)

	boom := errors.New("boom")
	err := b.RunInTx(ctx, func(ctx context.Context, r taskengine.Repos) error {
		if _, err := r.Users.Create(ctx, models.User{FullName: "Ghost", Email: "ghost@example.com"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx = %v, want boom", err)
	}
}

func TestBackend_CreateGroupIsAtomicWithMembership(t *testing.T) {
	ctx, b, fx := setup(t)
	eng := taskengine.New(b, zap.NewNop())
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")

	g, err := eng.CreateGroup(ctx, owner.ID, taskengine.GroupInput{Name: "Atomic"})
	if err != nil {
		t.Fatal(err)
	}
	ok, err := b.Repos().Memberships.IsAdmin(ctx, g.ID, owner.ID)
	if err != nil || !ok {
		t.Errorf("creator admin membership = %v, %v", ok, err)
	}
}

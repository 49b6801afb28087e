package participationstore_test

import (
	"errors"
	"testing"
	"time"

	participationstore "github.com/dalemusser/taskhub/internal/app/store/participations"
	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setup(t *testing.T) *participationstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return participationstore.New(db)
}

func TestStore_InsertBatchAndCounts(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	taskID := primitive.NewObjectID()
	users := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	now := time.Now().UTC().Truncate(time.Millisecond)

	if err := store.InsertBatch(ctx, taskID, users, now); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	rows, err := store.ListByTask(ctx, taskID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("ListByTask = %d, want 3", len(rows))
	}
	for _, p := range rows {
		if p.IsCompleted || p.CompletedAt != nil || !p.CreatedAt.Equal(now) {
			t.Errorf("unexpected row: %+v", p)
		}
	}

	total, completed, err := store.Counts(ctx, taskID)
	if err != nil || total != 3 || completed != 0 {
		t.Errorf("Counts = %d/%d, %v", total, completed, err)
	}

	err = store.InsertBatch(ctx, taskID, users[:1], now)
	if !errors.Is(err, storeerr.ErrDuplicate) {
		t.Errorf("second InsertBatch = %v, want ErrDuplicate", err)
	}

	if err := store.InsertBatch(ctx, primitive.NewObjectID(), nil, now); err != nil {
		t.Errorf("empty InsertBatch = %v", err)
	}
}

func TestStore_MarkCompleted(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	taskID, userID := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.InsertBatch(ctx, taskID, []primitive.ObjectID{userID, primitive.NewObjectID()}, now); err != nil {
		t.Fatal(err)
	}

	first := now.Add(time.Minute)
	p, err := store.MarkCompleted(ctx, taskID, userID, first)
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if !p.IsCompleted || p.CompletedAt == nil || !p.CompletedAt.Equal(first) {
		t.Errorf("after MarkCompleted: %+v", p)
	}

	again, err := store.MarkCompleted(ctx, taskID, userID, first.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !again.CompletedAt.Equal(first) {
		t.Errorf("second MarkCompleted moved completed_at to %v", again.CompletedAt)
	}

	total, completed, _ := store.Counts(ctx, taskID)
	if total != 2 || completed != 1 {
		t.Errorf("Counts = %d/%d, want 2/1", total, completed)
	}

	_, err = store.MarkCompleted(ctx, taskID, primitive.NewObjectID(), first)
	if !errors.Is(err, storeerr.ErrNotFound) {
		t.Errorf("MarkCompleted without a row = %v, want ErrNotFound", err)
	}
}

func TestStore_GetListDelete(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	t1, t2, userID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()
	_ = store.InsertBatch(ctx, t1, []primitive.ObjectID{userID}, now)
	_ = store.InsertBatch(ctx, t2, []primitive.ObjectID{userID}, now)

	if _, err := store.Get(ctx, t1, userID); err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if _, err := store.Get(ctx, t1, primitive.NewObjectID()); !errors.Is(err, storeerr.ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}

	mine, err := store.ListByUser(ctx, userID)
	if err != nil || len(mine) != 2 {
		t.Errorf("ListByUser = %d, %v", len(mine), err)
	}

	if err := store.DeleteByTask(ctx, t1); err != nil {
		t.Fatalf("DeleteByTask failed: %v", err)
	}
	total, _, _ := store.Counts(ctx, t1)
	if total != 0 {
		t.Errorf("rows left after DeleteByTask: %d", total)
	}
	mine, _ = store.ListByUser(ctx, userID)
	if len(mine) != 1 || mine[0].TaskID != t2 {
		t.Errorf("DeleteByTask touched another task: %+v", mine)
	}
}

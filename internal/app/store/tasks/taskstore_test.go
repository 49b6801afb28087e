package taskstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func individual(creator, assignee primitive.ObjectID, title string) models.Task {
	return models.Task{
		Title:          title,
		Priority:       models.PriorityMedium,
		Status:         models.StatusTodo,
		AssignmentType: models.AssignmentIndividual,
		CreatedBy:      creator,
		AssignedUserID: &assignee,
	}
}

func group(creator, groupID primitive.ObjectID, status models.Status) models.Task {
	return models.Task{
		Title:          "group work",
		Priority:       models.PriorityHigh,
		Status:         status,
		AssignmentType: models.AssignmentGroup,
		CreatedBy:      creator,
		GroupID:        &groupID,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	in := individual(primitive.NewObjectID(), primitive.NewObjectID(), "write docs")
	in.DueDate = &due

	created, err := store.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() || created.CreatedAt.IsZero() || !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Errorf("Create did not fill ID and timestamps: %+v", created)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "write docs" || got.DueDate == nil || !got.DueDate.Equal(due) || got.GroupID != nil {
		t.Errorf("GetByID = %+v", got)
	}

	_, err = store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, storeerr.ErrNotFound) {
		t.Errorf("missing task: got %v, want ErrNotFound", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	due := time.Now().UTC().Truncate(time.Millisecond)
	in := individual(primitive.NewObjectID(), primitive.NewObjectID(), "before")
	in.DueDate = &due
	task, err := store.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	next := task
	next.Title = "after"
	next.DueDate = nil
	newAssignee := primitive.NewObjectID()
	next.AssignedUserID = &newAssignee
	if err := store.Update(ctx, next, models.StatusTodo); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.GetByID(ctx, task.ID)
	if got.Title != "after" || got.DueDate != nil || !got.IsAssignedTo(newAssignee) {
		t.Errorf("after Update: %+v", got)
	}

	err = store.Update(ctx, next, models.StatusCompleted)
	if !errors.Is(err, storeerr.ErrStale) {
		t.Errorf("Update with wrong status = %v, want ErrStale", err)
	}
}

func TestStore_CompareAndSetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task, err := store.Create(ctx, group(primitive.NewObjectID(), primitive.NewObjectID(), models.StatusTodo))
	if err != nil {
		t.Fatal(err)
	}
	at := time.Now().UTC().Truncate(time.Millisecond)

	ok, err := store.CompareAndSetStatus(ctx, task.ID, models.StatusTodo, models.StatusCompleted, at)
	if err != nil || !ok {
		t.Fatalf("first CAS = %v, %v", ok, err)
	}
	ok, err = store.CompareAndSetStatus(ctx, task.ID, models.StatusTodo, models.StatusCompleted, at)
	if err != nil || ok {
		t.Errorf("second CAS = %v, %v; want false", ok, err)
	}

	got, _ := store.GetByID(ctx, task.ID)
	if got.Status != models.StatusCompleted || !got.UpdatedAt.Equal(at) {
		t.Errorf("after CAS: status %s updated %v", got.Status, got.UpdatedAt)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task, _ := store.Create(ctx, group(primitive.NewObjectID(), primitive.NewObjectID(), models.StatusInProgress))

	ok, err := store.Delete(ctx, task.ID, models.StatusTodo)
	if err != nil || ok {
		t.Errorf("Delete with stale status = %v, %v; want false", ok, err)
	}
	ok, err = store.Delete(ctx, task.ID, models.StatusInProgress)
	if err != nil || !ok {
		t.Errorf("Delete = %v, %v; want true", ok, err)
	}
	if _, err := store.GetByID(ctx, task.ID); !errors.Is(err, storeerr.ErrNotFound) {
		t.Errorf("task still present: %v", err)
	}
}

func TestStore_Lists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator, assignee, groupID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	var ids []primitive.ObjectID
	for i, tk := range []models.Task{
		individual(creator, assignee, "first"),
		individual(creator, assignee, "second"),
		group(creator, groupID, models.StatusTodo),
		group(creator, groupID, models.StatusCompleted),
		group(creator, groupID, models.StatusCompleted),
	} {
		tk.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		created, err := store.Create(ctx, tk)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, created.ID)
	}

	assigned, err := store.ListAssignedTo(ctx, assignee)
	if err != nil {
		t.Fatal(err)
	}
	if len(assigned) != 2 || assigned[0].Title != "second" {
		t.Errorf("ListAssignedTo should be newest first: %+v", assigned)
	}

	createdBy, _ := store.ListCreatedBy(ctx, creator)
	if len(createdBy) != 5 {
		t.Errorf("ListCreatedBy = %d, want 5", len(createdBy))
	}

	byGroup, _ := store.ListByGroup(ctx, groupID)
	if len(byGroup) != 3 {
		t.Errorf("ListByGroup = %d, want 3", len(byGroup))
	}

	byIDs, _ := store.ListByIDs(ctx, []primitive.ObjectID{ids[0], ids[4], primitive.NewObjectID()})
	if len(byIDs) != 2 {
		t.Errorf("ListByIDs = %d, want 2", len(byIDs))
	}
	if none, err := store.ListByIDs(ctx, nil); err != nil || len(none) != 0 {
		t.Errorf("ListByIDs(nil) = %v, %v", none, err)
	}

	total, completed, err := store.CountByGroup(ctx, groupID)
	if err != nil || total != 3 || completed != 2 {
		t.Errorf("CountByGroup = %d/%d, %v; want 3/2", total, completed, err)
	}
	total, completed, err = store.CountByGroup(ctx, primitive.NewObjectID())
	if err != nil || total != 0 || completed != 0 {
		t.Errorf("empty CountByGroup = %d/%d, %v", total, completed, err)
	}
}

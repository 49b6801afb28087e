package groupstore_test

import (
	"errors"
	"testing"

	groupstore "github.com/dalemusser/taskhub/internal/app/store/groups"
	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Group{
		Name:        "Test Group",
		Description: "A test group description",
		CreatedBy:   creator,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI != "test group" {
		t.Errorf("NameCI = %q, want %q", created.NameCI, "test group")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Test Group" || got.CreatedBy != creator {
		t.Errorf("GetByID = %+v", got)
	}
}

func TestStore_Create_KeepsGivenID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Group{ID: id, Name: "Fixed"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != id {
		t.Errorf("ID = %s, want %s", created.ID.Hex(), id.Hex())
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, storeerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, _ := store.Create(ctx, models.Group{Name: "Bravo"})
	a, _ := store.Create(ctx, models.Group{Name: "alpha"})

	groups, err := store.ListByIDs(ctx, []primitive.ObjectID{b.ID, a.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(groups) != 2 || groups[0].ID != a.ID || groups[1].ID != b.ID {
		t.Errorf("ListByIDs should sort by folded name: %+v", groups)
	}

	none, err := store.ListByIDs(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("ListByIDs(nil) = %v, %v", none, err)
	}
}

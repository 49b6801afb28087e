package users_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/features/users"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	ctx    context.Context
	router http.Handler
	fx     *testutil.Fixtures
}

func setup(t *testing.T) *env {
	t.Helper()

	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	store := testutil.SetupSQLStore(t)
	eng := taskengine.New(store, zap.NewNop())
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	r := chi.NewRouter()
	r.Mount("/users", users.Routes(users.NewHandler(eng, zap.NewNop()), sm))
	return &env{ctx: ctx, router: r, fx: testutil.NewFixtures(t, store.Repos())}
}

func (e *env) get(target string, user testutil.TestUser) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", target, user))
	return rec
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	e := setup(t)

	for _, target := range []string{"/users/", "/users/me"} {
		rec := testutil.NewRecorder()
		e.router.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
}

func TestServeDirectory_SortedByName(t *testing.T) {
	e := setup(t)

	zed := e.fx.CreateUser(e.ctx, "Zed", "zed@test.com")
	amy := e.fx.CreateUser(e.ctx, "amy", "amy@test.com")
	bob := e.fx.CreateUser(e.ctx, "Bob", "bob@test.com")

	rec := e.get("/users/", testutil.UserFor(zed.ID, "Zed"))
	rec.AssertStatus(t, http.StatusOK)

	var got []users.Entry
	rec.DecodeJSON(t, &got)
	want := []users.Entry{
		{ID: amy.ID.Hex(), Name: "amy", Email: "amy@test.com"},
		{ID: bob.ID.Hex(), Name: "Bob", Email: "bob@test.com"},
		{ID: zed.ID.Hex(), Name: "Zed", Email: "zed@test.com"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestServeMe(t *testing.T) {
	e := setup(t)

	alice := e.fx.CreateUser(e.ctx, "Alice", "alice@test.com")

	rec := e.get("/users/me", testutil.UserFor(alice.ID, "Alice"))
	rec.AssertStatus(t, http.StatusOK)
	var me users.Entry
	rec.DecodeJSON(t, &me)
	if me.ID != alice.ID.Hex() || me.Name != "Alice" || me.Email != "alice@test.com" {
		t.Errorf("me = %+v", me)
	}

	t.Run("unknown session user", func(t *testing.T) {
		rec := e.get("/users/me", testutil.UserFor(primitive.NewObjectID(), "Ghost"))
		rec.AssertStatus(t, http.StatusNotFound)
		rec.AssertContains(t, `"kind":"not_found"`)
	})
}

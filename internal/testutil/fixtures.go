package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data. It writes
// through the engine's repositories, so it works against either backend.
type Fixtures struct {
	repos taskengine.Repos
	t     *testing.T
}

// NewFixtures creates a new Fixtures instance over repos.
func NewFixtures(t *testing.T, repos taskengine.Repos) *Fixtures {
	t.Helper()
	return &Fixtures{repos: repos, t: t}
}

// Repos returns the underlying repositories for direct access in tests.
func (f *Fixtures) Repos() taskengine.Repos {
	return f.repos
}

// CreateUser creates a user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	u, err := f.repos.Users.Create(ctx, models.User{FullName: fullName, Email: email})
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateGroup creates a group whose creator is its first admin.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, creatorID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g, err := f.repos.Groups.Create(ctx, models.Group{
		Name:      name,
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	f.AddMember(ctx, g.ID, creatorID, true)
	return g
}

// AddMember adds userID to groupID.
func (f *Fixtures) AddMember(ctx context.Context, groupID, userID primitive.ObjectID, isAdmin bool) {
	f.t.Helper()

	err := f.repos.Memberships.Add(ctx, models.GroupMembership{
		GroupID:   groupID,
		UserID:    userID,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		f.t.Fatalf("failed to add group member: %v", err)
	}
}

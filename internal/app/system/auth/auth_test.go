package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

type fakeFetcher map[primitive.ObjectID]bool

func (f fakeFetcher) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	if f[id] {
		return models.User{ID: id}, nil
	}
	return models.User{}, storeerr.ErrNotFound
}

// sessionCookie issues a session for u and returns the cookie.
func sessionCookie(t *testing.T, sm *auth.SessionManager, u auth.SessionUser) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.SaveUser(rec, httptest.NewRequest(http.MethodGet, "/", nil), u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	return cookies[0]
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	_, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/my", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := auth.WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), &auth.SessionUser{ID: primitive.NewObjectID().Hex()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestLoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	id := primitive.NewObjectID()
	cookie := sessionCookie(t, sm, auth.SessionUser{ID: id.Hex(), Name: "Ada", Email: "ada@example.com"})

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.ID != id.Hex() || got.Name != "Ada" || got.Email != "ada@example.com" {
		t.Errorf("unexpected user %+v", got)
	}
}

func TestLoadSessionUser_DeletedUserIsSignedOut(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{})
	cookie := sessionCookie(t, sm, auth.SessionUser{ID: primitive.NewObjectID().Hex()})

	found := true
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("expected no user for a deleted account")
	}
}

func TestLoadSessionUser_ExistingUserKept(t *testing.T) {
	sm := newTestSessionManager(t)
	id := primitive.NewObjectID()
	sm.SetUserFetcher(fakeFetcher{id: true})
	cookie := sessionCookie(t, sm, auth.SessionUser{ID: id.Hex()})

	found := false
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Error("expected user in context")
	}
}

func TestLoadSessionUser_ForeignCookieIgnored(t *testing.T) {
	sm := newTestSessionManager(t)
	other, err := auth.NewSessionManager("another-session-key-that-is-32-chars!", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	cookie := sessionCookie(t, other, auth.SessionUser{ID: primitive.NewObjectID().Hex()})

	found := true
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("cookie signed with another key must not authenticate")
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	user, ok := auth.CurrentUser(req)
	if ok || user != nil {
		t.Errorf("expected no user, got %+v", user)
	}
}

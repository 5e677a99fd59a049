package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stewardhq/steward/internal/rbac"
	"github.com/stewardhq/steward/internal/shared"
	_ "github.com/stewardhq/steward/testing"
)

type stubPermissions struct {
	granted map[int64][]string
}

func (s *stubPermissions) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.granted[userID], nil
}

func requestWithUser(t *testing.T, userID string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	sess, err := manager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequireAnyAllowsGrantedUser(t *testing.T) {
	mw := rbac.Middleware{Service: &stubPermissions{granted: map[int64][]string{
		42: {"users.view"},
	}}}

	called := false
	handler := mw.RequireAny(shared.PermUsersView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, "42"))

	if !called {
		t.Fatalf("expected handler to run")
	}
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestRequireAnyForbidsUngrantedUser(t *testing.T) {
	mw := rbac.Middleware{Service: &stubPermissions{granted: map[int64][]string{
		42: {"roles.view"},
	}}}

	handler := mw.RequireAny(shared.PermUsersView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, "42"))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	mw := rbac.Middleware{Service: &stubPermissions{granted: map[int64][]string{
		42: {"users.view"},
	}}}

	handler := mw.RequireAll(shared.PermUsersView, shared.PermUsersDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, "42"))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestRequireAnyForbidsAnonymous(t *testing.T) {
	mw := rbac.Middleware{Service: &stubPermissions{}}

	handler := mw.RequireAny(shared.PermUsersView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, ""))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

package dashboard_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stewardhq/steward/internal/dashboard"
	_ "github.com/stewardhq/steward/testing"
)

type stubPurger struct {
	calls int
	err   error
}

func (s *stubPurger) EnqueueSessionsPurge(ctx context.Context) error {
	s.calls++
	return s.err
}

func newPurgeHandler(purger dashboard.Purger) *dashboard.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return dashboard.NewHandler(logger, nil, nil, nil, purger)
}

func TestPurgeSessionsEnqueuesAndRedirects(t *testing.T) {
	purger := &stubPurger{}
	handler := newPurgeHandler(purger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/maintenance/sessions/purge", nil)
	handler.PurgeSessions(rec, req)

	assert.Equal(t, 1, purger.calls)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestPurgeSessionsEnqueueFailureStillRedirects(t *testing.T) {
	purger := &stubPurger{err: errors.New("redis down")}
	handler := newPurgeHandler(purger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/maintenance/sessions/purge", nil)
	handler.PurgeSessions(rec, req)

	assert.Equal(t, 1, purger.calls)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

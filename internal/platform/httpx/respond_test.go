package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var pd ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
		assert.Equal(t, tc.status, pd.Status)
	}
}

func TestRespondErrorWrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("one or more selected roles are invalid: %w", ErrValidation))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var pd ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	assert.Contains(t, pd.Detail, "roles are invalid")
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/admin/users/1/roles", nil)
	assert.False(t, WantsJSON(r))

	r.Header.Set("Accept", "application/json, text/plain")
	assert.True(t, WantsJSON(r))

	r = httptest.NewRequest(http.MethodPut, "/admin/users/1/roles", nil)
	r.Header.Set("X-Requested-With", "XMLHttpRequest")
	assert.True(t, WantsJSON(r))
}

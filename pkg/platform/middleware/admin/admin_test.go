package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"marathon/pkg/testutil"
)

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireAdmin(logger)(next)
	participant := uuid.NewString()

	t.Run("admin passes through", func(t *testing.T) {
		reached = false
		req := testutil.WithAdmin(httptest.NewRequest(http.MethodGet, "/admin/races", nil), participant)
		rr := testutil.DoRequest(h, req)

		assert.True(t, reached)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("participant is forbidden", func(t *testing.T) {
		reached = false
		req := testutil.WithParticipant(httptest.NewRequest(http.MethodGet, "/admin/races", nil), participant)
		rr := testutil.DoRequest(h, req)

		assert.False(t, reached)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("no identity is forbidden", func(t *testing.T) {
		reached = false
		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/admin/races", nil))

		assert.False(t, reached)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"marathon/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "active registration conflict", err: &pq.Error{Code: pgUniqueViolation, Constraint: activeRegistrationConstraint}, want: sentinel.ErrConflict},
		{name: "serialization failure", err: &pq.Error{Code: pgSerializationFailure}, want: sentinel.ErrContention},
		{name: "deadlock", err: &pq.Error{Code: pgDeadlockDetected}, want: sentinel.ErrContention},
		{name: "lock timeout", err: &pq.Error{Code: pgLockNotAvailable}, want: sentinel.ErrContention},
		{name: "admin shutdown", err: &pq.Error{Code: pgAdminShutdown}, want: sentinel.ErrUnavailable},
		{name: "connection class", err: &pq.Error{Code: "08006"}, want: sentinel.ErrUnavailable},
		{name: "bad conn", err: fmt.Errorf("query: %w", driver.ErrBadConn), want: sentinel.ErrUnavailable},
		{name: "refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: sentinel.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("op", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "driver error stays in the chain")
		})
	}
}

func TestClassifyLeavesOtherErrorsAlone(t *testing.T) {
	t.Run("other unique violation", func(t *testing.T) {
		got := classify("insert", &pq.Error{Code: pgUniqueViolation, Constraint: "registrations_bib_number_key"})
		assert.NotErrorIs(t, got, sentinel.ErrConflict)
	})

	t.Run("check violation", func(t *testing.T) {
		got := classify("update", &pq.Error{Code: "23514"})
		for _, s := range []error{sentinel.ErrConflict, sentinel.ErrContention, sentinel.ErrUnavailable} {
			assert.NotErrorIs(t, got, s)
		}
	})

	t.Run("context errors pass through", func(t *testing.T) {
		assert.Equal(t, context.DeadlineExceeded, classify("op", context.DeadlineExceeded))
		assert.NotErrorIs(t, classify("op", context.Canceled), sentinel.ErrUnavailable)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, classify("op", nil))
	})

	t.Run("plain error", func(t *testing.T) {
		got := classify("op", errors.New("syntax"))
		assert.NotErrorIs(t, got, sentinel.ErrUnavailable)
	})
}

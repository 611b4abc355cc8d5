// Package tx runs a function inside a database/sql transaction.
package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marathon/pkg/platform/sentinel"
)

// Run begins a transaction, runs fn and commits when fn returns nil. Any
// error or panic from fn rolls back. Begin and commit failures are passed to
// classify so callers can map driver errors to their own sentinels.
//
// A commit the driver attempted but did not confirm additionally wraps
// sentinel.ErrCommitUnknown. A commit refused before reaching the driver
// (context done, transaction already rolled back) does not.
func Run(ctx context.Context, db *sql.DB, opts *sql.TxOptions, classify func(op string, err error) error, fn func(tx *sql.Tx) error) (err error) {
	if classify == nil {
		classify = func(op string, err error) error { return fmt.Errorf("%s: %w", op, err) }
	}
	sqlTx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return classify("begin tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(sqlTx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		if commitNotAttempted(err) {
			return classify("commit tx", err)
		}
		return fmt.Errorf("%w: %w", sentinel.ErrCommitUnknown, classify("commit tx", err))
	}
	committed = true
	return nil
}

// commitNotAttempted reports errors database/sql returns before handing the
// commit to the driver.
func commitNotAttempted(err error) bool {
	return errors.Is(err, sql.ErrTxDone) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

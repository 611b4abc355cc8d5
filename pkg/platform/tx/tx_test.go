package tx_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marathon/pkg/platform/sentinel"
	"marathon/pkg/platform/tx"
)

// recordingDriver is a database/sql driver whose transactions only count
// commits and rollbacks. commitErr, when set, is returned by every commit.
type recordingDriver struct {
	commitErr error
	commits   atomic.Int32
	rollbacks atomic.Int32
}

func (d *recordingDriver) Open(string) (driver.Conn, error)             { return &recordingConn{d: d}, nil }
func (d *recordingDriver) Connect(context.Context) (driver.Conn, error) { return &recordingConn{d: d}, nil }
func (d *recordingDriver) Driver() driver.Driver                        { return d }

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements not supported")
}

func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return &recordingTx{d: c.d}, nil }

type recordingTx struct{ d *recordingDriver }

func (t *recordingTx) Commit() error {
	t.d.commits.Add(1)
	return t.d.commitErr
}

func (t *recordingTx) Rollback() error {
	t.d.rollbacks.Add(1)
	return nil
}

func openRecording(t *testing.T, commitErr error) (*sql.DB, *recordingDriver) {
	t.Helper()
	d := &recordingDriver{commitErr: commitErr}
	db := sql.OpenDB(d)
	t.Cleanup(func() { _ = db.Close() })
	return db, d
}

func TestRunCommits(t *testing.T) {
	db, d := openRecording(t, nil)

	err := tx.Run(context.Background(), db, nil, nil, func(*sql.Tx) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, int32(1), d.commits.Load())
	assert.Equal(t, int32(0), d.rollbacks.Load())
}

func TestRunRollsBackOnError(t *testing.T) {
	db, d := openRecording(t, nil)
	boom := errors.New("race is full")

	err := tx.Run(context.Background(), db, nil, nil, func(*sql.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, sentinel.ErrCommitUnknown)
	assert.Equal(t, int32(0), d.commits.Load())
	assert.Equal(t, int32(1), d.rollbacks.Load())
}

func TestRunFlagsUnconfirmedCommit(t *testing.T) {
	db, d := openRecording(t, errors.New("read: connection reset by peer"))
	classify := func(op string, err error) error {
		return errors.Join(sentinel.ErrUnavailable, errors.New(op), err)
	}

	err := tx.Run(context.Background(), db, nil, classify, func(*sql.Tx) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrCommitUnknown)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable, "classification is kept")
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.Equal(t, int32(1), d.commits.Load())
}

func TestRunCancelledBeforeCommitIsNotUnknown(t *testing.T) {
	db, d := openRecording(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := tx.Run(ctx, db, nil, nil, func(*sql.Tx) error {
		cancel()
		return nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, sentinel.ErrCommitUnknown)
	assert.Equal(t, int32(0), d.commits.Load(), "the driver never saw a commit")
}

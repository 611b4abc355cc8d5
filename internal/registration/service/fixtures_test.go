package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	"marathon/internal/registration/store"
	id "marathon/pkg/domain"
	"marathon/pkg/platform/sentinel"
)

// durableMemory stands in for the Postgres adapter: memory semantics, durable
// mode. Setting down makes every transaction fail as unreachable; hang makes
// calls block until their context ends; lostCommit makes transactions fail
// as if the commit acknowledgement never arrived.
type durableMemory struct {
	*store.InMemoryStore
	down       atomic.Bool
	hang       atomic.Bool
	lostCommit atomic.Bool
}

func newDurableMemory() *durableMemory {
	return &durableMemory{InMemoryStore: store.NewInMemoryStore()}
}

func (d *durableMemory) Mode() ports.Mode { return ports.ModeDurable }

func (d *durableMemory) Ping(ctx context.Context) error {
	if d.hang.Load() {
		<-ctx.Done()
		return ctx.Err()
	}
	if d.down.Load() {
		return sentinel.ErrUnavailable
	}
	return nil
}

func (d *durableMemory) ListRaces(ctx context.Context) ([]*models.Race, error) {
	if d.hang.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return d.InMemoryStore.ListRaces(ctx)
}

func (d *durableMemory) FindRegistration(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	if d.down.Load() {
		return nil, fmt.Errorf("dial tcp: connection refused: %w", sentinel.ErrUnavailable)
	}
	return d.InMemoryStore.FindRegistration(ctx, registrationID)
}

func (d *durableMemory) RunInRaceTx(ctx context.Context, raceID id.RaceID, fn func(tx ports.RaceTx) error) error {
	if d.hang.Load() {
		<-ctx.Done()
		return fmt.Errorf("lock race: %w", ctx.Err())
	}
	if d.lostCommit.Load() {
		return fmt.Errorf("commit tx: %w: read: connection reset by peer: %w", sentinel.ErrCommitUnknown, sentinel.ErrUnavailable)
	}
	if d.down.Load() {
		return fmt.Errorf("dial tcp: connection refused: %w", sentinel.ErrUnavailable)
	}
	return d.InMemoryStore.RunInRaceTx(ctx, raceID, fn)
}

// contendedStore fails the first n race transactions with a lock conflict.
type contendedStore struct {
	ports.Store
	remaining atomic.Int32
	calls     atomic.Int32
}

func (c *contendedStore) RunInRaceTx(ctx context.Context, raceID id.RaceID, fn func(tx ports.RaceTx) error) error {
	c.calls.Add(1)
	if c.remaining.Add(-1) >= 0 {
		return fmt.Errorf("run race tx: %w", sentinel.ErrContention)
	}
	return c.Store.RunInRaceTx(ctx, raceID, fn)
}

// directRunner serves every request from one store.
type directRunner struct {
	store ports.Store
}

func (r directRunner) Do(_ context.Context, fn func(store ports.Store) error) error {
	return fn(r.store)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.RegistrationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.RegistrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marathon/internal/registration/metrics"
	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	id "marathon/pkg/domain"
	"marathon/pkg/platform/circuit"
	"marathon/pkg/platform/sentinel"
)

// Primary is the durable adapter as the selector sees it.
type Primary interface {
	ports.Store
	Ping(ctx context.Context) error
}

// Fallback is the process-local adapter as the selector sees it.
type Fallback interface {
	ports.Store
	SyncRaces(ctx context.Context, races []*models.Race)
}

// Selector picks the persistence adapter for each request. While the breaker
// is closed requests go to the primary; a request that finds the primary
// unavailable is re-run in full on the fallback. Once the breaker opens,
// requests go straight to the fallback until Run's health check closes it again.
//
// Every primary call gets its own deadline, so a database that stops
// answering is treated the same as one that refuses connections.
type Selector struct {
	primary        Primary
	fallback       Fallback
	breaker        *circuit.Breaker
	probeInterval  time.Duration
	primaryTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type SelectorOption func(*Selector)

func WithBreaker(b *circuit.Breaker) SelectorOption {
	return func(s *Selector) { s.breaker = b }
}

func WithProbeInterval(d time.Duration) SelectorOption {
	return func(s *Selector) {
		if d > 0 {
			s.probeInterval = d
		}
	}
}

// WithPrimaryTimeout bounds each primary call. It must leave the caller
// enough of its own deadline to re-run on the fallback.
func WithPrimaryTimeout(d time.Duration) SelectorOption {
	return func(s *Selector) {
		if d > 0 {
			s.primaryTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) SelectorOption {
	return func(s *Selector) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) SelectorOption {
	return func(s *Selector) { s.metrics = m }
}

// NewSelector builds a selector. primary may be nil, in which case every
// request is served by the fallback.
func NewSelector(primary Primary, fallback Fallback, opts ...SelectorOption) *Selector {
	s := &Selector{
		fallback:       fallback,
		probeInterval:  5 * time.Second,
		primaryTimeout: 2 * time.Second,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if primary != nil {
		s.primary = &boundedPrimary{Primary: primary, timeout: s.primaryTimeout}
	}
	if s.breaker == nil {
		s.breaker = circuit.New("durable-store")
	}
	if primary == nil {
		s.breaker.Trip()
	}
	s.metrics.SetFallbackActive(s.breaker.IsOpen())
	return s
}

// Current returns the adapter a request starting now would use.
func (s *Selector) Current() ports.Store {
	if s.primary == nil || s.breaker.IsOpen() {
		return s.fallback
	}
	return s.primary
}

// Do runs fn against the selected adapter. If the primary reports
// sentinel.ErrUnavailable the failure is recorded and fn runs again, from
// the start, on the fallback. A commit whose outcome is unknown is recorded
// as a failure but not re-run, since the primary may already hold the write.
func (s *Selector) Do(ctx context.Context, fn func(store ports.Store) error) error {
	store := s.Current()
	err := fn(store)
	if store != ports.Store(s.primary) {
		return err
	}
	switch {
	case err == nil:
		s.breaker.RecordSuccess()
		return nil
	case errors.Is(err, sentinel.ErrCommitUnknown):
		s.recordFailure(ctx, err)
		s.logger.ErrorContext(ctx, "durable store commit unconfirmed, not re-running on fallback", "error", err)
		return err
	case !errors.Is(err, sentinel.ErrUnavailable):
		return err
	}

	s.recordFailure(ctx, err)
	s.logger.WarnContext(ctx, "durable store unavailable, re-running on fallback", "error", err)
	s.metrics.IncrementFailover()
	return fn(s.fallback)
}

func (s *Selector) recordFailure(ctx context.Context, err error) {
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "durable store circuit opened, serving from fallback", "error", err)
		s.metrics.SetFallbackActive(true)
	}
}

// Run checks the primary until ctx is done. While the breaker is open a
// successful ping counts toward closing it; while closed, race definitions
// and counters are copied into the fallback.
func (s *Selector) Run(ctx context.Context) error {
	if s.primary == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.checkPrimary(ctx)
		}
	}
}

func (s *Selector) checkPrimary(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, s.probeInterval)
	defer cancel()

	if s.breaker.IsOpen() {
		if err := s.primary.Ping(checkCtx); err != nil {
			s.breaker.RecordFailure()
			s.logger.DebugContext(ctx, "durable store health check failed", "error", err)
			return
		}
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "durable store healthy again, circuit closed")
			s.metrics.SetFallbackActive(false)
		}
		return
	}

	if err := s.SyncFallback(checkCtx); err != nil {
		s.logger.WarnContext(ctx, "fallback race sync failed", "error", err)
	}
}

// SyncFallback copies the primary's races into the fallback.
func (s *Selector) SyncFallback(ctx context.Context) error {
	if s.primary == nil {
		return nil
	}
	races, err := s.primary.ListRaces(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			s.recordFailure(ctx, err)
		}
		return err
	}
	s.fallback.SyncRaces(ctx, races)
	return nil
}

// FallbackActive reports whether requests currently bypass the primary.
func (s *Selector) FallbackActive() bool {
	return s.Current() == ports.Store(s.fallback)
}

// boundedPrimary runs every call under its own deadline. A call that overruns
// it while the caller's context is still live is reported as
// sentinel.ErrUnavailable. ErrCommitUnknown is passed through untouched.
type boundedPrimary struct {
	Primary
	timeout time.Duration
}

func (p *boundedPrimary) call(ctx context.Context, op func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := op(callCtx)
	if err == nil || errors.Is(err, sentinel.ErrCommitUnknown) {
		return err
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("durable store gave no answer within %s: %w: %w", p.timeout, sentinel.ErrUnavailable, err)
	}
	return err
}

func (p *boundedPrimary) Ping(ctx context.Context) error {
	return p.call(ctx, p.Primary.Ping)
}

func (p *boundedPrimary) FindRace(ctx context.Context, raceID id.RaceID) (race *models.Race, err error) {
	err = p.call(ctx, func(ctx context.Context) error {
		race, err = p.Primary.FindRace(ctx, raceID)
		return err
	})
	return race, err
}

func (p *boundedPrimary) ListRaces(ctx context.Context) (races []*models.Race, err error) {
	err = p.call(ctx, func(ctx context.Context) error {
		races, err = p.Primary.ListRaces(ctx)
		return err
	})
	return races, err
}

func (p *boundedPrimary) FindRegistration(ctx context.Context, registrationID id.RegistrationID) (reg *models.Registration, err error) {
	err = p.call(ctx, func(ctx context.Context) error {
		reg, err = p.Primary.FindRegistration(ctx, registrationID)
		return err
	})
	return reg, err
}

func (p *boundedPrimary) ListByParticipant(ctx context.Context, participantID id.ParticipantID) (regs []*models.Registration, err error) {
	err = p.call(ctx, func(ctx context.Context) error {
		regs, err = p.Primary.ListByParticipant(ctx, participantID)
		return err
	})
	return regs, err
}

func (p *boundedPrimary) ListByRace(ctx context.Context, raceID id.RaceID) (regs []*models.Registration, err error) {
	err = p.call(ctx, func(ctx context.Context) error {
		regs, err = p.Primary.ListByRace(ctx, raceID)
		return err
	})
	return regs, err
}

// RunInRaceTx bounds the whole transaction. The driver rolls back a
// transaction whose context ends before commit.
func (p *boundedPrimary) RunInRaceTx(ctx context.Context, raceID id.RaceID, fn func(tx ports.RaceTx) error) error {
	return p.call(ctx, func(ctx context.Context) error {
		return p.Primary.RunInRaceTx(ctx, raceID, fn)
	})
}

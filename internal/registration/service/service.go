package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"marathon/internal/registration/bib"
	"marathon/internal/registration/metrics"
	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
	"marathon/pkg/platform/sentinel"
	"marathon/pkg/requestcontext"
)

const (
	defaultTxTimeout      = 5 * time.Second
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 20 * time.Millisecond
	defaultMaxBackoff     = 200 * time.Millisecond
	publishTimeout        = 2 * time.Second
)

// Service owns admission, payment status and lifecycle changes for race
// registrations. Every mutation runs inside one race transaction on the
// adapter the StoreRunner picked for the request.
type Service struct {
	stores         ports.StoreRunner
	bibs           *bib.Generator
	publisher      ports.EventPublisher
	ledger         ports.CallbackLedger
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
	txTimeout      time.Duration
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type Option func(*Service)

func WithBibGenerator(g *bib.Generator) Option {
	return func(s *Service) { s.bibs = g }
}

func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithCallbackLedger(l ports.CallbackLedger) Option {
	return func(s *Service) { s.ledger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithTxTimeout bounds each admission, payment or lifecycle unit.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithRetry sets how often a race transaction is attempted after transient
// conflicts, and the backoff between attempts.
func WithRetry(maxAttempts int, initial, maxInterval time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if initial > 0 {
			s.initialBackoff = initial
		}
		if maxInterval > 0 {
			s.maxBackoff = maxInterval
		}
	}
}

func New(stores ports.StoreRunner, opts ...Option) *Service {
	s := &Service{
		stores:         stores,
		logger:         slog.Default(),
		txTimeout:      defaultTxTimeout,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bibs == nil {
		s.bibs = bib.New()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("marathon/registration")
	}
	return s
}

// inRaceTx runs fn in a race transaction, retrying transient conflicts with
// exponential backoff. Exhausting the attempts yields contention_exceeded.
func (s *Service) inRaceTx(ctx context.Context, store ports.Store, raceID id.RaceID, fn func(tx ports.RaceTx) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.initialBackoff
	policy.MaxInterval = s.maxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := store.RunInRaceTx(ctx, raceID, fn)
		if err == nil || errors.Is(err, sentinel.ErrContention) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.metrics.IncrementContentionRetry()
			s.logger.DebugContext(ctx, "race transaction conflict, retrying",
				"race_id", raceID.String(), "wait", wait, "error", err)
		}),
	)
	if err != nil && errors.Is(err, sentinel.ErrContention) {
		return dErrors.Wrap(err, dErrors.CodeContentionExceeded, "the race is busy, please retry")
	}
	return err
}

// translate maps store sentinels and context errors to domain errors.
// Domain errors pass through unchanged.
func translate(err error, notFound dErrors.Code, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(notFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrCommitUnknown):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "the outcome could not be confirmed, check your registrations before retrying")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "the request timed out")
	case errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "the request was cancelled")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "registration storage is unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
	}
}

// publish sends an event after commit. Failures are logged and counted only.
func (s *Service) publish(ctx context.Context, event models.RegistrationEvent) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.metrics.IncrementEventPublishFailure(string(event.Type))
		s.logger.WarnContext(ctx, "failed to publish registration event",
			"type", event.Type,
			"registration_id", event.RegistrationID,
			"error", err,
		)
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.txTimeout)
}

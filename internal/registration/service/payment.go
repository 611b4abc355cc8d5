package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
	"marathon/pkg/platform/sentinel"
	"marathon/pkg/requestcontext"
)

const (
	sourceCallback = "callback"
	sourceAdmin    = "admin"
)

// ApplyPaymentOutcome applies a payment provider callback. Deliveries already
// recorded in the callback ledger, and outcomes equal to the current payment
// status, come back as duplicates with no change made.
func (s *Service) ApplyPaymentOutcome(ctx context.Context, registrationID id.RegistrationID, outcome models.PaymentStatus, transactionID string) (*models.PaymentResult, error) {
	return s.applyPayment(ctx, registrationID, outcome, transactionID, sourceCallback)
}

// OverridePaymentStatus is the administrative path for the same state
// machine, used to resolve registrations stuck in pending.
func (s *Service) OverridePaymentStatus(ctx context.Context, registrationID id.RegistrationID, outcome models.PaymentStatus, transactionID string) (*models.PaymentResult, error) {
	return s.applyPayment(ctx, registrationID, outcome, transactionID, sourceAdmin)
}

func (s *Service) applyPayment(ctx context.Context, registrationID id.RegistrationID, outcome models.PaymentStatus, transactionID, source string) (*models.PaymentResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.apply_payment", trace.WithAttributes(
		attribute.String("registration.id", registrationID.String()),
		attribute.String("payment.outcome", string(outcome)),
		attribute.String("payment.source", source),
	))
	defer span.End()

	if !outcome.IsOutcome() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of completed, failed, refunded")
	}
	transactionID = strings.TrimSpace(transactionID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := ledgerKey(registrationID, transactionID, outcome)
	if source == sourceCallback && s.ledger != nil {
		seen, err := s.ledger.Seen(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "callback ledger lookup failed", "error", err)
		}
		if seen {
			return s.duplicatePayment(ctx, registrationID, outcome, source)
		}
	}

	now := requestcontext.Now(ctx)
	var (
		result *models.PaymentResult
		mode   ports.Mode
	)
	err := s.stores.Do(ctx, func(store ports.Store) error {
		result = nil
		mode = store.Mode()
		current, err := store.FindRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		return s.inRaceTx(ctx, store, current.RaceID, func(tx ports.RaceTx) error {
			reg, err := tx.FindRegistration(ctx, registrationID)
			if err != nil {
				return err
			}
			transition, err := reg.ApplyPaymentOutcome(outcome, transactionID, now)
			if err != nil {
				return err
			}
			if transition.Duplicate {
				result = &models.PaymentResult{Registration: reg, Duplicate: true}
				return nil
			}
			if err := tx.UpdatePaymentStatus(ctx, reg); err != nil {
				return err
			}
			if transition.ReleaseSlot {
				if err := releaseSlot(ctx, tx); err != nil {
					return err
				}
			}
			result = &models.PaymentResult{Registration: reg, Released: transition.ReleaseSlot}
			return nil
		})
	})
	if err != nil {
		err = translate(err, dErrors.CodeRegistrationNotFound, "registration not found")
		s.metrics.IncrementPaymentTransition(string(outcome), string(dErrors.CodeOf(err)))
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.logger.WarnContext(ctx, "payment outcome rejected",
			"registration_id", registrationID.String(),
			"outcome", outcome,
			"source", source,
			"reason", dErrors.CodeOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	if result.Duplicate {
		s.metrics.IncrementPaymentTransition(string(outcome), "duplicate")
		s.logger.InfoContext(ctx, "duplicate payment outcome ignored",
			"registration_id", registrationID.String(),
			"outcome", outcome,
			"source", source,
		)
		s.rememberCallback(ctx, key, source)
		return result, nil
	}

	s.metrics.IncrementPaymentTransition(string(outcome), "applied")
	if result.Released {
		s.metrics.IncrementCapacityRelease("payment_" + string(outcome))
	}
	s.logger.InfoContext(ctx, "payment outcome applied",
		"registration_id", registrationID.String(),
		"outcome", outcome,
		"source", source,
		"capacity_released", result.Released,
		"store_mode", mode,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.rememberCallback(ctx, key, source)
	s.publish(ctx, models.NewRegistrationEvent(models.PaymentEventType(outcome), result.Registration, string(mode), now))
	return result, nil
}

func (s *Service) duplicatePayment(ctx context.Context, registrationID id.RegistrationID, outcome models.PaymentStatus, source string) (*models.PaymentResult, error) {
	var reg *models.Registration
	err := s.stores.Do(ctx, func(store ports.Store) error {
		var err error
		reg, err = store.FindRegistration(ctx, registrationID)
		return err
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeRegistrationNotFound, "registration not found")
	}
	s.metrics.IncrementPaymentTransition(string(outcome), "duplicate")
	s.logger.InfoContext(ctx, "duplicate payment callback ignored",
		"registration_id", registrationID.String(),
		"outcome", outcome,
		"source", source,
	)
	return &models.PaymentResult{Registration: reg, Duplicate: true}, nil
}

func (s *Service) rememberCallback(ctx context.Context, key, source string) {
	if source != sourceCallback || s.ledger == nil {
		return
	}
	if err := s.ledger.Remember(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to record payment callback", "error", err)
	}
}

// releaseSlot returns one seat to the race. A counter already at zero while
// a registration still held a slot means the counters are corrupt.
func releaseSlot(ctx context.Context, tx ports.RaceTx) error {
	if err := tx.ReleaseCapacity(ctx); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "race participant count is already zero")
		}
		return err
	}
	return nil
}

func ledgerKey(registrationID id.RegistrationID, transactionID string, outcome models.PaymentStatus) string {
	return strings.Join([]string{registrationID.String(), transactionID, string(outcome)}, "|")
}

package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
	"marathon/pkg/requestcontext"
)

// AdvanceStatus moves a registration along the race-day lifecycle. Setting
// the current status again is a no-op. Cancelling a registration that still
// holds a slot releases it.
func (s *Service) AdvanceStatus(ctx context.Context, registrationID id.RegistrationID, next models.RegistrationStatus) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.advance_status", trace.WithAttributes(
		attribute.String("registration.id", registrationID.String()),
		attribute.String("registration.status", string(next)),
	))
	defer span.End()

	if !next.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown registration status")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := requestcontext.Now(ctx)
	var (
		updated    *models.Registration
		transition models.Transition
		mode       ports.Mode
	)
	err := s.stores.Do(ctx, func(store ports.Store) error {
		updated = nil
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
			transition, err = reg.AdvanceStatus(next, now)
			if err != nil {
				return err
			}
			updated = reg
			if transition.Duplicate {
				return nil
			}
			if err := tx.UpdateStatus(ctx, reg); err != nil {
				return err
			}
			if transition.ReleaseSlot {
				return releaseSlot(ctx, tx)
			}
			return nil
		})
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeRegistrationNotFound, "registration not found")
	}
	if transition.Duplicate {
		return updated, nil
	}

	if transition.ReleaseSlot {
		s.metrics.IncrementCapacityRelease("cancelled")
	}
	s.logger.InfoContext(ctx, "registration status changed",
		"registration_id", registrationID.String(),
		"status", next,
		"capacity_released", transition.ReleaseSlot,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.publish(ctx, models.NewRegistrationEvent(models.EventStatusChanged, updated, string(mode), now))
	return updated, nil
}

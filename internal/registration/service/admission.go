package service

import (
	"context"
	"errors"
	"time"

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

// Register admits participantID to raceID. Checks run in a fixed order and
// the first failure is returned with its own code. On success capacity, bib
// and the pending registration are committed together.
func (s *Service) Register(ctx context.Context, participantID id.ParticipantID, raceID id.RaceID, details models.RegistrationDetails, origin models.WaiverOrigin) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.register", trace.WithAttributes(
		attribute.String("race.id", raceID.String()),
	))
	defer span.End()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	details.Normalize()
	now := requestcontext.Now(ctx)
	start := time.Now()

	var (
		created *models.Registration
		mode    ports.Mode
	)
	err := s.stores.Do(ctx, func(store ports.Store) error {
		created = nil
		mode = store.Mode()
		return s.inRaceTx(ctx, store, raceID, func(tx ports.RaceTx) error {
			reg, err := s.admit(ctx, tx, participantID, details, origin, now, mode == ports.ModeFallback)
			if err != nil {
				return err
			}
			created = reg
			return nil
		})
	})
	s.metrics.ObserveAdmissionLatency(string(mode), time.Since(start))

	if err != nil {
		err = translateAdmission(err)
		s.metrics.IncrementAdmission(string(dErrors.CodeOf(err)), string(mode))
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.logAdmissionFailure(ctx, raceID, err)
		return nil, err
	}

	s.metrics.IncrementAdmission("admitted", string(mode))
	span.SetAttributes(attribute.String("store.mode", string(mode)), attribute.String("registration.bib", created.BibNumber))
	s.logger.InfoContext(ctx, "registration admitted",
		"race_id", raceID.String(),
		"registration_id", created.ID.String(),
		"bib_number", created.BibNumber,
		"store_mode", mode,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.publish(ctx, models.NewRegistrationEvent(models.EventRegistrationCreated, created, string(mode), now))
	return created, nil
}

// admit is the body of the admission transaction.
func (s *Service) admit(ctx context.Context, tx ports.RaceTx, participantID id.ParticipantID, details models.RegistrationDetails, origin models.WaiverOrigin, now time.Time, fallback bool) (*models.Registration, error) {
	race := tx.Race()
	active, err := tx.FindActiveRegistration(ctx, participantID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}
	if err := models.CheckAdmission(race, active, details, now); err != nil {
		return nil, err
	}
	if err := tx.ReserveCapacity(ctx); err != nil {
		return nil, err
	}
	bibNumber, err := s.bibs.Next(ctx, tx, fallback)
	if err != nil {
		return nil, err
	}
	reg := models.NewRegistration(race, participantID, bibNumber, details, origin, now)
	if err := tx.InsertRegistrationIfAbsent(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func translateAdmission(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrCapacityExhausted):
		return dErrors.New(dErrors.CodeRaceFull, "this race is full")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeAlreadyRegistered, "you are already registered for this race")
	}
	return translate(err, dErrors.CodeRaceNotFound, "race not found")
}

func (s *Service) logAdmissionFailure(ctx context.Context, raceID id.RaceID, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"race_id", raceID.String(),
		"reason", code,
		"request_id", requestcontext.RequestID(ctx),
	}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation, dErrors.CodeUnavailable:
		s.logger.ErrorContext(ctx, "registration failed", append(attrs, "error", err)...)
	case dErrors.CodeContentionExceeded, dErrors.CodeTimeout:
		s.logger.WarnContext(ctx, "registration failed", append(attrs, "error", err)...)
	default:
		s.logger.InfoContext(ctx, "registration rejected", attrs...)
	}
}

package service

import (
	"context"
	"errors"

	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
	"marathon/pkg/platform/sentinel"
)

// GetRace returns the race with its latest committed participant count.
func (s *Service) GetRace(ctx context.Context, raceID id.RaceID) (*models.Race, error) {
	var race *models.Race
	err := s.stores.Do(ctx, func(store ports.Store) error {
		var err error
		race, err = store.FindRace(ctx, raceID)
		return err
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeRaceNotFound, "race not found")
	}
	return race, nil
}

// ListRaces returns active races.
func (s *Service) ListRaces(ctx context.Context) ([]*models.Race, error) {
	var races []*models.Race
	err := s.stores.Do(ctx, func(store ports.Store) error {
		all, err := store.ListRaces(ctx)
		if err != nil {
			return err
		}
		races = make([]*models.Race, 0, len(all))
		for _, r := range all {
			if r.IsActive {
				races = append(races, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeNotFound, "no races")
	}
	return races, nil
}

// GetRegistration returns one of the participant's registrations. Another
// participant's registration is reported as not found.
func (s *Service) GetRegistration(ctx context.Context, participantID id.ParticipantID, registrationID id.RegistrationID) (*models.RegistrationView, error) {
	var view *models.RegistrationView
	err := s.stores.Do(ctx, func(store ports.Store) error {
		reg, err := store.FindRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		if reg.ParticipantID != participantID {
			return dErrors.New(dErrors.CodeRegistrationNotFound, "registration not found")
		}
		views, err := withRaces(ctx, store, []*models.Registration{reg})
		if err != nil {
			return err
		}
		view = &views[0]
		return nil
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeRegistrationNotFound, "registration not found")
	}
	return view, nil
}

// ListMyRegistrations returns the participant's registrations, newest first,
// each with its race.
func (s *Service) ListMyRegistrations(ctx context.Context, participantID id.ParticipantID) ([]models.RegistrationView, error) {
	var views []models.RegistrationView
	err := s.stores.Do(ctx, func(store ports.Store) error {
		regs, err := store.ListByParticipant(ctx, participantID)
		if err != nil {
			return err
		}
		views, err = withRaces(ctx, store, regs)
		return err
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeNotFound, "registrations not found")
	}
	return views, nil
}

// ListRaceRegistrations returns every registration of a race for reporting.
func (s *Service) ListRaceRegistrations(ctx context.Context, raceID id.RaceID) ([]models.RegistrationView, error) {
	var views []models.RegistrationView
	err := s.stores.Do(ctx, func(store ports.Store) error {
		race, err := store.FindRace(ctx, raceID)
		if err != nil {
			return err
		}
		regs, err := store.ListByRace(ctx, raceID)
		if err != nil {
			return err
		}
		views = make([]models.RegistrationView, 0, len(regs))
		for _, reg := range regs {
			views = append(views, models.RegistrationView{Registration: reg, Race: race})
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeRaceNotFound, "race not found")
	}
	return views, nil
}

// RaceStats tallies a race's registrations by payment and lifecycle status.
func (s *Service) RaceStats(ctx context.Context, raceID id.RaceID) (*models.RaceStats, error) {
	var stats models.RaceStats
	err := s.stores.Do(ctx, func(store ports.Store) error {
		race, err := store.FindRace(ctx, raceID)
		if err != nil {
			return err
		}
		regs, err := store.ListByRace(ctx, raceID)
		if err != nil {
			return err
		}
		stats = models.NewRaceStats(race, regs)
		return nil
	})
	if err != nil {
		return nil, translate(err, dErrors.CodeRaceNotFound, "race not found")
	}
	return &stats, nil
}

// withRaces pairs registrations with their races, loading each race once.
// A race that no longer exists leaves the view's race nil.
func withRaces(ctx context.Context, store ports.Store, regs []*models.Registration) ([]models.RegistrationView, error) {
	races := make(map[id.RaceID]*models.Race)
	views := make([]models.RegistrationView, 0, len(regs))
	for _, reg := range regs {
		race, ok := races[reg.RaceID]
		if !ok {
			r, err := store.FindRace(ctx, reg.RaceID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, err
			}
			race = r
			races[reg.RaceID] = race
		}
		views = append(views, models.RegistrationView{Registration: reg, Race: race})
	}
	return views, nil
}

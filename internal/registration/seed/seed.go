// Package seed loads race definitions from YAML.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"marathon/internal/registration/models"
)

type file struct {
	Races []*models.Race `yaml:"races"`
}

// RaceUpserter writes race definitions without touching their counters.
type RaceUpserter interface {
	UpsertRace(ctx context.Context, race *models.Race) error
}

// LoadFile reads and validates races from path.
func LoadFile(path string) ([]*models.Race, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]*models.Race, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	seen := make(map[string]bool, len(f.Races))
	for i, race := range f.Races {
		if err := validate(race); err != nil {
			return nil, fmt.Errorf("race %d: %w", i, err)
		}
		if seen[race.ID.String()] {
			return nil, fmt.Errorf("race %d: duplicate id %s", i, race.ID)
		}
		seen[race.ID.String()] = true
	}
	return f.Races, nil
}

func validate(race *models.Race) error {
	switch {
	case race == nil:
		return fmt.Errorf("empty entry")
	case race.ID.IsNil():
		return fmt.Errorf("id is required")
	case strings.TrimSpace(race.Name) == "":
		return fmt.Errorf("name is required")
	case !race.Distance.IsValid():
		return fmt.Errorf("unknown distance %q", race.Distance)
	case race.Fee < 0:
		return fmt.Errorf("fee must not be negative")
	case race.Currency == "":
		return fmt.Errorf("currency is required")
	case race.MaxParticipants < 0:
		return fmt.Errorf("max_participants must not be negative")
	case race.RegistrationDeadline.IsZero():
		return fmt.Errorf("registration_deadline is required")
	}
	return nil
}

// Apply upserts every race and stops at the first failure.
func Apply(ctx context.Context, dst RaceUpserter, races []*models.Race) error {
	for _, race := range races {
		if err := dst.UpsertRace(ctx, race); err != nil {
			return fmt.Errorf("upsert race %s: %w", race.ID, err)
		}
	}
	return nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	id "marathon/pkg/domain"
	"marathon/pkg/platform/sentinel"
)

// InMemoryStore is the process-local fallback adapter.
//
// A per-race mutex is held for the whole of RunInRaceTx, so check, reserve,
// bib and insert happen as one step per race. Writes are staged on the tx and
// copied into the maps only after fn returns nil. mu guards the maps
// themselves and is only held briefly.
type InMemoryStore struct {
	mu            sync.RWMutex
	races         map[id.RaceID]*models.Race
	registrations map[id.RegistrationID]*models.Registration
	byParticipant map[id.ParticipantID][]id.RegistrationID
	byRace        map[id.RaceID][]id.RegistrationID

	locksMu   sync.Mutex
	raceLocks map[id.RaceID]*sync.Mutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		races:         make(map[id.RaceID]*models.Race),
		registrations: make(map[id.RegistrationID]*models.Registration),
		byParticipant: make(map[id.ParticipantID][]id.RegistrationID),
		byRace:        make(map[id.RaceID][]id.RegistrationID),
		raceLocks:     make(map[id.RaceID]*sync.Mutex),
	}
}

func (s *InMemoryStore) Mode() ports.Mode { return ports.ModeFallback }

func (s *InMemoryStore) raceLock(raceID id.RaceID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.raceLocks[raceID]
	if !ok {
		l = &sync.Mutex{}
		s.raceLocks[raceID] = l
	}
	return l
}

func (s *InMemoryStore) FindRace(_ context.Context, raceID id.RaceID) (*models.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	race, ok := s.races[raceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return race.Clone(), nil
}

func (s *InMemoryStore) ListRaces(_ context.Context) ([]*models.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Race, 0, len(s.races))
	for _, r := range s.races {
		out = append(out, r.Clone())
	}
	sortRaces(out)
	return out, nil
}

func (s *InMemoryStore) FindRegistration(_ context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registrations[registrationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return reg.Clone(), nil
}

func (s *InMemoryStore) ListByParticipant(_ context.Context, participantID id.ParticipantID) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byParticipant[participantID]), nil
}

func (s *InMemoryStore) ListByRace(_ context.Context, raceID id.RaceID) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byRace[raceID]), nil
}

// collect copies registrations, newest first. Caller holds mu.
func (s *InMemoryStore) collect(ids []id.RegistrationID) []*models.Registration {
	out := make([]*models.Registration, 0, len(ids))
	for _, regID := range ids {
		out = append(out, s.registrations[regID].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out
}

// UpsertRace stores a race definition. Counters on an existing race are kept.
func (s *InMemoryStore) UpsertRace(_ context.Context, race *models.Race) error {
	lock := s.raceLock(race.ID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.races[race.ID]
	if !ok {
		s.races[race.ID] = race.Clone()
		return nil
	}
	next := race.Clone()
	next.CurrentParticipants = existing.CurrentParticipants
	next.BibSequence = existing.BibSequence
	next.CreatedAt = existing.CreatedAt
	s.races[race.ID] = next
	return nil
}

// SyncRaces copies races from the durable store. Counters only move up, so a
// later failover never admits past what the durable store had already admitted.
func (s *InMemoryStore) SyncRaces(_ context.Context, races []*models.Race) {
	for _, race := range races {
		lock := s.raceLock(race.ID)
		lock.Lock()
		s.mu.Lock()
		next := race.Clone()
		if existing, ok := s.races[race.ID]; ok {
			next.CurrentParticipants = max(existing.CurrentParticipants, race.CurrentParticipants)
			next.BibSequence = max(existing.BibSequence, race.BibSequence)
		}
		s.races[race.ID] = next
		s.mu.Unlock()
		lock.Unlock()
	}
}

func (s *InMemoryStore) RunInRaceTx(ctx context.Context, raceID id.RaceID, fn func(tx ports.RaceTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.raceLock(raceID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	race, err := s.FindRace(ctx, raceID)
	if err != nil {
		return err
	}
	tx := &memoryRaceTx{
		store:   s,
		race:    race,
		updates: make(map[id.RegistrationID]*models.Registration),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *InMemoryStore) commit(tx *memoryRaceTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.races[tx.race.ID] = tx.race.Clone()
	for _, reg := range tx.inserts {
		s.registrations[reg.ID] = reg.Clone()
		s.byParticipant[reg.ParticipantID] = append(s.byParticipant[reg.ParticipantID], reg.ID)
		s.byRace[reg.RaceID] = append(s.byRace[reg.RaceID], reg.ID)
	}
	for regID, reg := range tx.updates {
		s.registrations[regID] = reg.Clone()
	}
}

// memoryRaceTx stages writes for one race. Reads see staged writes first.
type memoryRaceTx struct {
	store   *InMemoryStore
	race    *models.Race
	inserts []*models.Registration
	updates map[id.RegistrationID]*models.Registration
}

func (t *memoryRaceTx) Race() *models.Race { return t.race.Clone() }

func (t *memoryRaceTx) lookup(regID id.RegistrationID) (*models.Registration, bool) {
	if reg, ok := t.updates[regID]; ok {
		return reg, true
	}
	for _, reg := range t.inserts {
		if reg.ID == regID {
			return reg, true
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	reg, ok := t.store.registrations[regID]
	return reg, ok
}

func (t *memoryRaceTx) FindActiveRegistration(_ context.Context, participantID id.ParticipantID) (*models.Registration, error) {
	t.store.mu.RLock()
	candidates := append([]id.RegistrationID(nil), t.store.byParticipant[participantID]...)
	t.store.mu.RUnlock()
	for _, reg := range t.inserts {
		if reg.ParticipantID == participantID {
			candidates = append(candidates, reg.ID)
		}
	}
	for _, regID := range candidates {
		reg, ok := t.lookup(regID)
		if ok && reg.RaceID == t.race.ID && reg.HoldsSlot() {
			return reg.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (t *memoryRaceTx) FindRegistration(_ context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	reg, ok := t.lookup(registrationID)
	if !ok || reg.RaceID != t.race.ID {
		return nil, sentinel.ErrNotFound
	}
	return reg.Clone(), nil
}

func (t *memoryRaceTx) ReserveCapacity(context.Context) error {
	if !t.race.HasCapacity() {
		return sentinel.ErrCapacityExhausted
	}
	t.race.CurrentParticipants++
	return nil
}

func (t *memoryRaceTx) ReleaseCapacity(context.Context) error {
	if t.race.CurrentParticipants <= 0 {
		return sentinel.ErrInvalidState
	}
	t.race.CurrentParticipants--
	return nil
}

func (t *memoryRaceTx) NextBibSequence(context.Context) (int, error) {
	t.race.BibSequence++
	return t.race.BibSequence, nil
}

func (t *memoryRaceTx) InsertRegistrationIfAbsent(ctx context.Context, reg *models.Registration) error {
	if reg.RaceID != t.race.ID {
		return sentinel.ErrInvalidState
	}
	if _, err := t.FindActiveRegistration(ctx, reg.ParticipantID); err == nil {
		return sentinel.ErrConflict
	}
	t.inserts = append(t.inserts, reg.Clone())
	return nil
}

func (t *memoryRaceTx) UpdatePaymentStatus(ctx context.Context, reg *models.Registration) error {
	return t.stageUpdate(ctx, reg, func(dst *models.Registration) {
		dst.PaymentStatus = reg.PaymentStatus
		dst.TransactionID = reg.TransactionID
		dst.Status = reg.Status
		dst.UpdatedAt = reg.UpdatedAt
	})
}

func (t *memoryRaceTx) UpdateStatus(ctx context.Context, reg *models.Registration) error {
	return t.stageUpdate(ctx, reg, func(dst *models.Registration) {
		dst.Status = reg.Status
		dst.UpdatedAt = reg.UpdatedAt
	})
}

func (t *memoryRaceTx) stageUpdate(ctx context.Context, reg *models.Registration, apply func(dst *models.Registration)) error {
	current, err := t.FindRegistration(ctx, reg.ID)
	if err != nil {
		return err
	}
	apply(current)
	for i, staged := range t.inserts {
		if staged.ID == reg.ID {
			t.inserts[i] = current
			return nil
		}
	}
	t.updates[reg.ID] = current
	return nil
}

func sortRaces(races []*models.Race) {
	sort.SliceStable(races, func(i, j int) bool {
		if !races[i].StartTime.Equal(races[j].StartTime) {
			return races[i].StartTime.Before(races[j].StartTime)
		}
		return races[i].Name < races[j].Name
	})
}

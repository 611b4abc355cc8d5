package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marathon/internal/registration/models"
	"marathon/internal/registration/ports"
	id "marathon/pkg/domain"
	"marathon/pkg/platform/sentinel"
	txutil "marathon/pkg/platform/tx"
)

const (
	raceColumns = `id, name, distance, distance_km, fee, currency, max_participants, current_participants,
		bib_sequence, registration_open, registration_deadline, start_time, is_active, created_at, updated_at`

	registrationColumns = `id, participant_id, race_id, bib_number, amount_paid, currency, payment_method,
		payment_status, transaction_id, status, tshirt_size, dietary_requirements, estimated_finish_time,
		previous_marathon_experience, emergency_contact_name, emergency_contact_phone, medical_conditions,
		waiver_signed, waiver_signed_at, waiver_ip, waiver_device, registered_at, updated_at`

	activePredicate = `payment_status IN ('pending', 'completed') AND status <> 'cancelled'`

	defaultLockTimeout = 2 * time.Second
)

// PostgresStore is the durable adapter. The race row lock taken at the start
// of RunInRaceTx serializes all writers of one race; other races never wait.
type PostgresStore struct {
	db          *sql.DB
	lockTimeout time.Duration
}

type PostgresOption func(*PostgresStore)

// WithLockTimeout bounds how long a transaction waits for the race row lock.
// A timeout surfaces as contention and is retried by the service.
func WithLockTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) Mode() ports.Mode { return ports.ModeDurable }

// Ping reports whether the database answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (s *PostgresStore) FindRace(ctx context.Context, raceID id.RaceID) (*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races WHERE id = $1`
	race, err := scanRace(s.db.QueryRowContext(ctx, query, raceID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify("find race", err)
	}
	return race, nil
}

func (s *PostgresStore) ListRaces(ctx context.Context) ([]*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races ORDER BY start_time, name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list races", err)
	}
	defer rows.Close()

	var races []*models.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, classify("scan race", err)
		}
		races = append(races, race)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list races", err)
	}
	return races, nil
}

func (s *PostgresStore) FindRegistration(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(s.db.QueryRowContext(ctx, query, registrationID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify("find registration", err)
	}
	return reg, nil
}

func (s *PostgresStore) ListByParticipant(ctx context.Context, participantID id.ParticipantID) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE participant_id = $1 ORDER BY registered_at DESC`
	return s.listRegistrations(ctx, "list registrations by participant", query, participantID.String())
}

func (s *PostgresStore) ListByRace(ctx context.Context, raceID id.RaceID) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE race_id = $1 ORDER BY registered_at DESC`
	return s.listRegistrations(ctx, "list registrations by race", query, raceID.String())
}

func (s *PostgresStore) listRegistrations(ctx context.Context, op, query string, arg any) ([]*models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := []*models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// UpsertRace writes a race definition. Capacity counter and bib sequence are
// never touched by an update.
func (s *PostgresStore) UpsertRace(ctx context.Context, race *models.Race) error {
	query := `
		INSERT INTO races (id, name, distance, distance_km, fee, currency, max_participants,
			registration_open, registration_deadline, start_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			distance = EXCLUDED.distance,
			distance_km = EXCLUDED.distance_km,
			fee = EXCLUDED.fee,
			currency = EXCLUDED.currency,
			max_participants = EXCLUDED.max_participants,
			registration_open = EXCLUDED.registration_open,
			registration_deadline = EXCLUDED.registration_deadline,
			start_time = EXCLUDED.start_time,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		race.ID.String(),
		race.Name,
		string(race.Distance),
		race.DistanceKm,
		race.Fee,
		race.Currency,
		race.MaxParticipants,
		race.RegistrationOpen,
		storedDeadline(race.RegistrationDeadline),
		nullTime(race.StartTime),
		race.IsActive,
	)
	if err != nil {
		return classify("upsert race", err)
	}
	return nil
}

func (s *PostgresStore) RunInRaceTx(ctx context.Context, raceID id.RaceID, fn func(tx ports.RaceTx) error) error {
	return txutil.Run(ctx, s.db, nil, classify, func(sqlTx *sql.Tx) error {
		lockTimeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := sqlTx.ExecContext(ctx, lockTimeout); err != nil {
			return classify("set lock timeout", err)
		}

		query := `SELECT ` + raceColumns + ` FROM races WHERE id = $1 FOR UPDATE`
		race, err := scanRace(sqlTx.QueryRowContext(ctx, query, raceID.String()))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return classify("lock race", err)
		}
		return fn(&postgresRaceTx{tx: sqlTx, race: race})
	})
}

type postgresRaceTx struct {
	tx   *sql.Tx
	race *models.Race
}

func (t *postgresRaceTx) Race() *models.Race { return t.race.Clone() }

func (t *postgresRaceTx) FindActiveRegistration(ctx context.Context, participantID id.ParticipantID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations
		WHERE participant_id = $1 AND race_id = $2 AND ` + activePredicate + ` LIMIT 1`
	reg, err := scanRegistration(t.tx.QueryRowContext(ctx, query, participantID.String(), t.race.ID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify("find active registration", err)
	}
	return reg, nil
}

func (t *postgresRaceTx) FindRegistration(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 AND race_id = $2 FOR UPDATE`
	reg, err := scanRegistration(t.tx.QueryRowContext(ctx, query, registrationID.String(), t.race.ID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify("find registration", err)
	}
	return reg, nil
}

func (t *postgresRaceTx) ReserveCapacity(ctx context.Context) error {
	query := `
		UPDATE races
		SET current_participants = current_participants + 1, updated_at = NOW()
		WHERE id = $1 AND current_participants < max_participants
		RETURNING current_participants
	`
	var current int
	if err := t.tx.QueryRowContext(ctx, query, t.race.ID.String()).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrCapacityExhausted
		}
		return classify("reserve capacity", err)
	}
	t.race.CurrentParticipants = current
	return nil
}

func (t *postgresRaceTx) ReleaseCapacity(ctx context.Context) error {
	query := `
		UPDATE races
		SET current_participants = current_participants - 1, updated_at = NOW()
		WHERE id = $1 AND current_participants > 0
		RETURNING current_participants
	`
	var current int
	if err := t.tx.QueryRowContext(ctx, query, t.race.ID.String()).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrInvalidState
		}
		return classify("release capacity", err)
	}
	t.race.CurrentParticipants = current
	return nil
}

func (t *postgresRaceTx) NextBibSequence(ctx context.Context) (int, error) {
	query := `UPDATE races SET bib_sequence = bib_sequence + 1 WHERE id = $1 RETURNING bib_sequence`
	var seq int
	if err := t.tx.QueryRowContext(ctx, query, t.race.ID.String()).Scan(&seq); err != nil {
		return 0, classify("next bib sequence", err)
	}
	t.race.BibSequence = seq
	return seq, nil
}

// InsertRegistrationIfAbsent relies on the partial unique index over active
// registrations; a violation surfaces as sentinel.ErrConflict.
func (t *postgresRaceTx) InsertRegistrationIfAbsent(ctx context.Context, reg *models.Registration) error {
	query := `INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := t.tx.ExecContext(ctx, query,
		reg.ID.String(),
		reg.ParticipantID.String(),
		reg.RaceID.String(),
		reg.BibNumber,
		reg.AmountPaid,
		reg.Currency,
		reg.PaymentMethod,
		string(reg.PaymentStatus),
		reg.TransactionID,
		string(reg.Status),
		reg.TShirtSize,
		reg.DietaryRequirements,
		reg.EstimatedFinishTime,
		reg.PreviousMarathonExperience,
		reg.EmergencyContactName,
		reg.EmergencyContactPhone,
		reg.MedicalConditions,
		reg.WaiverSigned,
		reg.WaiverSignedAt,
		reg.WaiverIP,
		reg.WaiverDevice,
		reg.RegisteredAt,
		reg.UpdatedAt,
	)
	if err != nil {
		return classify("insert registration", err)
	}
	return nil
}

func (t *postgresRaceTx) UpdatePaymentStatus(ctx context.Context, reg *models.Registration) error {
	query := `
		UPDATE registrations
		SET payment_status = $2, transaction_id = $3, status = $4, updated_at = $5
		WHERE id = $1 AND race_id = $6
	`
	return t.execUpdate(ctx, "update payment status", query,
		reg.ID.String(), string(reg.PaymentStatus), reg.TransactionID, string(reg.Status), reg.UpdatedAt, t.race.ID.String())
}

func (t *postgresRaceTx) UpdateStatus(ctx context.Context, reg *models.Registration) error {
	query := `UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1 AND race_id = $4`
	return t.execUpdate(ctx, "update registration status", query,
		reg.ID.String(), string(reg.Status), reg.UpdatedAt, t.race.ID.String())
}

func (t *postgresRaceTx) execUpdate(ctx context.Context, op, query string, args ...any) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRace(row rowScanner) (*models.Race, error) {
	var (
		race      models.Race
		raceID    string
		distance  string
		startTime sql.NullTime
	)
	err := row.Scan(
		&raceID,
		&race.Name,
		&distance,
		&race.DistanceKm,
		&race.Fee,
		&race.Currency,
		&race.MaxParticipants,
		&race.CurrentParticipants,
		&race.BibSequence,
		&race.RegistrationOpen,
		&race.RegistrationDeadline,
		&startTime,
		&race.IsActive,
		&race.CreatedAt,
		&race.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseRaceID(raceID)
	if err != nil {
		return nil, fmt.Errorf("stored race id %q is not a valid uuid", raceID)
	}
	race.ID = parsed
	race.Distance = models.DistanceClass(distance)
	if startTime.Valid {
		race.StartTime = startTime.Time
	}
	return &race, nil
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		reg                          models.Registration
		regID, participantID, raceID string
		paymentStatus, status        string
	)
	err := row.Scan(
		&regID,
		&participantID,
		&raceID,
		&reg.BibNumber,
		&reg.AmountPaid,
		&reg.Currency,
		&reg.PaymentMethod,
		&paymentStatus,
		&reg.TransactionID,
		&status,
		&reg.TShirtSize,
		&reg.DietaryRequirements,
		&reg.EstimatedFinishTime,
		&reg.PreviousMarathonExperience,
		&reg.EmergencyContactName,
		&reg.EmergencyContactPhone,
		&reg.MedicalConditions,
		&reg.WaiverSigned,
		&reg.WaiverSignedAt,
		&reg.WaiverIP,
		&reg.WaiverDevice,
		&reg.RegisteredAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reg.ID, err = id.ParseRegistrationID(regID); err != nil {
		return nil, fmt.Errorf("stored registration id %q is not a valid uuid", regID)
	}
	if reg.ParticipantID, err = id.ParseParticipantID(participantID); err != nil {
		return nil, fmt.Errorf("stored participant id %q is not a valid uuid", participantID)
	}
	if reg.RaceID, err = id.ParseRaceID(raceID); err != nil {
		return nil, fmt.Errorf("stored race id %q is not a valid uuid", raceID)
	}
	reg.PaymentStatus = models.PaymentStatus(paymentStatus)
	reg.Status = models.RegistrationStatus(status)
	return &reg, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// storedDeadline drops sub-microsecond precision before the deadline reaches
// timestamptz. Postgres rounds to the nearest microsecond, which could push the
// deadline later; truncating only ever moves it earlier.
func storedDeadline(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

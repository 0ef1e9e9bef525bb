// internal/infra/database/postgres_breeding_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sow_tracker/internal/domain/breeding"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresBreedingRepository struct {
	db *sql.DB
}

var (
	_ breeding.Repository  = (*PostgresBreedingRepository)(nil)
	_ breeding.SweepSource = (*PostgresBreedingRepository)(nil)
)

func NewPostgresBreedingRepository(db *sql.DB) *PostgresBreedingRepository {
	return &PostgresBreedingRepository{db: db}
}

// --- Animals ---

func (r *PostgresBreedingRepository) GetAnimal(ctx context.Context, id uuid.UUID) (*breeding.Animal, error) {
	query := `SELECT id, organization_id, owner_user_id, tag, kind, status, created_at
               FROM animals WHERE id = $1`
	a := breeding.Animal{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.OrganizationID, &a.OwnerUserID, &a.Tag, &a.Kind, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, breeding.ErrAnimalNotFound
		}
		return nil, fmt.Errorf("error getting animal by ID: %w", err)
	}
	return &a, nil
}

func (r *PostgresBreedingRepository) UpdateAnimalStatus(ctx context.Context, id uuid.UUID, status breeding.AnimalStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE animals SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("error updating animal status: %w", err)
	}
	return expectOne(res, breeding.ErrAnimalNotFound)
}

// --- Breeding events ---

func (r *PostgresBreedingRepository) CreateEvent(ctx context.Context, ev *breeding.Event) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for breeding: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	// the row lock serializes concurrent breedings of one animal
	var id uuid.UUID
	err = txn.QueryRowContext(ctx, `SELECT id FROM animals WHERE id = $1 FOR UPDATE`, ev.AnimalID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return breeding.ErrAnimalNotFound
		}
		return fmt.Errorf("error locking animal: %w", err)
	}

	var open bool
	err = txn.QueryRowContext(ctx,
		`SELECT EXISTS (
             SELECT 1 FROM breeding_events be
             LEFT JOIN farrowings f ON f.breeding_event_id = be.id
             WHERE be.animal_id = $1
               AND be.result_state IN ('pending', 'pregnant')
               AND f.actual_date IS NULL)`, ev.AnimalID,
	).Scan(&open)
	if err != nil {
		return fmt.Errorf("error checking open breedings: %w", err)
	}
	if open {
		return breeding.ErrOpenBreeding
	}

	query := `INSERT INTO breeding_events (id, animal_id, boar_id, breeding_date, method, result_state, check_confirmed)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at, updated_at`
	err = txn.QueryRowContext(ctx, query,
		ev.ID, ev.AnimalID, ev.BoarID, dateParam(ev.BreedingDate), ev.Method, ev.Result, ev.CheckConfirmed,
	).Scan(&ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating breeding event: %w", err)
	}
	if _, err := txn.ExecContext(ctx, `UPDATE animals SET status = $1 WHERE id = $2`, breeding.AnimalBred, ev.AnimalID); err != nil {
		return fmt.Errorf("error marking animal bred: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit breeding: %w", err)
	}
	return nil
}

func (r *PostgresBreedingRepository) GetEvent(ctx context.Context, id uuid.UUID) (*breeding.Event, error) {
	query := `SELECT id, animal_id, boar_id, breeding_date, method, result_state, check_confirmed, created_at, updated_at
               FROM breeding_events WHERE id = $1`
	ev := breeding.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ev.ID, &ev.AnimalID, &ev.BoarID, &ev.BreedingDate, &ev.Method, &ev.Result,
		&ev.CheckConfirmed, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, breeding.ErrEventNotFound
		}
		return nil, fmt.Errorf("error getting breeding event by ID: %w", err)
	}
	ev.BreedingDate = civil(ev.BreedingDate)
	return &ev, nil
}

func (r *PostgresBreedingRepository) UpdateEventResult(ctx context.Context, id uuid.UUID, result breeding.ResultState, checkConfirmed bool) error {
	query := `UPDATE breeding_events
               SET result_state = $1, check_confirmed = $2, updated_at = NOW()
               WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, result, checkConfirmed, id)
	if err != nil {
		return fmt.Errorf("error updating breeding result: %w", err)
	}
	return expectOne(res, breeding.ErrEventNotFound)
}

// --- Farrowings ---

const farrowingColumns = `id, animal_id, breeding_event_id, expected_date, actual_date, live_born, stillborn, mummified, created_at`

func scanFarrowing(row interface{ Scan(...any) error }) (*breeding.Farrowing, error) {
	f := breeding.Farrowing{}
	var actual sql.NullTime
	if err := row.Scan(
		&f.ID, &f.AnimalID, &f.BreedingEventID, &f.ExpectedDate, &actual,
		&f.Counts.LiveBorn, &f.Counts.Stillborn, &f.Counts.Mummified, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.ExpectedDate = civil(f.ExpectedDate)
	f.ActualDate = civilPtr(actual)
	return &f, nil
}

func (r *PostgresBreedingRepository) CreateFarrowing(ctx context.Context, f *breeding.Farrowing) error {
	query := `INSERT INTO farrowings (id, animal_id, breeding_event_id, expected_date, actual_date, live_born, stillborn, mummified)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		f.ID, f.AnimalID, f.BreedingEventID, dateParam(f.ExpectedDate), nullDate(f.ActualDate),
		f.Counts.LiveBorn, f.Counts.Stillborn, f.Counts.Mummified,
	).Scan(&f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "farrowings_breeding_event_id_key") {
			return breeding.ErrFarrowingExists
		}
		return fmt.Errorf("error creating farrowing: %w", err)
	}
	return nil
}

func (r *PostgresBreedingRepository) GetFarrowing(ctx context.Context, id uuid.UUID) (*breeding.Farrowing, error) {
	f, err := scanFarrowing(r.db.QueryRowContext(ctx, `SELECT `+farrowingColumns+` FROM farrowings WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, breeding.ErrFarrowingNotFound
		}
		return nil, fmt.Errorf("error getting farrowing by ID: %w", err)
	}
	return f, nil
}

func (r *PostgresBreedingRepository) GetFarrowingByEvent(ctx context.Context, eventID uuid.UUID) (*breeding.Farrowing, error) {
	f, err := scanFarrowing(r.db.QueryRowContext(ctx, `SELECT `+farrowingColumns+` FROM farrowings WHERE breeding_event_id = $1`, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, breeding.ErrFarrowingNotFound
		}
		return nil, fmt.Errorf("error getting farrowing by breeding event: %w", err)
	}
	return f, nil
}

func (r *PostgresBreedingRepository) CompleteFarrowing(ctx context.Context, id uuid.UUID, actual time.Time, counts breeding.Counts) error {
	query := `UPDATE farrowings
               SET actual_date = $1, live_born = $2, stillborn = $3, mummified = $4
               WHERE id = $5 AND actual_date IS NULL`
	res, err := r.db.ExecContext(ctx, query, dateParam(actual), counts.LiveBorn, counts.Stillborn, counts.Mummified, id)
	if err != nil {
		return fmt.Errorf("error completing farrowing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error completing farrowing: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.GetFarrowing(ctx, id); err != nil {
		return err
	}
	return breeding.ErrFarrowingAlreadyCompleted
}

// --- Piglets ---

func (r *PostgresBreedingRepository) GetPiglet(ctx context.Context, id uuid.UUID) (*breeding.Piglet, error) {
	query := `SELECT id, farrowing_id, birth_date, status, weaning_date, updated_at FROM piglets WHERE id = $1`
	p := breeding.Piglet{}
	var weaning sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.FarrowingID, &p.BirthDate, &p.Status, &weaning, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, breeding.ErrPigletNotFound
		}
		return nil, fmt.Errorf("error getting piglet by ID: %w", err)
	}
	p.BirthDate = civil(p.BirthDate)
	p.WeaningDate = civilPtr(weaning)
	return &p, nil
}

func (r *PostgresBreedingRepository) UpdatePigletStatus(ctx context.Context, id uuid.UUID, status breeding.PigletStatus, weaningDate *time.Time) error {
	query := `UPDATE piglets
               SET status = $1, weaning_date = $2, updated_at = NOW()
               WHERE id = $3 AND status = 'nursing'`
	res, err := r.db.ExecContext(ctx, query, status, nullDate(weaningDate), id)
	if err != nil {
		return fmt.Errorf("error updating piglet status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating piglet status: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.GetPiglet(ctx, id); err != nil {
		return err
	}
	return breeding.ErrInvalidPigletTransition
}

func (r *PostgresBreedingRepository) CountNursing(ctx context.Context, farrowingID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM piglets WHERE farrowing_id = $1 AND status = 'nursing'`, farrowingID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting nursing piglets: %w", err)
	}
	return n, nil
}

func (r *PostgresBreedingRepository) LitterDates(ctx context.Context, farrowingID uuid.UUID) (*time.Time, *time.Time, error) {
	query := `SELECT MAX(birth_date), MAX(weaning_date) FROM piglets WHERE farrowing_id = $1`
	var birth, weaning sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, farrowingID).Scan(&birth, &weaning); err != nil {
		return nil, nil, fmt.Errorf("error getting litter dates: %w", err)
	}
	return civilPtr(birth), civilPtr(weaning), nil
}

// --- Sweep projections ---

func negativeResults() any {
	states := make([]string, len(breeding.NegativeResults))
	for i, s := range breeding.NegativeResults {
		states[i] = string(s)
	}
	return pq.Array(states)
}

func (r *PostgresBreedingRepository) ListUnfarrowedBreedings(ctx context.Context, org uuid.NullUUID, dueFrom time.Time, gestationDays int) ([]breeding.BreedingView, error) {
	query := `SELECT be.id, a.id, a.tag, a.organization_id, a.owner_user_id, be.breeding_date, be.result_state, f.expected_date
               FROM breeding_events be
               JOIN animals a ON a.id = be.animal_id
               LEFT JOIN farrowings f ON f.breeding_event_id = be.id
               WHERE ($1::uuid IS NULL OR a.organization_id = $1::uuid)
                 AND COALESCE(f.expected_date, be.breeding_date + $4::int) >= $2::date
                 AND f.actual_date IS NULL
                 AND NOT (be.result_state = ANY($3::text[]))
                 AND a.status NOT IN ('culled', 'sold')
               ORDER BY be.breeding_date, be.id`
	return r.listBreedings(ctx, query, org, dateParam(dueFrom), negativeResults(), gestationDays)
}

func (r *PostgresBreedingRepository) ListPendingBreedings(ctx context.Context, org uuid.NullUUID, bredSince time.Time) ([]breeding.BreedingView, error) {
	query := `SELECT be.id, a.id, a.tag, a.organization_id, a.owner_user_id, be.breeding_date, be.result_state, NULL::date
               FROM breeding_events be
               JOIN animals a ON a.id = be.animal_id
               WHERE ($1::uuid IS NULL OR a.organization_id = $1::uuid)
                 AND be.breeding_date >= $2
                 AND be.result_state = 'pending'
                 AND a.status NOT IN ('culled', 'sold')
               ORDER BY be.breeding_date, be.id`
	return r.listBreedings(ctx, query, org, dateParam(bredSince))
}

func (r *PostgresBreedingRepository) listBreedings(ctx context.Context, query string, args ...any) ([]breeding.BreedingView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying breedings: %w", err)
	}
	defer rows.Close()

	views := make([]breeding.BreedingView, 0)
	for rows.Next() {
		var v breeding.BreedingView
		var expected sql.NullTime
		if err := rows.Scan(&v.EventID, &v.AnimalID, &v.AnimalTag, &v.OrganizationID, &v.UserID,
			&v.BreedingDate, &v.Result, &expected); err != nil {
			return nil, fmt.Errorf("error scanning breeding row: %w", err)
		}
		v.BreedingDate = civil(v.BreedingDate)
		v.ExpectedFarrowing = civilPtr(expected)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breeding rows: %w", err)
	}
	return views, nil
}

func (r *PostgresBreedingRepository) ListNursingPiglets(ctx context.Context, org uuid.NullUUID, bornSince time.Time) ([]breeding.LitterMemberView, error) {
	query := `SELECT p.id, a.id, a.tag, a.organization_id, a.owner_user_id, p.birth_date
               FROM piglets p
               JOIN farrowings f ON f.id = p.farrowing_id
               JOIN animals a ON a.id = f.animal_id
               WHERE ($1::uuid IS NULL OR a.organization_id = $1::uuid)
                 AND p.status = 'nursing'
                 AND p.birth_date >= $2
               ORDER BY a.id, p.birth_date`
	return r.listLitter(ctx, query, org, dateParam(bornSince))
}

func (r *PostgresBreedingRepository) ListWeanedForAvailableSows(ctx context.Context, org uuid.NullUUID, weanedSince time.Time) ([]breeding.LitterMemberView, error) {
	query := `SELECT p.id, a.id, a.tag, a.organization_id, a.owner_user_id, p.weaning_date
               FROM piglets p
               JOIN farrowings f ON f.id = p.farrowing_id
               JOIN animals a ON a.id = f.animal_id
               WHERE ($1::uuid IS NULL OR a.organization_id = $1::uuid)
                 AND p.status = 'weaned'
                 AND p.weaning_date >= $2
                 AND a.status = 'available'
               ORDER BY a.id, p.weaning_date`
	return r.listLitter(ctx, query, org, dateParam(weanedSince))
}

func (r *PostgresBreedingRepository) listLitter(ctx context.Context, query string, args ...any) ([]breeding.LitterMemberView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying litter members: %w", err)
	}
	defer rows.Close()

	views := make([]breeding.LitterMemberView, 0)
	for rows.Next() {
		var v breeding.LitterMemberView
		if err := rows.Scan(&v.PigletID, &v.SowID, &v.SowTag, &v.OrganizationID, &v.UserID, &v.Date); err != nil {
			return nil, fmt.Errorf("error scanning litter row: %w", err)
		}
		v.Date = civil(v.Date)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating litter rows: %w", err)
	}
	return views, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

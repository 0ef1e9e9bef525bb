// internal/infra/database/postgres_housing_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sow_tracker/internal/domain/housing"

	"github.com/google/uuid"
)

type PostgresHousingRepository struct {
	db *sql.DB
}

var _ housing.Repository = (*PostgresHousingRepository)(nil)

func NewPostgresHousingRepository(db *sql.DB) *PostgresHousingRepository {
	return &PostgresHousingRepository{db: db}
}

func (r *PostgresHousingRepository) GetUnit(ctx context.Context, id uuid.UUID) (*housing.Unit, error) {
	query := `SELECT u.id, u.organization_id, u.name, u.unit_type, u.total_sq_ft,
                     (SELECT COUNT(*) FROM housing_assignments ha
                       WHERE ha.housing_unit_id = u.id AND ha.moved_out IS NULL)
               FROM housing_units u WHERE u.id = $1`
	u := housing.Unit{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.OrganizationID, &u.Name, &u.Type, &u.TotalSqFt, &u.CurrentOccupants)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, housing.ErrUnitNotFound
		}
		return nil, fmt.Errorf("error getting housing unit by ID: %w", err)
	}
	return &u, nil
}

func (r *PostgresHousingRepository) ListIntervals(ctx context.Context, animalID uuid.UUID, from, to time.Time) ([]housing.Interval, error) {
	query := `SELECT ha.id, ha.animal_id, ha.housing_unit_id, u.unit_type, ha.moved_in, ha.moved_out
               FROM housing_assignments ha
               JOIN housing_units u ON u.id = ha.housing_unit_id
               WHERE ha.animal_id = $1
                 AND ha.moved_in <= $3
                 AND (ha.moved_out IS NULL OR ha.moved_out >= $2)
               ORDER BY ha.moved_in`
	rows, err := r.db.QueryContext(ctx, query, animalID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying housing intervals: %w", err)
	}
	defer rows.Close()

	intervals := make([]housing.Interval, 0)
	for rows.Next() {
		var iv housing.Interval
		var out sql.NullTime
		if err := rows.Scan(&iv.ID, &iv.AnimalID, &iv.HousingUnitID, &iv.UnitType, &iv.MovedIn, &out); err != nil {
			return nil, fmt.Errorf("error scanning housing interval row: %w", err)
		}
		if out.Valid {
			iv.MovedOut = &out.Time
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating housing interval rows: %w", err)
	}
	return intervals, nil
}

// MoveAnimal closes the open assignment and opens the next one in a single
// transaction; housing_assignments_open_uniq rejects a concurrent second open row.
func (r *PostgresHousingRepository) MoveAnimal(ctx context.Context, animalID, unitID uuid.UUID, at time.Time) (*housing.Interval, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for move: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	iv := &housing.Interval{ID: uuid.New(), AnimalID: animalID, HousingUnitID: unitID, MovedIn: at}
	err = txn.QueryRowContext(ctx, `SELECT unit_type FROM housing_units WHERE id = $1`, unitID).Scan(&iv.UnitType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, housing.ErrUnitNotFound
		}
		return nil, fmt.Errorf("error getting target unit: %w", err)
	}

	var openID, openUnit uuid.UUID
	var openedAt time.Time
	err = txn.QueryRowContext(ctx,
		`SELECT id, housing_unit_id, moved_in FROM housing_assignments
          WHERE animal_id = $1 AND moved_out IS NULL FOR UPDATE`, animalID,
	).Scan(&openID, &openUnit, &openedAt)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("error getting open assignment: %w", err)
	case openUnit == unitID:
		return nil, housing.ErrAlreadyHoused
	case at.Before(openedAt):
		return nil, housing.ErrMoveBeforeOpen
	default:
		if _, err := txn.ExecContext(ctx,
			`UPDATE housing_assignments SET moved_out = $1 WHERE id = $2`, at.UTC(), openID); err != nil {
			return nil, fmt.Errorf("error closing assignment: %w", err)
		}
	}

	_, err = txn.ExecContext(ctx,
		`INSERT INTO housing_assignments (id, animal_id, housing_unit_id, moved_in) VALUES ($1, $2, $3, $4)`,
		iv.ID, animalID, unitID, at.UTC())
	if err != nil {
		if isUniqueViolation(err, "housing_assignments_open_uniq") {
			return nil, fmt.Errorf("concurrent move of animal %s: %w", animalID, housing.ErrAlreadyHoused)
		}
		return nil, fmt.Errorf("error opening assignment: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move: %w", err)
	}
	return iv, nil
}

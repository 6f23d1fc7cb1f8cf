package carRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"driveline/database"
	"driveline/models"
)

// PgCarRepo is the PostgreSQL CarRepository.
type PgCarRepo struct {
	db *sql.DB
}

func NewPgCarRepo(db *sql.DB) *PgCarRepo {
	return &PgCarRepo{db: db}
}

func (r *PgCarRepo) Create(ctx context.Context, car *models.Car) error {
	q := database.Q(ctx, r.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO cars (id, model, plate_number, price_per_day, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, car.ID, car.Model, car.PlateNumber, car.PricePerDay, car.Available, car.CreatedAt, car.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert car: %w", err)
	}
	return nil
}

func (r *PgCarRepo) GetByID(ctx context.Context, id string) (*models.Car, error) {
	q := database.Q(ctx, r.db)
	var car models.Car
	err := q.QueryRowContext(ctx, `
		SELECT id, model, plate_number, price_per_day, available, created_at, updated_at
		FROM cars WHERE id = $1
	`, id).Scan(
		&car.ID, &car.Model, &car.PlateNumber, &car.PricePerDay,
		&car.Available, &car.CreatedAt, &car.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select car: %w", err)
	}
	return &car, nil
}

func (r *PgCarRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE cars SET available = $2, updated_at = now() WHERE id = $1
	`, id, available)
	if err != nil {
		return fmt.Errorf("update car availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgCarRepo) UnavailableIDs(ctx context.Context) ([]string, error) {
	q := database.Q(ctx, r.db)
	rows, err := q.QueryContext(ctx, `SELECT id FROM cars WHERE NOT available`)
	if err != nil {
		return nil, fmt.Errorf("select unavailable cars: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan car id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReleaseExcept is a single conditional UPDATE so it cannot race a
// concurrent booking the way a read-then-write loop would.
func (r *PgCarRepo) ReleaseExcept(ctx context.Context, keep []string) (int64, error) {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE cars SET available = TRUE, updated_at = now()
		WHERE NOT available AND NOT (id = ANY($1::uuid[]))
	`, pgUUIDArray(keep))
	if err != nil {
		return 0, fmt.Errorf("release cars: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release cars rows affected: %w", err)
	}
	return n, nil
}

// pgUUIDArray renders ids as a Postgres array literal. database/sql has no
// native slice binding, so the query casts the literal to uuid[].
func pgUUIDArray(ids []string) string {
	if len(ids) == 0 {
		return "{}"
	}
	return "{" + strings.Join(ids, ",") + "}"
}

package reservationRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"driveline/database"
	"driveline/models"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// PgReservationRepo is the PostgreSQL ReservationRepository.
type PgReservationRepo struct {
	db *sql.DB
}

func NewPgReservationRepo(db *sql.DB) *PgReservationRepo {
	return &PgReservationRepo{db: db}
}

func (r *PgReservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	q := database.Q(ctx, r.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO reservations (
			id, car_id, user_id, start_date, end_date, total_cost,
			status, is_paid, is_deleted, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		res.ID, res.CarID, res.UserID, res.StartDate, res.EndDate, res.TotalCost,
		string(res.Status), res.IsPaid, res.IsDeleted, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isOverlapViolation(err) {
			return ErrOverlap
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *PgReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	q := database.Q(ctx, r.db)
	res, err := scanReservation(q.QueryRowContext(ctx, `
		SELECT id, car_id, user_id, start_date, end_date, total_cost,
		       status, is_paid, is_deleted, created_at, updated_at
		FROM reservations WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select reservation: %w", err)
	}
	return res, nil
}

func (r *PgReservationRepo) HasOverlap(ctx context.Context, carID string, start, end time.Time) (bool, error) {
	q := database.Q(ctx, r.db)
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE car_id = $1
			  AND status <> 'Cancelled'
			  AND NOT is_deleted
			  AND end_date >= $2
			  AND start_date <= $3
		)
	`, carID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (r *PgReservationRepo) Cancel(ctx context.Context, id string) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE reservations
		SET status = 'Cancelled', is_deleted = TRUE, is_paid = FALSE, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgReservationRepo) SetPaid(ctx context.Context, id string, paid bool) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE reservations SET is_paid = $2, updated_at = now() WHERE id = $1
	`, id, paid)
	if err != nil {
		return fmt.Errorf("set reservation paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgReservationRepo) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE reservations SET status = $2, updated_at = now() WHERE id = $1
	`, id, string(status))
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgReservationRepo) SoftDelete(ctx context.Context, id string) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE reservations SET is_deleted = TRUE, updated_at = now()
		WHERE id = $1 AND NOT is_deleted
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete reservation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a double delete.
		var deleted bool
		check := database.Q(ctx, r.db).QueryRowContext(ctx,
			`SELECT is_deleted FROM reservations WHERE id = $1`, id)
		if err := check.Scan(&deleted); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("soft delete recheck: %w", err)
		}
		return ErrAlreadyDeleted
	}
	return nil
}

func (r *PgReservationRepo) HardDelete(ctx context.Context, id string) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hard delete reservation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgReservationRepo) StartDue(ctx context.Context, now time.Time) (int64, error) {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE reservations SET status = 'InProgress', updated_at = now()
		WHERE status = 'Confirmed' AND start_date <= $1 AND end_date > $1 AND NOT is_deleted
	`, now)
	if err != nil {
		return 0, fmt.Errorf("start due reservations: %w", err)
	}
	return res.RowsAffected()
}

func (r *PgReservationRepo) CompleteDue(ctx context.Context, now time.Time) (int64, error) {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE reservations SET status = 'Completed', updated_at = now()
		WHERE status = 'InProgress' AND end_date <= $1 AND NOT is_deleted
	`, now)
	if err != nil {
		return 0, fmt.Errorf("complete due reservations: %w", err)
	}
	return res.RowsAffected()
}

func (r *PgReservationRepo) ActiveCarIDs(ctx context.Context) ([]string, error) {
	q := database.Q(ctx, r.db)
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT car_id FROM reservations
		WHERE status IN ('Pending','Confirmed','InProgress') AND NOT is_deleted
	`)
	if err != nil {
		return nil, fmt.Errorf("select active car ids: %w", err)
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

func (r *PgReservationRepo) EndingWithin(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	q := database.Q(ctx, r.db)
	rows, err := q.QueryContext(ctx, `
		SELECT id, car_id, user_id, start_date, end_date, total_cost,
		       status, is_paid, is_deleted, created_at, updated_at
		FROM reservations
		WHERE status IN ('Pending','Confirmed','InProgress') AND NOT is_deleted
		  AND end_date BETWEEN $1 AND $2
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select ending reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var res models.Reservation
	var status string
	if err := row.Scan(
		&res.ID, &res.CarID, &res.UserID, &res.StartDate, &res.EndDate, &res.TotalCost,
		&status, &res.IsPaid, &res.IsDeleted, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	res.Status = models.ReservationStatus(status)
	return &res, nil
}

func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation
	}
	return false
}

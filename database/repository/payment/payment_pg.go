package paymentRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"driveline/database"
	"driveline/models"
)

// PgPaymentRepo is the PostgreSQL PaymentRepository.
type PgPaymentRepo struct {
	db *sql.DB
}

func NewPgPaymentRepo(db *sql.DB) *PgPaymentRepo {
	return &PgPaymentRepo{db: db}
}

func (r *PgPaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	q := database.Q(ctx, r.db)
	var reservationID any
	if p.ReservationID != "" {
		reservationID = p.ReservationID
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO payments (
			id, payment_intent_id, checkout_session_id, customer_id,
			amount, currency, status, reservation_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		p.ID, p.PaymentIntentID, p.CheckoutSessionID, p.CustomerID,
		p.Amount, p.Currency, string(p.Status), reservationID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

const paymentColumns = `
	id, payment_intent_id, checkout_session_id, customer_id,
	amount, currency, status, reservation_id, created_at, succeeded_at, refunded_at`

func (r *PgPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (r *PgPaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE checkout_session_id = $1`, sessionID)
}

func (r *PgPaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	if intentID == "" {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = $1`, intentID)
}

func (r *PgPaymentRepo) GetByReservationID(ctx context.Context, reservationID string) (*models.Payment, error) {
	return r.getOne(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE reservation_id = $1 ORDER BY created_at DESC LIMIT 1
	`, reservationID)
}

func (r *PgPaymentRepo) getOne(ctx context.Context, query string, arg any) (*models.Payment, error) {
	q := database.Q(ctx, r.db)
	var p models.Payment
	var status string
	var reservationID sql.NullString
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.PaymentIntentID, &p.CheckoutSessionID, &p.CustomerID,
		&p.Amount, &p.Currency, &status, &reservationID,
		&p.CreatedAt, &p.SucceededAt, &p.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	p.Status = models.PaymentStatus(status)
	p.ReservationID = reservationID.String
	return &p, nil
}

func (r *PgPaymentRepo) SetProviderRefs(ctx context.Context, id, intentID, customerID string) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `
		UPDATE payments SET payment_intent_id = $2, customer_id = $3 WHERE id = $1
	`, id, intentID, customerID)
	if err != nil {
		return fmt.Errorf("set payment provider refs: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgPaymentRepo) MarkSucceeded(ctx context.Context, id string, at time.Time) error {
	return r.setStatus(ctx, id, `status = 'Succeeded', succeeded_at = $2`, at)
}

func (r *PgPaymentRepo) MarkFailed(ctx context.Context, id string) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `UPDATE payments SET status = 'Failed' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgPaymentRepo) MarkRefunded(ctx context.Context, id string, at time.Time) error {
	return r.setStatus(ctx, id, `status = 'Refunded', refunded_at = $2`, at)
}

func (r *PgPaymentRepo) setStatus(ctx context.Context, id, set string, at time.Time) error {
	q := database.Q(ctx, r.db)
	res, err := q.ExecContext(ctx, `UPDATE payments SET `+set+` WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgPaymentRepo) DetachReservation(ctx context.Context, reservationID string) error {
	q := database.Q(ctx, r.db)
	_, err := q.ExecContext(ctx, `
		UPDATE payments SET reservation_id = NULL WHERE reservation_id = $1
	`, reservationID)
	if err != nil {
		return fmt.Errorf("detach payments from reservation: %w", err)
	}
	return nil
}

func (r *PgPaymentRepo) CreateRefund(ctx context.Context, ref *models.Refund) error {
	q := database.Q(ctx, r.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO refunds (id, provider_refund_id, amount, status, payment_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, ref.ID, ref.ProviderRefundID, ref.Amount, ref.Status, ref.PaymentID, ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

func (r *PgPaymentRepo) GetRefundByProviderID(ctx context.Context, providerRefundID string) (*models.Refund, error) {
	if providerRefundID == "" {
		return nil, ErrRefundNotFound
	}
	q := database.Q(ctx, r.db)
	var ref models.Refund
	err := q.QueryRowContext(ctx, `
		SELECT id, provider_refund_id, amount, status, payment_id, created_at
		FROM refunds WHERE provider_refund_id = $1
	`, providerRefundID).Scan(
		&ref.ID, &ref.ProviderRefundID, &ref.Amount, &ref.Status, &ref.PaymentID, &ref.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("select refund: %w", err)
	}
	return &ref, nil
}

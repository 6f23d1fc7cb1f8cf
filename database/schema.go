package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements are applied in order on startup. Every statement is
// idempotent so a restart against an initialized database is a no-op.
//
// The EXCLUDE constraint on reservations is the storage-level guarantee
// against double booking: the transactional overlap check in the repository
// narrows the race window, the constraint closes it.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS cars (
		id            UUID PRIMARY KEY,
		model         TEXT NOT NULL,
		plate_number  TEXT NOT NULL DEFAULT '',
		price_per_day NUMERIC(12,2) NOT NULL CHECK (price_per_day >= 0),
		available     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id         UUID PRIMARY KEY,
		car_id     UUID NOT NULL REFERENCES cars(id),
		user_id    UUID NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date   TIMESTAMPTZ NOT NULL,
		total_cost NUMERIC(12,2) NOT NULL CHECK (total_cost >= 0),
		status     TEXT NOT NULL DEFAULT 'Pending',
		is_paid    BOOLEAN NOT NULL DEFAULT FALSE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_date < end_date)
	)`,

	`DO $$ BEGIN
		ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
			EXCLUDE USING gist (
				car_id WITH =,
				tstzrange(start_date, end_date, '[]') WITH &&
			) WHERE (status <> 'Cancelled' AND NOT is_deleted);
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

	`CREATE INDEX IF NOT EXISTS idx_reservations_car_active
		ON reservations (car_id) WHERE status <> 'Cancelled' AND NOT is_deleted`,

	`CREATE INDEX IF NOT EXISTS idx_reservations_status_dates
		ON reservations (status, start_date, end_date) WHERE NOT is_deleted`,

	`CREATE TABLE IF NOT EXISTS payments (
		id                  UUID PRIMARY KEY,
		payment_intent_id   TEXT NOT NULL DEFAULT '',
		checkout_session_id TEXT NOT NULL DEFAULT '',
		customer_id         TEXT NOT NULL DEFAULT '',
		amount              NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		currency            TEXT NOT NULL,
		status              TEXT NOT NULL DEFAULT 'Pending',
		reservation_id      UUID NULL REFERENCES reservations(id) ON DELETE SET NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		succeeded_at        TIMESTAMPTZ NULL,
		refunded_at         TIMESTAMPTZ NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_payments_session ON payments (checkout_session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_intent ON payments (payment_intent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_reservation ON payments (reservation_id)`,

	`CREATE TABLE IF NOT EXISTS refunds (
		id                 UUID PRIMARY KEY,
		provider_refund_id TEXT NOT NULL DEFAULT '',
		amount             NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		status             TEXT NOT NULL DEFAULT '',
		payment_id         UUID NOT NULL REFERENCES payments(id),
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_refunds_provider ON refunds (provider_refund_id)`,
}

// EnsureSchema applies all schema statements.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

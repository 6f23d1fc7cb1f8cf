package paymentRepo

import (
	"context"
	"errors"
	"time"

	"driveline/models"
)

var (
	// ErrNotFound is returned when no payment matches the lookup.
	ErrNotFound = errors.New("payment not found")
	// ErrRefundNotFound is returned when no refund matches the lookup.
	ErrRefundNotFound = errors.New("refund not found")
)

// PaymentRepository persists Payment and Refund records keyed by provider
// identifiers. Mutating methods respect an open transaction carried by
// the context.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	// GetByReservationID returns the most recent payment for the reservation.
	GetByReservationID(ctx context.Context, reservationID string) (*models.Payment, error)
	// SetProviderRefs fills in provider-assigned identifiers once known.
	SetProviderRefs(ctx context.Context, id, intentID, customerID string) error
	MarkSucceeded(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string) error
	MarkRefunded(ctx context.Context, id string, at time.Time) error
	// DetachReservation clears the reservation link on all payments for
	// the reservation, preserving the payment rows as ledger history.
	DetachReservation(ctx context.Context, reservationID string) error

	CreateRefund(ctx context.Context, r *models.Refund) error
	GetRefundByProviderID(ctx context.Context, providerRefundID string) (*models.Refund, error)
}

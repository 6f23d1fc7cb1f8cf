package booking

import (
	"context"
	"time"

	"driveline/models"
)

// BookingService is the reservation lifecycle orchestrator.
type BookingService interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	CancelReservation(ctx context.Context, actingUserID, reservationID string) error
	DeleteReservation(ctx context.Context, actingUserID, reservationID string) error
}

// CreateReservationRequest is the booking command input.
type CreateReservationRequest struct {
	CarID     string    `json:"carId"`
	UserID    string    `json:"-"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// RefundGateway issues refunds at the payment provider. The Stripe
// adapter in services/payment satisfies it.
type RefundGateway interface {
	Refund(ctx context.Context, paymentIntentID string, amount float64) (string, error)
}

// ReminderScheduler enqueues a deadline reminder to fire at a given time.
type ReminderScheduler interface {
	ScheduleReminder(payload models.ReminderPayload, fireAt time.Time) error
}

package reservationRepo

import (
	"context"
	"errors"
	"time"

	"driveline/models"
)

var (
	// ErrNotFound is returned when no reservation matches the given id.
	ErrNotFound = errors.New("reservation not found")
	// ErrOverlap is returned when an insert collides with an active
	// reservation for the same car and date range.
	ErrOverlap = errors.New("reservation dates overlap an existing booking")
	// ErrAlreadyDeleted is returned on a second soft delete of the same row.
	ErrAlreadyDeleted = errors.New("reservation already deleted")
)

// ReservationRepository owns reservation persistence. Mutating methods
// respect an open transaction carried by the context, so the booking and
// cancellation orchestrators can group them into one atomic unit.
type ReservationRepository interface {
	// Create inserts the reservation. A storage-level overlap collision
	// surfaces as ErrOverlap.
	Create(ctx context.Context, res *models.Reservation) error
	// GetByID returns the reservation regardless of its soft-delete flag.
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	// HasOverlap reports whether an active (non-Cancelled, non-deleted)
	// reservation for the car intersects [start, end]. False on no rows.
	HasOverlap(ctx context.Context, carID string, start, end time.Time) (bool, error)
	// Cancel marks the reservation Cancelled, soft-deleted and unpaid.
	Cancel(ctx context.Context, id string) error
	SetPaid(ctx context.Context, id string, paid bool) error
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus) error
	// SoftDelete flags the row deleted; ErrAlreadyDeleted when it already is.
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error

	// StartDue bulk-moves Confirmed reservations whose window has opened
	// (start <= now < end) to InProgress and returns the rows changed.
	StartDue(ctx context.Context, now time.Time) (int64, error)
	// CompleteDue bulk-moves InProgress reservations past their end to
	// Completed and returns the rows changed.
	CompleteDue(ctx context.Context, now time.Time) (int64, error)
	// ActiveCarIDs lists distinct car ids holding at least one active
	// reservation.
	ActiveCarIDs(ctx context.Context) ([]string, error)
	// EndingWithin lists active reservations with end_date in [from, to].
	EndingWithin(ctx context.Context, from, to time.Time) ([]*models.Reservation, error)
}

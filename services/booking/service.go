package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"driveline/database"
	carRepo "driveline/database/repository/car"
	paymentRepo "driveline/database/repository/payment"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/models"
	"driveline/services/notification"
)

// ReminderLeadTime is how long before a reservation's end the deadline
// reminder fires.
const ReminderLeadTime = 30 * time.Minute

// DefaultBookingService is the production BookingService.
type DefaultBookingService struct {
	CarRepo         carRepo.CarRepository
	ReservationRepo reservationRepo.ReservationRepository
	PaymentRepo     paymentRepo.PaymentRepository
	Gateway         RefundGateway
	Tx              database.TxRunner
	Notifier        *notification.Registry
	Scheduler       ReminderScheduler
	Logger          *zap.Logger
	// Clock is overridable in tests; nil means time.Now.
	Clock func() time.Time
}

func (s *DefaultBookingService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *DefaultBookingService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	if id == "" {
		return nil, NewBadRequest("reservation id is required")
	}
	res, err := s.ReservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return nil, NewNotFound("reservation not found")
		}
		return nil, err
	}
	return res, nil
}

// DeleteReservation removes the row entirely. Soft delete is the cancel
// path; this is the hard delete for a reservation the caller owns. Any
// payments keep their ledger rows but lose the reservation link.
func (s *DefaultBookingService) DeleteReservation(ctx context.Context, actingUserID, reservationID string) error {
	if reservationID == "" {
		return NewBadRequest("reservation id is required")
	}

	res, err := s.ReservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return NewNotFound("reservation not found")
		}
		return err
	}
	if res.UserID != actingUserID {
		return NewForbidden("reservation belongs to another user")
	}

	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.PaymentRepo.DetachReservation(ctx, res.ID); err != nil {
			return err
		}
		if err := s.ReservationRepo.HardDelete(ctx, res.ID); err != nil {
			if errors.Is(err, reservationRepo.ErrNotFound) {
				return NewNotFound("reservation not found")
			}
			return err
		}
		return nil
	})
}

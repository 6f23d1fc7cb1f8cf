package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	paymentRepo "driveline/database/repository/payment"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/models"
)

// CancelReservation cancels a reservation that has not started yet,
// refunding its payment when one was captured. The refund call, the
// payment flip, the reservation cancel and the car release share one
// transaction: a refund failure aborts the whole cancellation.
func (s *DefaultBookingService) CancelReservation(ctx context.Context, actingUserID, reservationID string) error {
	if reservationID == "" {
		return NewBadRequest("reservation id is required")
	}

	res, err := s.ReservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return NewNotFound("reservation not found")
		}
		return fmt.Errorf("load reservation: %w", err)
	}
	if res.UserID != actingUserID {
		return NewForbidden("reservation belongs to another user")
	}
	if res.IsDeleted {
		return NewAlreadyDeleted("reservation already cancelled")
	}
	if !res.StartDate.After(s.now()) {
		return NewBadRequest("reservation already started or past")
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		payment, err := s.PaymentRepo.GetByReservationID(ctx, res.ID)
		if err != nil && !errors.Is(err, paymentRepo.ErrNotFound) {
			return fmt.Errorf("load payment: %w", err)
		}

		if payment != nil && payment.PaymentIntentID != "" && payment.Status != models.PaymentRefunded {
			refundID, err := s.Gateway.Refund(ctx, payment.PaymentIntentID, payment.Amount)
			if err != nil {
				return fmt.Errorf("refund payment %s: %w", payment.ID, err)
			}
			now := s.now()
			if err := s.PaymentRepo.MarkRefunded(ctx, payment.ID, now); err != nil {
				return err
			}
			if err := s.PaymentRepo.CreateRefund(ctx, &models.Refund{
				ID:               uuid.New().String(),
				ProviderRefundID: refundID,
				Amount:           payment.Amount,
				Status:           "succeeded",
				PaymentID:        payment.ID,
				CreatedAt:        now,
			}); err != nil {
				return err
			}
		}

		if err := s.ReservationRepo.Cancel(ctx, res.ID); err != nil {
			return err
		}
		return s.CarRepo.SetAvailability(ctx, res.CarID, true)
	})
	if err != nil {
		return err
	}

	if notifyErr := s.Notifier.Send(ctx, "Reservation cancelled",
		fmt.Sprintf("Reservation %s was cancelled.", res.ID), res.UserID); notifyErr != nil {
		s.Logger.Warn("cancellation notification failed",
			zap.String("reservationId", res.ID), zap.Error(notifyErr))
	}
	return nil
}

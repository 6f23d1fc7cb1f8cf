package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	carRepo "driveline/database/repository/car"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/models"
)

// CreateReservation books a car for a date range. The overlap check and
// the insert share one transaction; everything after the commit is best
// effort and never unwinds the booking.
func (s *DefaultBookingService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*models.Reservation, error) {
	if req.CarID == "" {
		return nil, NewBadRequest("car id is required")
	}
	if req.UserID == "" {
		return nil, NewBadRequest("user id is required")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, NewBadRequest("start and end dates are required")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, NewBadRequest("start date must be before end date")
	}

	car, err := s.CarRepo.GetByID(ctx, req.CarID)
	if err != nil {
		if errors.Is(err, carRepo.ErrNotFound) {
			return nil, NewNotFound("car not found")
		}
		return nil, fmt.Errorf("load car: %w", err)
	}
	if !car.Available {
		return nil, NewBadRequest("car unavailable")
	}

	now := s.now()
	res := &models.Reservation{
		ID:        uuid.New().String(),
		CarID:     car.ID,
		UserID:    req.UserID,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
		TotalCost: TotalCost(car.PricePerDay, req.StartDate, req.EndDate),
		Status:    models.ReservationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		overlap, err := s.ReservationRepo.HasOverlap(ctx, res.CarID, res.StartDate, res.EndDate)
		if err != nil {
			return fmt.Errorf("overlap check: %w", err)
		}
		if overlap {
			return NewConflict("car already booked for these dates")
		}
		if err := s.ReservationRepo.Create(ctx, res); err != nil {
			if errors.Is(err, reservationRepo.ErrOverlap) {
				return NewConflict("car already booked for these dates")
			}
			return err
		}
		return s.CarRepo.SetAvailability(ctx, res.CarID, false)
	})
	if err != nil {
		return nil, err
	}

	s.afterBooking(ctx, res)
	return res, nil
}

// afterBooking runs the post-commit side effects: a booking notice and,
// when the reservation ends in the future, a deadline reminder scheduled
// at end minus the lead time. Failures are logged only.
func (s *DefaultBookingService) afterBooking(ctx context.Context, res *models.Reservation) {
	subject := "Reservation received"
	body := fmt.Sprintf("Your reservation %s from %s to %s is pending payment.",
		res.ID, res.StartDate.Format(time.RFC3339), res.EndDate.Format(time.RFC3339))
	if err := s.Notifier.Send(ctx, subject, body, res.UserID); err != nil {
		s.Logger.Warn("booking notification failed",
			zap.String("reservationId", res.ID), zap.Error(err))
	}

	if res.EndDate.After(s.now()) && s.Scheduler != nil {
		fireAt := res.EndDate.Add(-ReminderLeadTime)
		payload := models.ReminderPayload{
			ReservationID: res.ID,
			RecipientTag:  res.UserID,
			Subject:       "Your rental ends soon",
			Body:          fmt.Sprintf("Reservation %s ends at %s.", res.ID, res.EndDate.Format(time.RFC3339)),
			FireAt:        fireAt.Format(time.RFC3339),
		}
		if err := s.Scheduler.ScheduleReminder(payload, fireAt); err != nil {
			s.Logger.Warn("deadline reminder scheduling failed",
				zap.String("reservationId", res.ID), zap.Error(err))
		}
	}
}

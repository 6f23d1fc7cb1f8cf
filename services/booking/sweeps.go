package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ReminderWindow is the tolerance around the reminder target time: a
// reservation ending within targetTime ± ReminderWindow gets a reminder
// on this sweep run.
const ReminderWindow = time.Minute

// RunStatusSweep advances reservation statuses along the clock: Confirmed
// reservations whose window has opened become InProgress, InProgress ones
// past their end become Completed. Both passes are predicate UPDATEs, so
// running the sweep twice in a row changes nothing the second time.
func (s *DefaultBookingService) RunStatusSweep(ctx context.Context) error {
	started := time.Now()
	now := s.now()

	startedCount, err := s.ReservationRepo.StartDue(ctx, now)
	if err != nil {
		s.Logger.Error("status sweep failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return fmt.Errorf("start due: %w", err)
	}
	completedCount, err := s.ReservationRepo.CompleteDue(ctx, now)
	if err != nil {
		s.Logger.Error("status sweep failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return fmt.Errorf("complete due: %w", err)
	}

	s.Logger.Info("status sweep finished",
		zap.Int64("started", startedCount),
		zap.Int64("completed", completedCount),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// RunAvailabilitySweep re-derives car availability from the reservation
// table: any unavailable car without an active reservation is released.
// It self-heals drift left by a crash between orchestrator steps.
func (s *DefaultBookingService) RunAvailabilitySweep(ctx context.Context) error {
	started := time.Now()

	activeIDs, err := s.ReservationRepo.ActiveCarIDs(ctx)
	if err != nil {
		s.Logger.Error("availability sweep failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return fmt.Errorf("active car ids: %w", err)
	}
	released, err := s.CarRepo.ReleaseExcept(ctx, activeIDs)
	if err != nil {
		s.Logger.Error("availability sweep failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return fmt.Errorf("release cars: %w", err)
	}

	s.Logger.Info("availability sweep finished",
		zap.Int64("released", released),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// RunReminderSweep notifies users whose reservation ends ReminderLeadTime
// from now, within the sweep tolerance. Reservations without a usable
// recipient are skipped; individual delivery failures are logged and do
// not fail the sweep.
func (s *DefaultBookingService) RunReminderSweep(ctx context.Context) error {
	started := time.Now()
	target := s.now().Add(ReminderLeadTime)

	due, err := s.ReservationRepo.EndingWithin(ctx, target.Add(-ReminderWindow), target.Add(ReminderWindow))
	if err != nil {
		s.Logger.Error("reminder sweep failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return fmt.Errorf("ending reservations: %w", err)
	}

	var sent int
	for _, res := range due {
		if res.UserID == "" {
			continue
		}
		body := fmt.Sprintf("Reservation %s ends at %s.", res.ID, res.EndDate.Format(time.RFC3339))
		if err := s.Notifier.Send(ctx, "Your rental ends soon", body, res.UserID); err != nil {
			s.Logger.Warn("reminder delivery failed",
				zap.String("reservationId", res.ID), zap.Error(err))
			continue
		}
		sent++
	}

	s.Logger.Info("reminder sweep finished",
		zap.Int("due", len(due)),
		zap.Int("sent", sent),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveline/models"
)

func TestRunStatusSweep(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	f.addCar("car-1", 100.0, true)
	f.addCar("car-2", 100.0, true)
	f.addCar("car-3", 100.0, true)

	startsToday := f.book(t, "car-1", "user-1", day(1), day(3))
	require.NoError(t, f.reservations.UpdateStatus(ctx, startsToday.ID, models.ReservationConfirmed))

	endsToday := f.book(t, "car-2", "user-2", day(1).Add(-48*time.Hour), day(1))
	require.NoError(t, f.reservations.UpdateStatus(ctx, endsToday.ID, models.ReservationInProgress))

	future := f.book(t, "car-3", "user-3", day(4), day(6))
	require.NoError(t, f.reservations.UpdateStatus(ctx, future.ID, models.ReservationConfirmed))

	// Clock is at Jun 1 09:00 UTC.
	require.NoError(t, f.svc.RunStatusSweep(ctx))

	got, err := f.reservations.GetByID(ctx, startsToday.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationInProgress, got.Status)

	got, err = f.reservations.GetByID(ctx, endsToday.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, got.Status)

	got, err = f.reservations.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, got.Status)

	// Running again moves nothing further.
	require.NoError(t, f.svc.RunStatusSweep(ctx))

	got, err = f.reservations.GetByID(ctx, startsToday.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationInProgress, got.Status)

	got, err = f.reservations.GetByID(ctx, endsToday.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, got.Status)
}

func TestRunAvailabilitySweep(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	f.addCar("held", 100.0, true)
	f.addCar("stranded", 100.0, false)
	f.addCar("free", 100.0, true)

	f.book(t, "held", "user-1", day(2), day(4))

	require.NoError(t, f.svc.RunAvailabilitySweep(ctx))

	car, err := f.cars.GetByID(ctx, "held")
	require.NoError(t, err)
	assert.False(t, car.Available, "active reservation keeps its car held")

	car, err = f.cars.GetByID(ctx, "stranded")
	require.NoError(t, err)
	assert.True(t, car.Available, "car without an active reservation is released")

	car, err = f.cars.GetByID(ctx, "free")
	require.NoError(t, err)
	assert.True(t, car.Available)
}

func TestRunReminderSweep(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	f.addCar("car-1", 100.0, true)
	f.addCar("car-2", 100.0, true)

	// Ends exactly at the reminder target.
	endingSoon := f.book(t, "car-1", "user-1", day(1).Add(-24*time.Hour), f.now.Add(ReminderLeadTime))
	// Ends well outside the window.
	f.book(t, "car-2", "user-2", day(1).Add(-24*time.Hour), f.now.Add(6*time.Hour))

	f.sender.subjects = nil
	require.NoError(t, f.svc.RunReminderSweep(ctx))

	sent := f.sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your rental ends soon", sent[0])

	// A cancelled reservation gets no reminder.
	require.NoError(t, f.reservations.Cancel(ctx, endingSoon.ID))
	f.sender.subjects = nil
	require.NoError(t, f.svc.RunReminderSweep(ctx))
	assert.Empty(t, f.sender.sent())
}

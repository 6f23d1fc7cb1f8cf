package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveline/models"
)

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("books an available car and derives the cost", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 100.0, true)

		res, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID:     "car-1",
			UserID:    "user-1",
			StartDate: day(1),
			EndDate:   day(5),
		})
		require.NoError(t, err)

		assert.NotEmpty(t, res.ID)
		assert.Equal(t, models.ReservationPending, res.Status)
		assert.InDelta(t, 400.0, res.TotalCost, 1e-9)
		assert.False(t, res.IsPaid)

		car, err := f.cars.GetByID(ctx, "car-1")
		require.NoError(t, err)
		assert.False(t, car.Available, "booked car must be held")
	})

	t.Run("rejects overlapping dates on the same car", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 100.0, true)

		_, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1", StartDate: day(1), EndDate: day(5),
		})
		require.NoError(t, err)
		require.NoError(t, f.cars.SetAvailability(ctx, "car-1", true))

		_, err = f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-2", StartDate: day(4), EndDate: day(6),
		})
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("allows adjacent non-overlapping dates after release", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 100.0, true)

		_, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1", StartDate: day(1), EndDate: day(5),
		})
		require.NoError(t, err)
		require.NoError(t, f.cars.SetAvailability(ctx, "car-1", true))

		_, err = f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-2", StartDate: day(6), EndDate: day(8),
		})
		assert.NoError(t, err)
	})

	t.Run("rejects an unavailable car", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 100.0, false)

		_, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1", StartDate: day(1), EndDate: day(5),
		})
		require.Error(t, err)
		assert.Equal(t, KindBadRequest, KindOf(err))
	})

	t.Run("rejects an unknown car", func(t *testing.T) {
		f := newBookingFixture()

		_, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "nope", UserID: "user-1", StartDate: day(1), EndDate: day(5),
		})
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("rejects a start date at or after the end date", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 100.0, true)

		for _, tc := range []struct{ start, end time.Time }{
			{day(5), day(1)},
			{day(5), day(5)},
		} {
			_, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
				CarID: "car-1", UserID: "user-1", StartDate: tc.start, EndDate: tc.end,
			})
			require.Error(t, err)
			assert.Equal(t, KindBadRequest, KindOf(err))
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 100.0, true)

		_, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			UserID: "user-1", StartDate: day(1), EndDate: day(5),
		})
		assert.Equal(t, KindBadRequest, KindOf(err))

		_, err = f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", StartDate: day(1), EndDate: day(5),
		})
		assert.Equal(t, KindBadRequest, KindOf(err))

		_, err = f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1",
		})
		assert.Equal(t, KindBadRequest, KindOf(err))
	})

	t.Run("sends the booking notice and schedules the deadline reminder", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 100.0, true)

		res, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1", StartDate: day(2), EndDate: day(6),
		})
		require.NoError(t, err)

		assert.Contains(t, f.sender.sent(), "Reservation received")

		require.Len(t, f.scheduler.payloads, 1)
		assert.Equal(t, res.ID, f.scheduler.payloads[0].ReservationID)
		assert.Equal(t, "user-1", f.scheduler.payloads[0].RecipientTag)
		assert.True(t, f.scheduler.fireAts[0].Equal(day(6).Add(-ReminderLeadTime)))
	})

	t.Run("notification failure does not unwind the booking", func(t *testing.T) {
		f := newBookingFixture()
		f.sender.fail = true
		f.addCar("car-1", 100.0, true)

		res, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1", StartDate: day(1), EndDate: day(5),
		})
		require.NoError(t, err)

		stored, err := f.reservations.GetByID(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationPending, stored.Status)
	})
}

func TestGetReservation(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	f.addCar("car-1", 50.0, true)

	res, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
		CarID: "car-1", UserID: "user-1", StartDate: day(1), EndDate: day(3),
	})
	require.NoError(t, err)

	got, err := f.svc.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	_, err = f.svc.GetReservation(ctx, "missing")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDeleteReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the row and detaches its payments", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 50.0, true)

		res, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1", StartDate: day(1), EndDate: day(3),
		})
		require.NoError(t, err)

		require.NoError(t, f.payments.Create(ctx, &models.Payment{
			ID:                "pay-1",
			CheckoutSessionID: "cs_1",
			Amount:            res.TotalCost,
			Status:            models.PaymentPending,
			ReservationID:     res.ID,
			CreatedAt:         f.now,
		}))

		require.NoError(t, f.svc.DeleteReservation(ctx, "user-1", res.ID))

		_, err = f.reservations.GetByID(ctx, res.ID)
		assert.Error(t, err)

		// The payment row survives as ledger history, unlinked.
		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Empty(t, pay.ReservationID)

		assert.Equal(t, KindNotFound, KindOf(f.svc.DeleteReservation(ctx, "user-1", res.ID)))
	})

	t.Run("rejects another user's reservation", func(t *testing.T) {
		f := newBookingFixture()
		f.addCar("car-1", 50.0, true)

		res, err := f.svc.CreateReservation(ctx, CreateReservationRequest{
			CarID: "car-1", UserID: "user-1", StartDate: day(1), EndDate: day(3),
		})
		require.NoError(t, err)

		err = f.svc.DeleteReservation(ctx, "user-2", res.ID)
		assert.Equal(t, KindForbidden, KindOf(err))

		_, err = f.reservations.GetByID(ctx, res.ID)
		assert.NoError(t, err, "reservation must survive a forbidden delete")
	})
}

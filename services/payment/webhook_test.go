package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"driveline/database"
	paymentRepo "driveline/database/repository/payment"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/models"
)

type reconcilerFixture struct {
	rec          *DefaultReconciler
	payments     *paymentRepo.InMemoryPaymentRepo
	reservations *reservationRepo.InMemoryReservationRepo
	now          time.Time
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		payments:     paymentRepo.NewInMemoryPaymentRepo(),
		reservations: reservationRepo.NewInMemoryReservationRepo(),
		now:          time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.rec = &DefaultReconciler{
		PaymentRepo:     f.payments,
		ReservationRepo: f.reservations,
		Tx:              &database.SerialTxRunner{},
		Logger:          zap.NewNop(),
		Clock:           func() time.Time { return f.now },
	}
	return f
}

func (f *reconcilerFixture) seed(t *testing.T, resStatus models.ReservationStatus, payStatus models.PaymentStatus) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.reservations.Create(ctx, &models.Reservation{
		ID:        "res-1",
		CarID:     "car-1",
		UserID:    "user-1",
		StartDate: f.now.Add(24 * time.Hour),
		EndDate:   f.now.Add(72 * time.Hour),
		TotalCost: 200,
		Status:    resStatus,
	}))
	require.NoError(t, f.payments.Create(ctx, &models.Payment{
		ID:                "pay-1",
		CheckoutSessionID: "cs_1",
		Amount:            200,
		Currency:          "usd",
		Status:            payStatus,
		ReservationID:     "res-1",
		CreatedAt:         f.now,
	}))
}

func TestHandleCheckoutCompleted(t *testing.T) {
	ctx := context.Background()

	completed := WebhookEvent{
		ID:              "evt_1",
		Type:            EventCheckoutCompleted,
		SessionID:       "cs_1",
		PaymentIntentID: "pi_1",
		CustomerID:      "cus_1",
	}

	t.Run("confirms the reservation and records provider refs", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationPending, models.PaymentPending)

		require.NoError(t, f.rec.HandleEvent(ctx, completed))

		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentSucceeded, pay.Status)
		assert.Equal(t, "pi_1", pay.PaymentIntentID)
		assert.Equal(t, "cus_1", pay.CustomerID)
		require.NotNil(t, pay.SucceededAt)

		res, err := f.reservations.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.True(t, res.IsPaid)
		assert.Equal(t, models.ReservationConfirmed, res.Status)
	})

	t.Run("replay is a no-op", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationPending, models.PaymentPending)

		require.NoError(t, f.rec.HandleEvent(ctx, completed))
		first, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)

		require.NoError(t, f.rec.HandleEvent(ctx, completed))
		second, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)

		assert.Equal(t, first, second)

		res, err := f.reservations.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, models.ReservationConfirmed, res.Status)
	})

	t.Run("late success never resurrects a cancelled reservation", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationPending, models.PaymentPending)
		require.NoError(t, f.reservations.Cancel(ctx, "res-1"))

		require.NoError(t, f.rec.HandleEvent(ctx, completed))

		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentSucceeded, pay.Status, "payment ledger still reflects the capture")

		res, err := f.reservations.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.False(t, res.IsPaid)
		assert.Equal(t, models.ReservationCancelled, res.Status)
	})

	t.Run("unknown session is ignored", func(t *testing.T) {
		f := newReconcilerFixture()

		err := f.rec.HandleEvent(ctx, WebhookEvent{
			ID: "evt_x", Type: EventCheckoutCompleted, SessionID: "cs_unknown",
		})
		assert.NoError(t, err)
	})

	t.Run("unknown event type is ignored", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationPending, models.PaymentPending)

		err := f.rec.HandleEvent(ctx, WebhookEvent{
			ID: "evt_y", Type: "invoice.created", SessionID: "cs_1",
		})
		require.NoError(t, err)

		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, pay.Status)
	})
}

func TestHandlePaymentFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("marks a pending payment failed", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationPending, models.PaymentPending)

		require.NoError(t, f.rec.HandleEvent(ctx, WebhookEvent{
			ID: "evt_f1", Type: EventPaymentFailed, SessionID: "cs_1",
		}))

		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, pay.Status)
	})

	t.Run("expired session fails the payment too", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationPending, models.PaymentPending)

		require.NoError(t, f.rec.HandleEvent(ctx, WebhookEvent{
			ID: "evt_f2", Type: EventCheckoutExpired, SessionID: "cs_1",
		}))

		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, pay.Status)
	})

	t.Run("stale failure never demotes a succeeded payment", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationConfirmed, models.PaymentSucceeded)

		require.NoError(t, f.rec.HandleEvent(ctx, WebhookEvent{
			ID: "evt_f3", Type: EventPaymentFailed, SessionID: "cs_1",
		}))

		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentSucceeded, pay.Status)
	})
}

func TestHandleRefunded(t *testing.T) {
	ctx := context.Background()

	refundEvent := WebhookEvent{
		ID:              "evt_r1",
		Type:            EventChargeRefunded,
		SessionID:       "cs_1",
		PaymentIntentID: "pi_1",
		RefundID:        "re_1",
	}

	t.Run("flips the payment and clears the paid flag", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationConfirmed, models.PaymentSucceeded)
		require.NoError(t, f.payments.SetProviderRefs(ctx, "pay-1", "pi_1", "cus_1"))
		require.NoError(t, f.reservations.SetPaid(ctx, "res-1", true))

		require.NoError(t, f.rec.HandleEvent(ctx, refundEvent))

		pay, err := f.payments.GetByID(ctx, "pay-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRefunded, pay.Status)
		require.NotNil(t, pay.RefundedAt)

		refunds := f.payments.Refunds()
		require.Len(t, refunds, 1)
		assert.Equal(t, "re_1", refunds[0].ProviderRefundID)
		assert.Equal(t, "pay-1", refunds[0].PaymentID)

		res, err := f.reservations.GetByID(ctx, "res-1")
		require.NoError(t, err)
		assert.False(t, res.IsPaid)
	})

	t.Run("does not duplicate a refund recorded by the cancellation flow", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seed(t, models.ReservationConfirmed, models.PaymentSucceeded)
		require.NoError(t, f.payments.SetProviderRefs(ctx, "pay-1", "pi_1", "cus_1"))
		require.NoError(t, f.payments.MarkRefunded(ctx, "pay-1", f.now))
		require.NoError(t, f.payments.CreateRefund(ctx, &models.Refund{
			ID:               "ref-local",
			ProviderRefundID: "re_1",
			Amount:           200,
			Status:           "succeeded",
			PaymentID:        "pay-1",
			CreatedAt:        f.now,
		}))

		require.NoError(t, f.rec.HandleEvent(ctx, refundEvent))
		assert.Len(t, f.payments.Refunds(), 1)
	})

	t.Run("refund event with no resolvable payment is ignored", func(t *testing.T) {
		f := newReconcilerFixture()

		err := f.rec.HandleEvent(ctx, WebhookEvent{
			ID: "evt_r2", Type: EventRefundSucceeded, RefundID: "re_unknown",
		})
		assert.NoError(t, err)
	})
}

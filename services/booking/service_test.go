package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"driveline/database"
	carRepo "driveline/database/repository/car"
	paymentRepo "driveline/database/repository/payment"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/models"
	"driveline/services/notification"
)

// recordingSender captures dispatched notifications for assertions.
type recordingSender struct {
	mu       sync.Mutex
	subjects []string
	fail     bool
}

func (s *recordingSender) Send(_ context.Context, subject, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("channel down")
	}
	s.subjects = append(s.subjects, subject)
	return nil
}

func (s *recordingSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subjects...)
}

// recordingScheduler captures scheduled reminders.
type recordingScheduler struct {
	mu       sync.Mutex
	payloads []models.ReminderPayload
	fireAts  []time.Time
}

func (s *recordingScheduler) ScheduleReminder(payload models.ReminderPayload, fireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	s.fireAts = append(s.fireAts, fireAt)
	return nil
}

// stubRefundGateway records refund calls and optionally fails them.
type stubRefundGateway struct {
	mu       sync.Mutex
	calls    int
	failWith error
}

func (g *stubRefundGateway) Refund(_ context.Context, _ string, _ float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failWith != nil {
		return "", g.failWith
	}
	return "re_test_1", nil
}

type bookingFixture struct {
	svc          *DefaultBookingService
	cars         *carRepo.InMemoryCarRepo
	reservations *reservationRepo.InMemoryReservationRepo
	payments     *paymentRepo.InMemoryPaymentRepo
	gateway      *stubRefundGateway
	sender       *recordingSender
	scheduler    *recordingScheduler
	now          time.Time
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		cars:         carRepo.NewInMemoryCarRepo(),
		reservations: reservationRepo.NewInMemoryReservationRepo(),
		payments:     paymentRepo.NewInMemoryPaymentRepo(),
		gateway:      &stubRefundGateway{},
		sender:       &recordingSender{},
		scheduler:    &recordingScheduler{},
		now:          time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	notifier := notification.NewRegistry()
	notifier.Register("email", f.sender)
	f.svc = &DefaultBookingService{
		CarRepo:         f.cars,
		ReservationRepo: f.reservations,
		PaymentRepo:     f.payments,
		Gateway:         f.gateway,
		Tx:              &database.SerialTxRunner{},
		Notifier:        notifier,
		Scheduler:       f.scheduler,
		Logger:          zap.NewNop(),
		Clock:           func() time.Time { return f.now },
	}
	return f
}

func (f *bookingFixture) addCar(id string, pricePerDay float64, available bool) {
	_ = f.cars.Create(context.Background(), &models.Car{
		ID:          id,
		Model:       "Test Model",
		PlateNumber: "TST-" + id,
		PricePerDay: pricePerDay,
		Available:   available,
	})
}

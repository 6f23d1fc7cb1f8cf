package paymentRepo

import (
	"context"
	"sync"
	"time"

	"driveline/models"
)

// InMemoryPaymentRepo is a map-backed PaymentRepository for unit tests.
type InMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[string]*models.Payment
	refunds  map[string]*models.Refund
}

func NewInMemoryPaymentRepo() *InMemoryPaymentRepo {
	return &InMemoryPaymentRepo{
		payments: make(map[string]*models.Payment),
		refunds:  make(map[string]*models.Refund),
	}
}

func (r *InMemoryPaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *InMemoryPaymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	return r.find(func(p *models.Payment) bool { return p.ID == id })
}

func (r *InMemoryPaymentRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Payment, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	return r.find(func(p *models.Payment) bool { return p.CheckoutSessionID == sessionID })
}

func (r *InMemoryPaymentRepo) GetByIntentID(_ context.Context, intentID string) (*models.Payment, error) {
	if intentID == "" {
		return nil, ErrNotFound
	}
	return r.find(func(p *models.Payment) bool { return p.PaymentIntentID == intentID })
}

func (r *InMemoryPaymentRepo) GetByReservationID(_ context.Context, reservationID string) (*models.Payment, error) {
	return r.find(func(p *models.Payment) bool { return p.ReservationID == reservationID })
}

func (r *InMemoryPaymentRepo) find(match func(*models.Payment) bool) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var newest *models.Payment
	for _, p := range r.payments {
		if match(p) && (newest == nil || p.CreatedAt.After(newest.CreatedAt)) {
			newest = p
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (r *InMemoryPaymentRepo) SetProviderRefs(_ context.Context, id, intentID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.PaymentIntentID = intentID
	p.CustomerID = customerID
	return nil
}

func (r *InMemoryPaymentRepo) MarkSucceeded(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = models.PaymentSucceeded
	p.SucceededAt = &at
	return nil
}

func (r *InMemoryPaymentRepo) MarkFailed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = models.PaymentFailed
	return nil
}

func (r *InMemoryPaymentRepo) MarkRefunded(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = models.PaymentRefunded
	p.RefundedAt = &at
	return nil
}

func (r *InMemoryPaymentRepo) DetachReservation(_ context.Context, reservationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ReservationID == reservationID {
			p.ReservationID = ""
		}
	}
	return nil
}

func (r *InMemoryPaymentRepo) CreateRefund(_ context.Context, ref *models.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	r.refunds[ref.ID] = &cp
	return nil
}

func (r *InMemoryPaymentRepo) GetRefundByProviderID(_ context.Context, providerRefundID string) (*models.Refund, error) {
	if providerRefundID == "" {
		return nil, ErrRefundNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ref := range r.refunds {
		if ref.ProviderRefundID == providerRefundID {
			cp := *ref
			return &cp, nil
		}
	}
	return nil, ErrRefundNotFound
}

// Refunds returns a snapshot of stored refunds, newest last. Test helper.
func (r *InMemoryPaymentRepo) Refunds() []models.Refund {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Refund, 0, len(r.refunds))
	for _, ref := range r.refunds {
		out = append(out, *ref)
	}
	return out
}

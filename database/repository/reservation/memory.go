package reservationRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"driveline/models"
)

// InMemoryReservationRepo is a map-backed ReservationRepository for unit
// tests. Overlap protection applies the same interval rule as the
// PostgreSQL constraint.
type InMemoryReservationRepo struct {
	mu           sync.RWMutex
	reservations map[string]*models.Reservation
}

func NewInMemoryReservationRepo() *InMemoryReservationRepo {
	return &InMemoryReservationRepo{reservations: make(map[string]*models.Reservation)}
}

func (r *InMemoryReservationRepo) Create(_ context.Context, res *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.reservations {
		if other.CarID == res.CarID && other.Active() && other.Overlaps(res.StartDate, res.EndDate) {
			return ErrOverlap
		}
	}
	cp := *res
	r.reservations[res.ID] = &cp
	return nil
}

func (r *InMemoryReservationRepo) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *InMemoryReservationRepo) HasOverlap(_ context.Context, carID string, start, end time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.reservations {
		if res.CarID == carID && res.Status != models.ReservationCancelled &&
			!res.IsDeleted && res.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryReservationRepo) Cancel(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return ErrNotFound
	}
	res.Status = models.ReservationCancelled
	res.IsDeleted = true
	res.IsPaid = false
	return nil
}

func (r *InMemoryReservationRepo) SetPaid(_ context.Context, id string, paid bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return ErrNotFound
	}
	res.IsPaid = paid
	return nil
}

func (r *InMemoryReservationRepo) UpdateStatus(_ context.Context, id string, status models.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return ErrNotFound
	}
	res.Status = status
	return nil
}

func (r *InMemoryReservationRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return ErrNotFound
	}
	if res.IsDeleted {
		return ErrAlreadyDeleted
	}
	res.IsDeleted = true
	return nil
}

func (r *InMemoryReservationRepo) HardDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[id]; !ok {
		return ErrNotFound
	}
	delete(r.reservations, id)
	return nil
}

func (r *InMemoryReservationRepo) StartDue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, res := range r.reservations {
		if res.Status == models.ReservationConfirmed && !res.IsDeleted &&
			!res.StartDate.After(now) && res.EndDate.After(now) {
			res.Status = models.ReservationInProgress
			n++
		}
	}
	return n, nil
}

func (r *InMemoryReservationRepo) CompleteDue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, res := range r.reservations {
		if res.Status == models.ReservationInProgress && !res.IsDeleted &&
			!res.EndDate.After(now) {
			res.Status = models.ReservationCompleted
			n++
		}
	}
	return n, nil
}

func (r *InMemoryReservationRepo) ActiveCarIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, res := range r.reservations {
		if res.Active() {
			seen[res.CarID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *InMemoryReservationRepo) EndingWithin(_ context.Context, from, to time.Time) ([]*models.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Reservation
	for _, res := range r.reservations {
		if res.Active() && !res.EndDate.Before(from) && !res.EndDate.After(to) {
			cp := *res
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

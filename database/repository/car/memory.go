package carRepo

import (
	"context"
	"sync"

	"driveline/models"
)

// InMemoryCarRepo is a map-backed CarRepository for unit tests.
type InMemoryCarRepo struct {
	mu   sync.RWMutex
	cars map[string]*models.Car
}

func NewInMemoryCarRepo() *InMemoryCarRepo {
	return &InMemoryCarRepo{cars: make(map[string]*models.Car)}
}

func (r *InMemoryCarRepo) Create(_ context.Context, car *models.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *car
	r.cars[car.ID] = &cp
	return nil
}

func (r *InMemoryCarRepo) GetByID(_ context.Context, id string) (*models.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	car, ok := r.cars[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *car
	return &cp, nil
}

func (r *InMemoryCarRepo) SetAvailability(_ context.Context, id string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	car, ok := r.cars[id]
	if !ok {
		return ErrNotFound
	}
	car.Available = available
	return nil
}

func (r *InMemoryCarRepo) UnavailableIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, car := range r.cars {
		if !car.Available {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *InMemoryCarRepo) ReleaseExcept(_ context.Context, keep []string) (int64, error) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, car := range r.cars {
		if _, held := keepSet[id]; !held && !car.Available {
			car.Available = true
			n++
		}
	}
	return n, nil
}

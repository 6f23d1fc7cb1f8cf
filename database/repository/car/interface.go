package carRepo

import (
	"context"
	"errors"

	"driveline/models"
)

// ErrNotFound is returned when no car matches the given id.
var ErrNotFound = errors.New("car not found")

// CarRepository is the availability store. Mutating methods respect an
// open transaction carried by the context.
type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id string) (*models.Car, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	// UnavailableIDs lists ids of cars currently flagged unavailable.
	UnavailableIDs(ctx context.Context) ([]string, error)
	// ReleaseExcept flips every unavailable car whose id is not in keep
	// back to available and returns how many rows changed. It is the bulk
	// reconciliation update used by the availability sweep.
	ReleaseExcept(ctx context.Context, keep []string) (int64, error)
}

package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestRentalDays(t *testing.T) {
	assert.Equal(t, 4, RentalDays(day(1), day(5)))
	assert.Equal(t, 1, RentalDays(day(1), day(2)))

	// Anything under a day still rents as one day.
	assert.Equal(t, 1, RentalDays(day(1), day(1).Add(3*time.Hour)))

	// Partial trailing day is not charged.
	assert.Equal(t, 2, RentalDays(day(1), day(3).Add(6*time.Hour)))
}

func TestTotalCost(t *testing.T) {
	assert.InDelta(t, 400.0, TotalCost(100.0, day(1), day(5)), 1e-9)
	assert.InDelta(t, 59.99, TotalCost(59.99, day(10), day(11)), 1e-9)
}

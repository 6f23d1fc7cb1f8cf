package models

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "Pending"
	ReservationConfirmed  ReservationStatus = "Confirmed"
	ReservationInProgress ReservationStatus = "InProgress"
	ReservationCompleted  ReservationStatus = "Completed"
	ReservationCancelled  ReservationStatus = "Cancelled"
)

// ActiveReservationStatuses are the statuses that make a car unavailable.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationConfirmed,
	ReservationInProgress,
}

// Reservation books a car for a date range. Dates are UTC instants with
// StartDate strictly before EndDate. TotalCost is derived at booking time
// from the car's per-day price. Cancellation soft-deletes the row.
type Reservation struct {
	ID        string            `db:"id" json:"id"`
	CarID     string            `db:"car_id" json:"carId"`
	UserID    string            `db:"user_id" json:"userId"`
	StartDate time.Time         `db:"start_date" json:"startDate"`
	EndDate   time.Time         `db:"end_date" json:"endDate"`
	TotalCost float64           `db:"total_cost" json:"totalCost"`
	Status    ReservationStatus `db:"status" json:"status"`
	IsPaid    bool              `db:"is_paid" json:"isPaid"`
	IsDeleted bool              `db:"is_deleted" json:"-"`
	CreatedAt time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time         `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the reservation should hold its car, i.e. it is
// neither terminal nor soft-deleted.
func (r *Reservation) Active() bool {
	if r.IsDeleted {
		return false
	}
	switch r.Status {
	case ReservationPending, ReservationConfirmed, ReservationInProgress:
		return true
	}
	return false
}

// Overlaps tests the reservation's interval against [start, end] using the
// inclusive rule endA >= startB && startA <= endB.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return !r.EndDate.Before(start) && !r.StartDate.After(end)
}

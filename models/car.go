package models

import "time"

// Car is a rentable vehicle. Availability mirrors the reservation table:
// a car is unavailable while at least one active (Pending, Confirmed or
// InProgress, non-deleted) reservation exists for it. The reconciliation
// sweep repairs drift between the two.
type Car struct {
	ID          string    `db:"id" json:"id"`
	Model       string    `db:"model" json:"model"`
	PlateNumber string    `db:"plate_number" json:"plateNumber"`
	PricePerDay float64   `db:"price_per_day" json:"pricePerDay"`
	Available   bool      `db:"available" json:"available"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

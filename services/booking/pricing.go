package booking

import "time"

const hoursPerDay = 24

// RentalDays returns the number of whole calendar days between start and
// end, never less than one. A partial day rents as a full day.
func RentalDays(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / hoursPerDay)
	if days < 1 {
		days = 1
	}
	return days
}

// TotalCost derives the reservation price from the car's per-day rate.
func TotalCost(pricePerDay float64, start, end time.Time) float64 {
	return float64(RentalDays(start, end)) * pricePerDay
}

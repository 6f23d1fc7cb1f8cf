package models

// ReminderPayload is the asynq task payload for a reservation deadline
// reminder. RecipientTag identifies the addressee to the notification
// senders; delivery transport resolves it on its side.
type ReminderPayload struct {
	ReservationID string `json:"reservationId"`
	RecipientTag  string `json:"recipientTag"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	FireAt        string `json:"fireAt"`
}

package models

import "time"

// PaymentStatus tracks the provider-side state of a payment.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "Pending"
	PaymentRequiresAction PaymentStatus = "RequiresAction"
	PaymentSucceeded      PaymentStatus = "Succeeded"
	PaymentFailed         PaymentStatus = "Failed"
	PaymentRefunded       PaymentStatus = "Refunded"
)

// Payment is the local record of a provider checkout. Provider identifiers
// stay empty until the provider assigns them. Status transitions are driven
// by webhook events, except Refunded which the cancellation flow may set
// directly after a successful refund call.
type Payment struct {
	ID                string        `db:"id" json:"id"`
	PaymentIntentID   string        `db:"payment_intent_id" json:"paymentIntentId,omitempty"`
	CheckoutSessionID string        `db:"checkout_session_id" json:"checkoutSessionId,omitempty"`
	CustomerID        string        `db:"customer_id" json:"customerId,omitempty"`
	Amount            float64       `db:"amount" json:"amount"`
	Currency          string        `db:"currency" json:"currency"`
	Status            PaymentStatus `db:"status" json:"status"`
	ReservationID     string        `db:"reservation_id" json:"reservationId,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	SucceededAt       *time.Time    `db:"succeeded_at" json:"succeededAt,omitempty"`
	RefundedAt        *time.Time    `db:"refunded_at" json:"refundedAt,omitempty"`
}

// Refund records a provider refund issued against a payment.
type Refund struct {
	ID               string    `db:"id" json:"id"`
	ProviderRefundID string    `db:"provider_refund_id" json:"providerRefundId,omitempty"`
	Amount           float64   `db:"amount" json:"amount"`
	Status           string    `db:"status" json:"status"`
	PaymentID        string    `db:"payment_id" json:"paymentId"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

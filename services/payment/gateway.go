package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"

	"driveline/config"
	"driveline/models"
)

// Gateway talks to the payment provider: it opens checkout sessions and
// issues refunds, returning the provider-assigned identifiers.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, res *models.Reservation, car *models.Car) (sessionID, url string, err error)
	Refund(ctx context.Context, paymentIntentID string, amount float64) (refundID string, err error)
}

// StripeGateway is the Stripe implementation. The API key is set once on
// the stripe package in main.
type StripeGateway struct {
	Logger *zap.Logger
}

func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{Logger: logger}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, res *models.Reservation, car *models.Car) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(config.AppConfig.CheckoutSuccessURL),
		CancelURL:         stripe.String(config.AppConfig.CheckoutCancelURL),
		ClientReferenceID: stripe.String(res.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(config.AppConfig.Currency),
					UnitAmount: stripe.Int64(toMinorUnits(res.TotalCost)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Car rental: %s", car.Model)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"reservationId": res.ID,
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}

	g.Logger.Info("checkout session created",
		zap.String("reservationId", res.ID),
		zap.String("sessionId", sess.ID),
	)
	return sess.ID, sess.URL, nil
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string, amount float64) (string, error) {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	ref, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("create refund: %w", err)
	}

	g.Logger.Info("refund issued",
		zap.String("paymentIntentId", paymentIntentID),
		zap.String("refundId", ref.ID),
	)
	return ref.ID, nil
}

// toMinorUnits converts a decimal amount to the integer minor units the
// provider expects.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

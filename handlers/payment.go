package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"driveline/config"
	"driveline/middleware"
	"driveline/services/payment"
)

// PaymentHandler exposes checkout creation and the provider webhook.
type PaymentHandler struct {
	checkout   payment.CheckoutService
	reconciler payment.Reconciler
	logger     *zap.Logger
}

func NewPaymentHandler(checkout payment.CheckoutService, reconciler payment.Reconciler, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, reconciler: reconciler, logger: logger}
}

// StartCheckout handles POST /api/reservations/:id/checkout.
func (h *PaymentHandler) StartCheckout(c *gin.Context) {
	url, err := h.checkout.StartCheckout(c.Request.Context(), middleware.ActingUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Webhook handles POST /api/payments/webhook. The signature is verified
// against the shared signing secret before anything is parsed; a bad
// signature mutates nothing.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), config.AppConfig.StripeWebhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	ev, err := toWebhookEvent(event)
	if err != nil {
		h.logger.Warn("webhook payload parsing failed",
			zap.String("type", string(event.Type)), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.reconciler.HandleEvent(c.Request.Context(), ev); err != nil {
		// Internal failure: let the provider redeliver; the reconciler
		// is idempotent.
		h.logger.Error("webhook reconciliation failed",
			zap.String("type", ev.Type), zap.String("eventId", ev.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// toWebhookEvent reduces the provider envelope to the identifiers the
// reconciler works with.
func toWebhookEvent(event stripe.Event) (payment.WebhookEvent, error) {
	ev := payment.WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch ev.Type {
	case payment.EventCheckoutCompleted, payment.EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return ev, err
		}
		ev.SessionID = sess.ID
		if sess.PaymentIntent != nil {
			ev.PaymentIntentID = sess.PaymentIntent.ID
		}
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
	case payment.EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return ev, err
		}
		ev.PaymentIntentID = intent.ID
	case payment.EventRefundSucceeded, payment.EventRefundUpdated:
		var ref stripe.Refund
		if err := json.Unmarshal(event.Data.Raw, &ref); err != nil {
			return ev, err
		}
		ev.RefundID = ref.ID
		if ref.PaymentIntent != nil {
			ev.PaymentIntentID = ref.PaymentIntent.ID
		}
	case payment.EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return ev, err
		}
		if charge.PaymentIntent != nil {
			ev.PaymentIntentID = charge.PaymentIntent.ID
		}
		if charge.Refunds != nil && len(charge.Refunds.Data) > 0 && charge.Refunds.Data[0] != nil {
			ev.RefundID = charge.Refunds.Data[0].ID
		}
	case payment.EventChargeDisputeClosed:
		var dispute stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return ev, err
		}
		if dispute.PaymentIntent != nil {
			ev.PaymentIntentID = dispute.PaymentIntent.ID
		}
	}
	return ev, nil
}

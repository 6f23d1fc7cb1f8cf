package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"driveline/config"
	"driveline/services/payment"
)

// recordingReconciler captures the events the webhook handler dispatches.
type recordingReconciler struct {
	events []payment.WebhookEvent
}

func (r *recordingReconciler) HandleEvent(_ context.Context, ev payment.WebhookEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func newWebhookRouter(rec payment.Reconciler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPaymentHandler(nil, rec, zap.NewNop())
	r.POST("/api/payments/webhook", h.Webhook)
	return r
}

// signBody builds a Stripe-Signature header for body: an HMAC-SHA256 of
// "<timestamp>.<body>" under the shared signing secret.
func signBody(body, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookSignatureVerification(t *testing.T) {
	config.AppConfig.StripeWebhookSecret = "whsec_test"

	t.Run("missing signature is rejected with no dispatch", func(t *testing.T) {
		rec := &recordingReconciler{}
		router := newWebhookRouter(rec)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook",
			strings.NewReader(`{"id":"evt_1","type":"checkout.session.completed"}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, rec.events, "unverified payload must not reach the reconciler")
	})

	t.Run("garbage signature is rejected with no dispatch", func(t *testing.T) {
		rec := &recordingReconciler{}
		router := newWebhookRouter(rec)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook",
			strings.NewReader(`not even json`))
		req.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, rec.events)
	})

	t.Run("signature under the wrong secret is rejected", func(t *testing.T) {
		rec := &recordingReconciler{}
		router := newWebhookRouter(rec)

		body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", signBody(body, "whsec_other", time.Now()))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, rec.events)
	})

	t.Run("verified event is parsed and dispatched", func(t *testing.T) {
		rec := &recordingReconciler{}
		router := newWebhookRouter(rec)

		body := `{"id":"evt_1","api_version":"2023-10-16","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_intent":{"id":"pi_1"},"customer":{"id":"cus_1"}}}}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", signBody(body, "whsec_test", time.Now()))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, rec.events, 1)
		assert.Equal(t, "evt_1", rec.events[0].ID)
		assert.Equal(t, payment.EventCheckoutCompleted, rec.events[0].Type)
		assert.Equal(t, "cs_1", rec.events[0].SessionID)
		assert.Equal(t, "pi_1", rec.events[0].PaymentIntentID)
		assert.Equal(t, "cus_1", rec.events[0].CustomerID)
	})
}

func TestToWebhookEvent(t *testing.T) {
	t.Run("charge.refunded carries the refund id", func(t *testing.T) {
		raw := `{"id":"ch_1","payment_intent":{"id":"pi_1"},"refunds":{"data":[{"id":"re_1"}]}}`
		ev, err := toWebhookEvent(stripe.Event{
			ID:   "evt_r",
			Type: stripe.EventType(payment.EventChargeRefunded),
			Data: &stripe.EventData{Raw: json.RawMessage(raw)},
		})
		require.NoError(t, err)
		assert.Equal(t, "pi_1", ev.PaymentIntentID)
		assert.Equal(t, "re_1", ev.RefundID)
	})

	t.Run("refund.succeeded carries refund and intent ids", func(t *testing.T) {
		raw := `{"id":"re_2","payment_intent":{"id":"pi_2"}}`
		ev, err := toWebhookEvent(stripe.Event{
			ID:   "evt_r2",
			Type: stripe.EventType(payment.EventRefundSucceeded),
			Data: &stripe.EventData{Raw: json.RawMessage(raw)},
		})
		require.NoError(t, err)
		assert.Equal(t, "re_2", ev.RefundID)
		assert.Equal(t, "pi_2", ev.PaymentIntentID)
	})
}

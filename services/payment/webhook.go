package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"driveline/database"
	paymentRepo "driveline/database/repository/payment"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/models"
	"driveline/utils"
)

// Provider event types the reconciler understands.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventCheckoutExpired     = "checkout.session.expired"
	EventPaymentFailed       = "payment_intent.payment_failed"
	EventChargeRefunded      = "charge.refunded"
	EventRefundSucceeded     = "refund.succeeded"
	EventRefundUpdated       = "refund.updated"
	EventChargeDisputeClosed = "charge.dispute.closed"
)

// WebhookEvent is the provider event reduced to the identifiers the
// reconciler needs. The HTTP handler fills it from the verified envelope.
type WebhookEvent struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	CustomerID      string
	RefundID        string
}

// Reconciler applies provider webhook events to local payment and
// reservation state.
type Reconciler interface {
	HandleEvent(ctx context.Context, ev WebhookEvent) error
}

// DefaultReconciler is the production Reconciler. Every handler is safe
// to run more than once: the provider delivers at least once, and
// concurrent duplicates are possible. A Redis marker skips already-seen
// event ids early; the status checks make replays harmless even when the
// marker is unavailable.
type DefaultReconciler struct {
	PaymentRepo     paymentRepo.PaymentRepository
	ReservationRepo reservationRepo.ReservationRepository
	Tx              database.TxRunner
	Cache           *redis.Client
	Logger          *zap.Logger
	// Clock is overridable in tests; nil means time.Now.
	Clock func() time.Time
}

func (r *DefaultReconciler) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}

// HandleEvent dispatches one provider event. Unknown event types and
// events whose payment cannot be resolved are logged no-ops, never errors.
func (r *DefaultReconciler) HandleEvent(ctx context.Context, ev WebhookEvent) error {
	if r.alreadySeen(ctx, ev.ID) {
		r.Logger.Debug("duplicate webhook event skipped", zap.String("eventId", ev.ID))
		return nil
	}

	var err error
	switch ev.Type {
	case EventCheckoutCompleted:
		err = r.handleCheckoutCompleted(ctx, ev)
	case EventCheckoutExpired, EventPaymentFailed:
		err = r.handlePaymentFailed(ctx, ev)
	case EventChargeRefunded, EventRefundSucceeded, EventRefundUpdated, EventChargeDisputeClosed:
		err = r.handleRefunded(ctx, ev)
	default:
		r.Logger.Info("unknown webhook event type ignored",
			zap.String("type", ev.Type), zap.String("eventId", ev.ID))
		return nil
	}
	if err == nil {
		// Marked only after success so a failed event is reprocessed on
		// the provider's redelivery.
		r.markSeen(ctx, ev.ID)
	}
	return err
}

func (r *DefaultReconciler) handleCheckoutCompleted(ctx context.Context, ev WebhookEvent) error {
	p, err := r.PaymentRepo.GetBySessionID(ctx, ev.SessionID)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrNotFound) {
			r.Logger.Info("checkout completed for unknown session, ignored",
				zap.String("sessionId", ev.SessionID))
			return nil
		}
		return fmt.Errorf("resolve payment by session: %w", err)
	}
	if p.Status == models.PaymentSucceeded {
		return nil
	}

	if ev.PaymentIntentID != "" || ev.CustomerID != "" {
		intentID := ev.PaymentIntentID
		if intentID == "" {
			intentID = p.PaymentIntentID
		}
		customerID := ev.CustomerID
		if customerID == "" {
			customerID = p.CustomerID
		}
		if err := r.PaymentRepo.SetProviderRefs(ctx, p.ID, intentID, customerID); err != nil {
			return fmt.Errorf("set provider refs: %w", err)
		}
	}

	return r.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.PaymentRepo.MarkSucceeded(ctx, p.ID, r.now()); err != nil {
			return err
		}
		if p.ReservationID == "" {
			return nil
		}
		res, err := r.ReservationRepo.GetByID(ctx, p.ReservationID)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrNotFound) {
				return nil
			}
			return err
		}
		// Cancelled is terminal: a late success never resurrects the paid flag.
		if res.IsDeleted || res.Status == models.ReservationCancelled {
			r.Logger.Warn("payment succeeded for cancelled reservation",
				zap.String("reservationId", res.ID), zap.String("paymentId", p.ID))
			return nil
		}
		if err := r.ReservationRepo.SetPaid(ctx, res.ID, true); err != nil {
			return err
		}
		if res.Status == models.ReservationPending {
			return r.ReservationRepo.UpdateStatus(ctx, res.ID, models.ReservationConfirmed)
		}
		return nil
	})
}

func (r *DefaultReconciler) handlePaymentFailed(ctx context.Context, ev WebhookEvent) error {
	p, err := r.resolvePayment(ctx, ev)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	// A payment that already succeeded or was refunded is not demoted by
	// a stale failure event.
	if p.Status == models.PaymentSucceeded || p.Status == models.PaymentRefunded {
		return nil
	}
	if p.Status == models.PaymentFailed {
		return nil
	}
	return r.PaymentRepo.MarkFailed(ctx, p.ID)
}

func (r *DefaultReconciler) handleRefunded(ctx context.Context, ev WebhookEvent) error {
	p, err := r.resolveRefundTarget(ctx, ev)
	if err != nil {
		return err
	}
	if p == nil {
		r.Logger.Info("refund event with no resolvable payment, ignored",
			zap.String("eventId", ev.ID), zap.String("refundId", ev.RefundID))
		return nil
	}
	if p.Status == models.PaymentRefunded {
		return nil
	}

	return r.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := r.now()
		if err := r.PaymentRepo.MarkRefunded(ctx, p.ID, now); err != nil {
			return err
		}
		if ev.RefundID != "" {
			if _, err := r.PaymentRepo.GetRefundByProviderID(ctx, ev.RefundID); errors.Is(err, paymentRepo.ErrRefundNotFound) {
				if err := r.PaymentRepo.CreateRefund(ctx, &models.Refund{
					ID:               uuid.New().String(),
					ProviderRefundID: ev.RefundID,
					Amount:           p.Amount,
					Status:           "succeeded",
					PaymentID:        p.ID,
					CreatedAt:        now,
				}); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
		}
		if p.ReservationID != "" {
			if err := r.ReservationRepo.SetPaid(ctx, p.ReservationID, false); err != nil &&
				!errors.Is(err, reservationRepo.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

// resolveRefundTarget finds the payment a refund event refers to: by the
// refund id first, then the payment-intent id, then the session id.
func (r *DefaultReconciler) resolveRefundTarget(ctx context.Context, ev WebhookEvent) (*models.Payment, error) {
	if ev.RefundID != "" {
		ref, err := r.PaymentRepo.GetRefundByProviderID(ctx, ev.RefundID)
		if err == nil {
			p, err := r.PaymentRepo.GetByID(ctx, ref.PaymentID)
			if err == nil {
				return p, nil
			}
			if !errors.Is(err, paymentRepo.ErrNotFound) {
				return nil, fmt.Errorf("resolve payment by refund: %w", err)
			}
		} else if !errors.Is(err, paymentRepo.ErrRefundNotFound) {
			return nil, fmt.Errorf("resolve refund: %w", err)
		}
	}
	return r.resolvePayment(ctx, ev)
}

// resolvePayment looks the payment up by intent id, falling back to the
// session id. A nil payment with nil error means "not resolvable".
func (r *DefaultReconciler) resolvePayment(ctx context.Context, ev WebhookEvent) (*models.Payment, error) {
	if ev.PaymentIntentID != "" {
		p, err := r.PaymentRepo.GetByIntentID(ctx, ev.PaymentIntentID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, paymentRepo.ErrNotFound) {
			return nil, fmt.Errorf("resolve payment by intent: %w", err)
		}
	}
	if ev.SessionID != "" {
		p, err := r.PaymentRepo.GetBySessionID(ctx, ev.SessionID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, paymentRepo.ErrNotFound) {
			return nil, fmt.Errorf("resolve payment by session: %w", err)
		}
	}
	r.Logger.Info("webhook event with no resolvable payment, ignored",
		zap.String("type", ev.Type), zap.String("eventId", ev.ID))
	return nil, nil
}

// alreadySeen reports whether the event id was processed before. Redis
// being unavailable fails open: the per-status checks keep replays
// harmless.
func (r *DefaultReconciler) alreadySeen(ctx context.Context, eventID string) bool {
	if r.Cache == nil || eventID == "" {
		return false
	}
	n, err := r.Cache.Exists(ctx, utils.WebhookEventPrefix+eventID).Result()
	if err != nil {
		r.Logger.Warn("webhook dedupe check failed", zap.Error(err))
		return false
	}
	return n > 0
}

func (r *DefaultReconciler) markSeen(ctx context.Context, eventID string) {
	if r.Cache == nil || eventID == "" {
		return
	}
	if err := r.Cache.Set(ctx, utils.WebhookEventPrefix+eventID, 1, utils.WebhookEventTTL).Err(); err != nil {
		r.Logger.Warn("webhook dedupe marking failed", zap.Error(err))
	}
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"driveline/config"
	carRepo "driveline/database/repository/car"
	paymentRepo "driveline/database/repository/payment"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/models"
	"driveline/services/booking"
	"driveline/utils"
)

// CheckoutService opens provider checkout sessions for reservations.
type CheckoutService interface {
	StartCheckout(ctx context.Context, actingUserID, reservationID string) (string, error)
}

// DefaultCheckoutService is the production CheckoutService. The redirect
// URL is cached per reservation so a retried request reuses the session
// instead of opening a second one.
type DefaultCheckoutService struct {
	ReservationRepo reservationRepo.ReservationRepository
	CarRepo         carRepo.CarRepository
	PaymentRepo     paymentRepo.PaymentRepository
	Gateway         Gateway
	Cache           *redis.Client
	Logger          *zap.Logger
	// Clock is overridable in tests; nil means time.Now.
	Clock func() time.Time
}

func (s *DefaultCheckoutService) nowUTC() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *DefaultCheckoutService) StartCheckout(ctx context.Context, actingUserID, reservationID string) (string, error) {
	if reservationID == "" {
		return "", booking.NewBadRequest("reservation id is required")
	}

	res, err := s.ReservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return "", booking.NewNotFound("reservation not found")
		}
		return "", fmt.Errorf("load reservation: %w", err)
	}
	if res.UserID != actingUserID {
		return "", booking.NewForbidden("reservation belongs to another user")
	}
	if res.IsDeleted || res.Status == models.ReservationCancelled {
		return "", booking.NewBadRequest("reservation is cancelled")
	}
	if res.IsPaid {
		return "", booking.NewBadRequest("reservation is already paid")
	}

	cacheKey := utils.CheckoutCachePrefix + res.ID
	if s.Cache != nil {
		if url, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil && url != "" {
			return url, nil
		}
	}

	car, err := s.CarRepo.GetByID(ctx, res.CarID)
	if err != nil {
		return "", fmt.Errorf("load car: %w", err)
	}

	sessionID, url, err := s.Gateway.CreateCheckoutSession(ctx, res, car)
	if err != nil {
		return "", err
	}

	payment := &models.Payment{
		ID:                uuid.New().String(),
		CheckoutSessionID: sessionID,
		Amount:            res.TotalCost,
		Currency:          config.AppConfig.Currency,
		Status:            models.PaymentPending,
		ReservationID:     res.ID,
		CreatedAt:         s.nowUTC(),
	}
	if err := s.PaymentRepo.Create(ctx, payment); err != nil {
		return "", fmt.Errorf("record payment: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cacheKey, url, utils.CheckoutCacheTTL).Err(); err != nil {
			s.Logger.Warn("checkout url caching failed",
				zap.String("reservationId", res.ID), zap.Error(err))
		}
	}
	return url, nil
}

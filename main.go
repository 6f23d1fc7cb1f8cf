// File: driveline/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driveline/config"
	"driveline/cron"
	"driveline/database"
	carRepo "driveline/database/repository/car"
	paymentRepo "driveline/database/repository/payment"
	reservationRepo "driveline/database/repository/reservation"
	"driveline/handlers"
	"driveline/routes"
	"driveline/services/booking"
	"driveline/services/notification"
	"driveline/services/payment"
	"driveline/services/tasks"
	"driveline/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitQueueCache()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	cars := carRepo.NewPgCarRepo(database.DB)
	reservations := reservationRepo.NewPgReservationRepo(database.DB)
	payments := paymentRepo.NewPgPaymentRepo(database.DB)
	txRunner := &database.SQLTxRunner{DB: database.DB}

	// notification channels, gated by config so deployments can switch
	// individual channels off.
	notifier := notification.NewRegistry()
	if config.AppConfig.NotifyEmailEnabled {
		notifier.Register("email", &notification.EmailSender{Logger: logger})
	}
	if config.AppConfig.NotifyPushEnabled {
		notifier.Register("push", &notification.PushSender{Logger: logger})
	}

	// services.
	gateway := payment.NewStripeGateway(logger)
	taskClient := tasks.NewClient()
	defer taskClient.Close()

	bookingService := &booking.DefaultBookingService{
		CarRepo:         cars,
		ReservationRepo: reservations,
		PaymentRepo:     payments,
		Gateway:         gateway,
		Tx:              txRunner,
		Notifier:        notifier,
		Scheduler:       taskClient,
		Logger:          logger,
	}

	checkoutService := &payment.DefaultCheckoutService{
		ReservationRepo: reservations,
		CarRepo:         cars,
		PaymentRepo:     payments,
		Gateway:         gateway,
		Cache:           utils.GetCacheClient(),
		Logger:          logger,
	}

	reconciler := &payment.DefaultReconciler{
		PaymentRepo:     payments,
		ReservationRepo: reservations,
		Tx:              txRunner,
		Cache:           utils.GetCacheClient(),
		Logger:          logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &routes.HandlerBundle{
		Booking: handlers.NewBookingHandler(bookingService, logger),
		Payment: handlers.NewPaymentHandler(checkoutService, reconciler, logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background worker: scheduled reminders plus the periodic sweeps.
	go cron.InitWorker(bookingService, notifier)

	utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient(), utils.GetQueueClient()}, database.DB)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

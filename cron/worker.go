package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"driveline/models"
	"driveline/services/notification"
	"driveline/services/tasks"
	"driveline/utils"
)

// Sweeper runs the periodic reservation maintenance passes.
type Sweeper interface {
	RunStatusSweep(ctx context.Context) error
	RunAvailabilitySweep(ctx context.Context) error
	RunReminderSweep(ctx context.Context) error
}

// sweepInterval is the cadence of the status, availability and reminder
// sweeps.
const sweepInterval = "@every 1m"

// InitWorker runs the asynq worker and the periodic scheduler in the
// background. Failed tasks are retried with asynq's exponential backoff
// up to their MaxRetry, then archived; the archive is the dead-letter
// queue for permanently failing items.
func InitWorker(sweeper Sweeper, notifier *notification.Registry) {
	redisOpts := tasks.RedisOpt()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(notifier))
	mux.HandleFunc(tasks.TypeStatusSweep, func(ctx context.Context, _ *asynq.Task) error {
		return sweeper.RunStatusSweep(ctx)
	})
	mux.HandleFunc(tasks.TypeAvailabilitySweep, func(ctx context.Context, _ *asynq.Task) error {
		return sweeper.RunAvailabilitySweep(ctx)
	})
	mux.HandleFunc(tasks.TypeReminderSweep, func(ctx context.Context, _ *asynq.Task) error {
		return sweeper.RunReminderSweep(ctx)
	})

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[Worker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()

	go runScheduler(redisOpts)
}

// runScheduler registers the periodic sweep tasks.
func runScheduler(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	entries := map[string]string{
		tasks.TypeStatusSweep:       sweepInterval,
		tasks.TypeAvailabilitySweep: sweepInterval,
		tasks.TypeReminderSweep:     sweepInterval,
	}
	for taskType, spec := range entries {
		if _, err := scheduler.Register(spec, asynq.NewTask(taskType, nil), asynq.MaxRetry(3)); err != nil {
			log.Fatalf("[Scheduler] Failed to register %s: %v", taskType, err)
		}
	}

	if err := scheduler.Run(); err != nil {
		log.Fatalf("[Scheduler] Failed to run: %v", err)
	}
}

func handleReminderTask(notifier *notification.Registry) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] Invalid payload: %v", err)
			return err
		}

		if p.RecipientTag == "" {
			log.Printf("[ReminderHandler] Reminder %s has no recipient, skipping", p.ReservationID)
			return nil
		}

		log.Printf("[ReminderHandler] Triggering reminder for reservation %s: %s", p.ReservationID, p.Subject)

		if err := notifier.Send(ctx, p.Subject, p.Body, p.RecipientTag); err != nil {
			log.Printf("[ReminderHandler] Failed to send notification: %v", err)
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := utils.GetQueueClient()
	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[Worker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}

package tasks

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"driveline/config"
	"driveline/models"
)

// Client enqueues reservation tasks on the shared Redis queue. It
// satisfies the booking service's ReminderScheduler.
type Client struct {
	inner *asynq.Client
}

func NewClient() *Client {
	return &Client{inner: asynq.NewClient(RedisOpt())}
}

// RedisOpt builds the asynq Redis connection options from app config.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

func (c *Client) ScheduleReminder(payload models.ReminderPayload, fireAt time.Time) error {
	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}
	if _, err := c.inner.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("enqueue reminder task: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.inner.Close()
}

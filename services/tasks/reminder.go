package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"driveline/models"
)

const (
	TypeSendReminder      = "reminder:send"
	TypeStatusSweep       = "sweep:status"
	TypeAvailabilitySweep = "sweep:availability"
	TypeReminderSweep     = "sweep:reminder"
)

// maxReminderRetries bounds how often a failing reminder is retried
// before asynq archives it to the dead-letter queue.
const maxReminderRetries = 5

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.MaxRetry(maxReminderRetries),
	}

	return task, opts, nil
}

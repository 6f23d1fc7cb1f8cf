package notification

import (
	"context"

	"go.uber.org/zap"
)

// Transport is external to this service: the senders here hand the
// message to the logger-backed stand-ins the deployment wires real
// transports behind.

// EmailSender delivers reminders over email.
type EmailSender struct {
	Logger *zap.Logger
}

func (s *EmailSender) Send(_ context.Context, subject, body, recipientTag string) error {
	s.Logger.Info("email notification dispatched",
		zap.String("recipient", recipientTag),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// PushSender delivers reminders as push notifications.
type PushSender struct {
	Logger *zap.Logger
}

func (s *PushSender) Send(_ context.Context, subject, body, recipientTag string) error {
	s.Logger.Info("push notification dispatched",
		zap.String("recipient", recipientTag),
		zap.String("title", subject),
		zap.String("body", body),
	)
	return nil
}

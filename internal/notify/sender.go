package notify

import (
	"context"

	"github.com/bk-med/kanban/internal/log"
)

// Sender delivers a single notification event.
type Sender interface {
	Send(ctx context.Context, event Event) error
	Name() string
}

// LogSender writes notifications to the log instead of delivering them.
// It is the default sender for development and tests.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Name() string {
	return "log"
}

func (s *LogSender) Send(ctx context.Context, event Event) error {
	log.Info(ctx, "notification",
		log.String("type", string(event.Type)),
		log.Int("task_id", event.TaskID),
		log.Int("recipient_id", event.RecipientID),
		log.String("recipient", event.RecipientEmail),
		log.String("subject", event.Subject()),
	)

	return nil
}

package notify

import (
	"context"
	"time"

	"github.com/zhenzou/executors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/pkg/xcontext"
)

// deliveryTimeout bounds a single send once it leaves the request path.
const deliveryTimeout = 30 * time.Second

type Config struct {
	Enabled bool `conf:"enabled" yaml:"enabled" json:"enabled"`

	// Sender selects the delivery channel: log or smtp.
	Sender string     `conf:"sender" yaml:"sender" json:"sender"`
	SMTP   SMTPConfig `conf:"smtp" yaml:"smtp" json:"smtp"`
}

type DispatcherParams struct {
	fx.In

	Config   Config
	Executor executors.ScheduledExecutor

	// Sender overrides the configured sender when set, used by tests.
	Sender Sender `optional:"true"`
}

// Dispatcher delivers notification events off the request path. Producers
// hand events over after their transaction commits, delivery failures are
// logged and never surfaced back.
type Dispatcher struct {
	config    Config
	sender    Sender
	executor  executors.ScheduledExecutor
	delivered metric.Int64Counter
}

func NewDispatcher(params DispatcherParams) *Dispatcher {
	sender := params.Sender
	if sender == nil {
		switch params.Config.Sender {
		case "smtp":
			sender = NewSMTPSender(params.Config.SMTP)
		default:
			sender = NewLogSender()
		}
	}

	delivered, err := otel.Meter("kanban/notify").Int64Counter(
		"notifications_total",
		metric.WithDescription("Notification events by type and delivery outcome"),
	)
	if err != nil {
		log.Warn(context.Background(), "failed to register notification counter", log.Cause(err))
	}

	return &Dispatcher{
		config:    params.Config,
		sender:    sender,
		executor:  params.Executor,
		delivered: delivered,
	}
}

func (d *Dispatcher) count(ctx context.Context, event Event, outcome string) {
	if d.delivered == nil {
		return
	}

	d.delivered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(event.Type)),
		attribute.String("outcome", outcome),
	))
}

// Dispatch schedules delivery of the events and returns immediately.
// Events without a recipient email are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	if !d.config.Enabled || len(events) == 0 {
		return
	}

	for _, event := range events {
		if event.RecipientEmail == "" {
			log.Debug(ctx, "notification skipped, recipient has no email",
				log.String("type", string(event.Type)),
				log.Int("task_id", event.TaskID),
				log.Int("recipient_id", event.RecipientID),
			)
			d.count(ctx, event, "skipped")

			continue
		}

		// The send outlives the request, so detach its cancellation while
		// keeping the trace context on the delivery logs.
		sendCtx, cancel := xcontext.DetachWithTimeout(ctx, deliveryTimeout)

		err := d.executor.ExecuteFunc(func(context.Context) {
			defer cancel()

			if err := d.sender.Send(sendCtx, event); err != nil {
				log.Error(sendCtx, "failed to send notification",
					log.String("sender", d.sender.Name()),
					log.String("type", string(event.Type)),
					log.Int("task_id", event.TaskID),
					log.Cause(err),
				)
				d.count(sendCtx, event, "failed")

				return
			}

			d.count(sendCtx, event, "sent")
		})
		if err != nil {
			cancel()
			log.Error(ctx, "failed to schedule notification",
				log.String("type", string(event.Type)),
				log.Int("task_id", event.TaskID),
				log.Cause(err),
			)
			d.count(ctx, event, "rejected")
		}
	}
}

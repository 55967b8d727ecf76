package notify

import (
	"context"
	"time"

	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/queue"
	"github.com/rs/zerolog"
)

// JobPublisher hands a notification job to the broker.
type JobPublisher interface {
	Publish(ctx context.Context, job queue.NotificationJob) error
}

// QueueNotifier defers delivery to the notification consumer. When the
// broker is unreachable it delivers directly through the fallback gateway.
type QueueNotifier struct {
	pub      JobPublisher
	fallback *Gateway
	log      zerolog.Logger
}

// NewQueueNotifier returns a notifier publishing through pub.
func NewQueueNotifier(pub JobPublisher, fallback *Gateway) *QueueNotifier {
	return &QueueNotifier{pub: pub, fallback: fallback, log: log.WithComponent("notify")}
}

func (q *QueueNotifier) Notify(ctx context.Context, n Notice) error {
	if len(compact(n.Emails)) == 0 && len(compact(n.Phones)) == 0 {
		return nil
	}
	job := queue.NewNotificationJob(n.AlertID, n.EventID, n.Subject, n.Body, n.Emails, n.Phones, time.Now())
	if err := q.pub.Publish(ctx, job); err != nil {
		q.log.Warn().Err(err).Uint64("alert_id", n.AlertID).Msg("queue unavailable, delivering directly")
		return q.fallback.Notify(ctx, n)
	}
	return nil
}

// DeliverJob is the consumer side: it delivers a dequeued job through g.
func (g *Gateway) DeliverJob(ctx context.Context, job queue.NotificationJob) error {
	return g.Notify(ctx, Notice{
		AlertID: job.AlertID,
		EventID: job.EventID,
		Subject: job.Subject,
		Body:    job.Body,
		Emails:  job.Emails,
		Phones:  job.Phones,
	})
}

// Package queue_publisher publishes notification jobs to RabbitMQ.
// Errors are logged and returned so callers can fall back to direct
// delivery without interrupting alert dispatch.
package queue_publisher

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/iliyamo/crowdsafe/internal/log"
    q "github.com/iliyamo/crowdsafe/internal/queue"
)

// Publisher opens a short-lived connection per job.  Alerts are rare
// compared to check-ins, so no connection is held between publishes.
type Publisher struct {
    url string
    log zerolog.Logger
}

// New returns a publisher for the broker at url.
func New(url string) *Publisher {
    return &Publisher{url: url, log: log.WithComponent("queue-publisher")}
}

// Publish sends job to the alerts.notify queue as a persistent message.
func (p *Publisher) Publish(ctx context.Context, job q.NotificationJob) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so jobs survive broker restarts.
    if _, err := ch.QueueDeclare(q.NotificationQueue, true, false, false, false, nil); err != nil {
        p.log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(job)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    job.JobID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.NotificationQueue, false, false, pub); err != nil {
        p.log.Warn().Err(err).Str("job_id", job.JobID).Msg("rabbitmq: publish failed")
        return err
    }
    return nil
}

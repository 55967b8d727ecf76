package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/crowdsafe/internal/log"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// DeliverFunc performs the actual email/SMS delivery for a job.
type DeliverFunc func(ctx context.Context, job NotificationJob) error

// Consumer drains the alerts.notify queue, delivers each job and appends
// one line per job to LogPath.
type Consumer struct {
    URL     string
    LogPath string
    Deliver DeliverFunc

    mu  sync.Mutex
    log zerolog.Logger
}

// NewConsumer returns a consumer writing to logs/notifications.log.
func NewConsumer(url string, deliver DeliverFunc) *Consumer {
    return &Consumer{
        URL:     url,
        LogPath: filepath.Join("logs", "notifications.log"),
        Deliver: deliver,
        log:     log.WithComponent("notify-consumer"),
    }
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff when the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn().Err(err).Msg("consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        c.log.Warn().Err(err).Msg("set QoS failed")
    }
    if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(NotificationQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(ctx, d.Body); err != nil {
                c.log.Error().Err(err).Msg("handle notification job failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes and delivers one job and records the outcome. Delivery
// failures are logged, not returned: the job is still acknowledged since
// every channel has already been attempted once.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var job NotificationJob
    if err := json.Unmarshal(body, &job); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    outcome := "delivered"
    if c.Deliver != nil {
        if err := c.Deliver(ctx, job); err != nil {
            outcome = "failed: " + strings.ReplaceAll(err.Error(), "\n", "; ")
        }
    }
    return c.record(job, outcome)
}

func (c *Consumer) record(job NotificationJob, outcome string) error {
    c.mu.Lock()
    defer c.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] Notification | job_id=%s | alert_id=%d | event_id=%d | subject=%q | emails=%d | phones=%d | outcome=%s\n",
        job.CreatedAt, job.JobID, job.AlertID, job.EventID, job.Subject, len(job.Emails), len(job.Phones), outcome)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

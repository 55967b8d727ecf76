package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crowdsafe/internal/queue"
)

type stubPublisher struct {
	err  error
	jobs []queue.NotificationJob
}

func (p *stubPublisher) Publish(_ context.Context, job queue.NotificationJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func TestQueueNotifierPublishesJob(t *testing.T) {
	pub, email := &stubPublisher{}, &stubEmail{}
	q := NewQueueNotifier(pub, NewGateway(email, &stubSMS{}))

	require.NoError(t, q.Notify(context.Background(), notice))
	require.Len(t, pub.jobs, 1)
	job := pub.jobs[0]
	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, uint64(1), job.AlertID)
	assert.Equal(t, notice.Emails, job.Emails)
	assert.Empty(t, email.sent, "delivery is left to the consumer")
}

func TestQueueNotifierFallsBackToDirect(t *testing.T) {
	pub, email, sms := &stubPublisher{err: errors.New("broker down")}, &stubEmail{}, &stubSMS{}
	q := NewQueueNotifier(pub, NewGateway(email, sms))

	require.NoError(t, q.Notify(context.Background(), notice))
	assert.Len(t, email.sent, 1)
	assert.Len(t, sms.sent, 2)
}

func TestQueueNotifierSkipsEmptyNotice(t *testing.T) {
	pub := &stubPublisher{}
	q := NewQueueNotifier(pub, NewGateway(nil, nil))
	require.NoError(t, q.Notify(context.Background(), Notice{Emails: []string{" "}}))
	assert.Empty(t, pub.jobs)
}

func TestDeliverJob(t *testing.T) {
	email, sms := &stubEmail{}, &stubSMS{}
	g := NewGateway(email, sms)
	job := queue.NewNotificationJob(1, 2, "s", "b", []string{"a@example.com"}, []string{"+1"}, time.Now())
	require.NoError(t, g.DeliverJob(context.Background(), job))
	assert.Equal(t, [][]string{{"a@example.com"}}, email.sent)
	assert.Equal(t, []string{"+1"}, sms.sent)
}

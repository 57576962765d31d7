package dispatch

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// memQueue is an in-memory QueueStore for driving the processor without
// a database.
type memQueue struct {
	jobs    map[string]*models.NotificationJob
	batches []models.BatchLog
	dueErr  error
}

func newMemQueue(jobs ...models.NotificationJob) *memQueue {
	q := &memQueue{jobs: make(map[string]*models.NotificationJob)}
	for i := range jobs {
		j := jobs[i]
		q.jobs[j.ID] = &j
	}
	return q
}

func (q *memQueue) DuePendingJobs(_ context.Context, now time.Time, limit int) ([]models.NotificationJob, error) {
	if q.dueErr != nil {
		return nil, q.dueErr
	}
	var due []models.NotificationJob
	for _, j := range q.jobs {
		if j.Status == models.JobPending && !j.ScheduledFor.After(now) {
			due = append(due, *j)
		}
	}
	sort.Slice(due, func(i, k int) bool {
		if due[i].Priority != due[k].Priority {
			return due[i].Priority < due[k].Priority
		}
		return due[i].CreatedAt.Before(due[k].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (q *memQueue) MarkJobSent(_ context.Context, id string, sentAt time.Time) error {
	j := q.jobs[id]
	j.Status = models.JobSent
	j.SentAt = &sentAt
	return nil
}

func (q *memQueue) RescheduleJob(_ context.Context, id string, retryCount int, nextAttempt time.Time, errMsg string) error {
	j := q.jobs[id]
	j.RetryCount = retryCount
	j.ScheduledFor = nextAttempt
	j.ErrorMessage = errMsg
	return nil
}

func (q *memQueue) MarkJobFailed(_ context.Context, id string, retryCount int, errMsg string) error {
	j := q.jobs[id]
	j.Status = models.JobFailed
	j.RetryCount = retryCount
	j.ErrorMessage = errMsg
	return nil
}

func (q *memQueue) CreateBatchLog(_ context.Context, log models.BatchLog) error {
	q.batches = append(q.batches, log)
	return nil
}

func (q *memQueue) FinishBatchLog(_ context.Context, log models.BatchLog) error {
	q.batches = append(q.batches, log)
	return nil
}

// fakeChannel records deliveries and fails the recipients it is told to.
type fakeChannel struct {
	kind    models.NotificationType
	sent    []models.NotificationJob
	failFor map[string]error
}

func (c *fakeChannel) Type() models.NotificationType { return c.kind }

func (c *fakeChannel) Send(_ context.Context, job models.NotificationJob) error {
	if err, ok := c.failFor[job.Recipient]; ok {
		return err
	}
	c.sent = append(c.sent, job)
	return nil
}

func dispatchLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New("", "error")
	require.NoError(t, err)
	return logger
}

func pendingJob(id string, kind models.NotificationType, recipient string) models.NotificationJob {
	return models.NotificationJob{
		ID:               id,
		AlertInstanceID:  "alert-1",
		UserID:           "user-1",
		NotificationType: kind,
		Recipient:        recipient,
		Message:          "Critical: Occupancy Floor triggered for Oak Ridge. Occupancy Rate: 80",
		Priority:         models.PriorityCritical,
		Status:           models.JobPending,
		MaxRetries:       3,
		ScheduledFor:     time.Now().Add(-time.Minute),
		CreatedAt:        time.Now().Add(-time.Minute),
	}
}

func TestProcessQueueSendsDueJobs(t *testing.T) {
	email := &fakeChannel{kind: models.ChannelEmail}
	queue := newMemQueue(pendingJob("job-1", models.ChannelEmail, "pm@oakridge.test"))
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100, email)

	batch, err := p.ProcessQueue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, batch.NotificationsSent)
	assert.Equal(t, 0, batch.NotificationsFailed)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "job-1", email.sent[0].ID)

	stored := queue.jobs["job-1"]
	assert.Equal(t, models.JobSent, stored.Status)
	require.NotNil(t, stored.SentAt)
}

func TestProcessQueueReschedulesWithBackoff(t *testing.T) {
	email := &fakeChannel{
		kind:    models.ChannelEmail,
		failFor: map[string]error{"pm@oakridge.test": errors.New("smtp refused")},
	}
	queue := newMemQueue(pendingJob("job-1", models.ChannelEmail, "pm@oakridge.test"))
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100, email)

	current := time.Now()
	p.now = func() time.Time { return current }

	batch, err := p.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.NotificationsFailed)

	stored := queue.jobs["job-1"]
	assert.Equal(t, models.JobPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, current.Add(2*time.Minute), stored.ScheduledFor)
	assert.Equal(t, "smtp refused", stored.ErrorMessage)
}

func TestProcessQueueFailsTerminallyAfterMaxRetries(t *testing.T) {
	email := &fakeChannel{
		kind:    models.ChannelEmail,
		failFor: map[string]error{"pm@oakridge.test": errors.New("smtp refused")},
	}
	queue := newMemQueue(pendingJob("job-1", models.ChannelEmail, "pm@oakridge.test"))
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100, email)

	current := time.Now()
	p.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		_, err := p.ProcessQueue(context.Background())
		require.NoError(t, err)
		current = current.Add(10 * time.Minute)
	}

	stored := queue.jobs["job-1"]
	assert.Equal(t, models.JobFailed, stored.Status)
	assert.Equal(t, 3, stored.RetryCount)

	// Terminal jobs never come back as due.
	batch, err := p.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, batch.NotificationsSent)
	assert.Equal(t, 0, batch.NotificationsFailed)
	assert.Equal(t, 3, stored.RetryCount)
}

func TestProcessQueueOneFailureDoesNotBlockOthers(t *testing.T) {
	email := &fakeChannel{
		kind:    models.ChannelEmail,
		failFor: map[string]error{"broken@oakridge.test": errors.New("smtp refused")},
	}
	sms := &fakeChannel{kind: models.ChannelSMS}
	failing := pendingJob("job-1", models.ChannelEmail, "broken@oakridge.test")
	healthy := pendingJob("job-2", models.ChannelSMS, "+15550100")
	healthy.CreatedAt = failing.CreatedAt.Add(time.Second)
	queue := newMemQueue(failing, healthy)
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100, email, sms)

	batch, err := p.ProcessQueue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, batch.NotificationsSent)
	assert.Equal(t, 1, batch.NotificationsFailed)
	assert.Equal(t, models.JobSent, queue.jobs["job-2"].Status)
	assert.Equal(t, models.JobPending, queue.jobs["job-1"].Status)
}

func TestProcessQueueSkipsFutureJobs(t *testing.T) {
	email := &fakeChannel{kind: models.ChannelEmail}
	future := pendingJob("job-1", models.ChannelEmail, "pm@oakridge.test")
	future.ScheduledFor = time.Now().Add(time.Hour)
	queue := newMemQueue(future)
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100, email)

	batch, err := p.ProcessQueue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, batch.NotificationsSent)
	assert.Empty(t, email.sent)
	assert.Equal(t, models.JobPending, queue.jobs["job-1"].Status)
}

func TestProcessQueueUnknownChannelRetries(t *testing.T) {
	email := &fakeChannel{kind: models.ChannelEmail}
	job := pendingJob("job-1", models.ChannelSMS, "+15550100")
	queue := newMemQueue(job)
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100, email)

	batch, err := p.ProcessQueue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, batch.NotificationsFailed)
	assert.Equal(t, 1, queue.jobs["job-1"].RetryCount)
}

func TestProcessQueueDueSelectionFailureFailsBatch(t *testing.T) {
	queue := newMemQueue()
	queue.dueErr = errors.New("connection reset")
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100)

	batch, err := p.ProcessQueue(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.BatchFailed, batch.Status)
	assert.Contains(t, batch.ErrorMessage, "connection reset")
}

func TestProcessQueueBatchLogLifecycle(t *testing.T) {
	email := &fakeChannel{kind: models.ChannelEmail}
	queue := newMemQueue(pendingJob("job-1", models.ChannelEmail, "pm@oakridge.test"))
	p := NewProcessor(queue, dispatchLogger(t), Backoff{Base: time.Minute, MaxRetries: 3}, 100, email)

	_, err := p.ProcessQueue(context.Background())
	require.NoError(t, err)

	require.Len(t, queue.batches, 2)
	opened, finished := queue.batches[0], queue.batches[1]
	assert.Equal(t, models.BatchRunning, opened.Status)
	assert.Equal(t, models.ProcessingDispatch, opened.ProcessingType)
	assert.Equal(t, models.BatchCompleted, finished.Status)
	assert.Equal(t, opened.BatchID, finished.BatchID)
	require.NotNil(t, finished.CompletedAt)
}

package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// QueueStore is the slice of the store the processor needs. *db.DB
// satisfies it.
type QueueStore interface {
	DuePendingJobs(ctx context.Context, now time.Time, limit int) ([]models.NotificationJob, error)
	MarkJobSent(ctx context.Context, id string, sentAt time.Time) error
	RescheduleJob(ctx context.Context, id string, retryCount int, nextAttempt time.Time, errMsg string) error
	MarkJobFailed(ctx context.Context, id string, retryCount int, errMsg string) error
	CreateBatchLog(ctx context.Context, log models.BatchLog) error
	FinishBatchLog(ctx context.Context, log models.BatchLog) error
}

// Processor drains the notification queue: due pending jobs in
// priority+age order, dispatched per channel, with exponential-backoff
// retries up to each job's max-retry cap. One job's failure never aborts
// the rest of the batch.
type Processor struct {
	store     QueueStore
	channels  map[models.NotificationType]Channel
	backoff   Backoff
	batchSize int
	logger    *logging.Logger
	now       func() time.Time
}

func NewProcessor(store QueueStore, logger *logging.Logger, backoff Backoff, batchSize int, channels ...Channel) *Processor {
	byType := make(map[models.NotificationType]Channel, len(channels))
	for _, ch := range channels {
		byType[ch.Type()] = ch
	}
	return &Processor{
		store:     store,
		channels:  byType,
		backoff:   backoff,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessQueue runs one dispatch batch and returns its batch log.
func (p *Processor) ProcessQueue(ctx context.Context) (models.BatchLog, error) {
	start := p.now()
	batch := models.BatchLog{
		BatchID:        uuid.New().String(),
		ProcessingType: models.ProcessingDispatch,
		Status:         models.BatchRunning,
		StartedAt:      start,
	}
	if err := p.store.CreateBatchLog(ctx, batch); err != nil {
		return batch, fmt.Errorf("failed to open batch log: %w", err)
	}

	jobs, err := p.store.DuePendingJobs(ctx, p.now(), p.batchSize)
	if err != nil {
		err = fmt.Errorf("failed to select due jobs: %w", err)
		p.finish(ctx, &batch, start, err)
		return batch, err
	}

	for _, job := range jobs {
		if derr := p.deliver(ctx, job); derr != nil {
			p.recordFailure(ctx, job, derr)
			batch.NotificationsFailed++
			continue
		}
		if merr := p.store.MarkJobSent(ctx, job.ID, p.now()); merr != nil {
			p.logger.Errorf("Job %s delivered but not marked sent: %v", job.ID, merr)
		}
		batch.NotificationsSent++
	}

	p.finish(ctx, &batch, start, nil)
	p.logger.Infof("Dispatch batch %s: %d sent, %d failed of %d due jobs",
		batch.BatchID, batch.NotificationsSent, batch.NotificationsFailed, len(jobs))
	return batch, nil
}

// deliver dispatches one job through its channel.
func (p *Processor) deliver(ctx context.Context, job models.NotificationJob) error {
	ch, ok := p.channels[job.NotificationType]
	if !ok {
		return fmt.Errorf("no channel registered for type %q", job.NotificationType)
	}
	return ch.Send(ctx, job)
}

// recordFailure applies the retry policy: increment the count, then
// either fail terminally or reschedule with exponential backoff.
func (p *Processor) recordFailure(ctx context.Context, job models.NotificationJob, cause error) {
	job.RetryCount++
	if p.exhausted(job) {
		if err := p.store.MarkJobFailed(ctx, job.ID, job.RetryCount, cause.Error()); err != nil {
			p.logger.Errorf("Failed to mark job %s failed: %v", job.ID, err)
			return
		}
		p.logger.Errorf("Job %s failed terminally after %d attempts: %v", job.ID, job.RetryCount, cause)
		return
	}

	next := p.now().Add(p.backoff.Delay(job.RetryCount))
	if err := p.store.RescheduleJob(ctx, job.ID, job.RetryCount, next, cause.Error()); err != nil {
		p.logger.Errorf("Failed to reschedule job %s: %v", job.ID, err)
		return
	}
	p.logger.Warnf("Job %s attempt %d failed, retrying at %s: %v", job.ID, job.RetryCount, next.Format(time.RFC3339), cause)
}

// exhausted applies the job's own cap when set, else the policy's.
func (p *Processor) exhausted(job models.NotificationJob) bool {
	if job.MaxRetries > 0 {
		return job.RetryCount >= job.MaxRetries
	}
	return p.backoff.Exhausted(job.RetryCount)
}

func (p *Processor) finish(ctx context.Context, batch *models.BatchLog, start time.Time, runErr error) {
	now := p.now()
	batch.ProcessingTimeMs = now.Sub(start).Milliseconds()
	batch.CompletedAt = &now
	if runErr != nil {
		batch.Status = models.BatchFailed
		batch.ErrorMessage = runErr.Error()
	} else {
		batch.Status = models.BatchCompleted
	}
	if err := p.store.FinishBatchLog(ctx, *batch); err != nil {
		p.logger.Errorf("Dispatch batch %s: failed to finish batch log: %v", batch.BatchID, err)
	}
}

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// Orchestrator runs one full KPI evaluation sweep: load active rules,
// group by user, evaluate the latest KPI per property+type, gate, write
// alerts, and log batch statistics. Users are processed concurrently
// under a bounded pool; each user's rule set and records are disjoint,
// and per-user work stays sequential so the dedup gate observes writes
// made earlier in the same run.
type Orchestrator struct {
	store      Store
	gate       *Gate
	writer     *Writer
	logger     *logging.Logger
	lookback   time.Duration
	maxWorkers int
}

func NewOrchestrator(store Store, logger *logging.Logger, lookback time.Duration, maxWorkers, maxRetries int) *Orchestrator {
	return &Orchestrator{
		store:      store,
		gate:       NewGate(store),
		writer:     NewWriter(store, logger, maxRetries),
		logger:     logger,
		lookback:   lookback,
		maxWorkers: maxWorkers,
	}
}

// RunKPICheck executes one batch. A failure inside a single user's
// processing is logged and isolated; only a store-level failure to load
// the rules marks the whole batch failed.
func (o *Orchestrator) RunKPICheck(ctx context.Context) (models.BatchLog, error) {
	start := time.Now()
	batch := models.BatchLog{
		BatchID:        uuid.New().String(),
		ProcessingType: models.ProcessingKPICheck,
		Status:         models.BatchRunning,
		StartedAt:      start,
	}
	if err := o.store.CreateBatchLog(ctx, batch); err != nil {
		return batch, fmt.Errorf("failed to open batch log: %w", err)
	}

	rules, err := o.store.ListActiveRules(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load active rules: %w", err)
		o.finish(ctx, &batch, start, err)
		return batch, err
	}

	if len(rules) == 0 {
		o.logger.Infof("Batch %s: no active rules, nothing to evaluate", batch.BatchID)
		o.finish(ctx, &batch, start, nil)
		return batch, nil
	}

	byUser := make(map[string][]models.AlertRule)
	for _, r := range rules {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}
	o.logger.Infof("Batch %s: evaluating %d rules across %d users", batch.BatchID, len(rules), len(byUser))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxWorkers)
	for userID, userRules := range byUser {
		userID, userRules := userID, userRules
		g.Go(func() error {
			processed, triggered, uerr := o.processUser(gctx, batch.BatchID, userID, userRules)
			if uerr != nil {
				// Per-user failures must not abort the batch.
				o.logger.Errorf("Batch %s: processing user %s failed: %v", batch.BatchID, userID, uerr)
			}
			mu.Lock()
			batch.PropertiesProcessed += processed
			batch.AlertsTriggered += triggered
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	o.finish(ctx, &batch, start, nil)
	o.logger.Infof("Batch %s: completed, %d groups processed, %d alerts triggered in %dms",
		batch.BatchID, batch.PropertiesProcessed, batch.AlertsTriggered, batch.ProcessingTimeMs)
	return batch, nil
}

// finish closes the batch log in its terminal state.
func (o *Orchestrator) finish(ctx context.Context, batch *models.BatchLog, start time.Time, runErr error) {
	now := time.Now()
	batch.ProcessingTimeMs = now.Sub(start).Milliseconds()
	batch.CompletedAt = &now
	if runErr != nil {
		batch.Status = models.BatchFailed
		batch.ErrorMessage = runErr.Error()
	} else {
		batch.Status = models.BatchCompleted
	}
	if err := o.store.FinishBatchLog(ctx, *batch); err != nil {
		o.logger.Errorf("Batch %s: failed to finish batch log: %v", batch.BatchID, err)
	}
}

// groupKey identifies one property+type stream of KPI records.
type groupKey struct {
	propertyName string
	kpiType      string
}

// latestByGroup keeps the most recent record per property+type. Records
// arrive ordered newest first from the store; the first record seen for
// a group wins.
func latestByGroup(records []models.KPIRecord) map[groupKey]models.KPIRecord {
	latest := make(map[groupKey]models.KPIRecord)
	for _, rec := range records {
		key := groupKey{propertyName: rec.PropertyName, kpiType: rec.KPIType}
		if _, seen := latest[key]; !seen {
			latest[key] = rec
		}
	}
	return latest
}

// processUser evaluates one user's rules against their latest KPI groups
// within the lookback window. Returns the number of distinct groups
// evaluated and the number of alerts created.
func (o *Orchestrator) processUser(ctx context.Context, batchID, userID string, rules []models.AlertRule) (processed, triggered int, err error) {
	records, err := o.store.ListRecentKPIs(ctx, userID, time.Now().Add(-o.lookback))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load kpi records: %w", err)
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	prefs, err := o.store.GetNotificationPreferences(ctx, userID)
	if err != nil {
		// Missing preferences only gate email/SMS off; keep evaluating.
		o.logger.Warnf("Batch %s: preferences unavailable for user %s: %v", batchID, userID, err)
		prefs = models.UserNotificationPreferences{UserID: userID}
		err = nil
	}

	latest := latestByGroup(records)
	counted := make(map[groupKey]bool)

	for _, rule := range rules {
		for key, rec := range latest {
			if key.kpiType != rule.KPIType {
				continue
			}
			if !rule.AppliesTo(rec.PropertyName) {
				continue
			}
			if rec.Value == nil {
				// Transient record, never evaluated.
				continue
			}

			if !counted[key] {
				counted[key] = true
				processed++
			}

			level := EvaluateThresholds(*rec.Value, rule.Thresholds)
			if level == models.LevelGreen {
				continue
			}

			ok, gerr := o.gate.ShouldAlert(ctx, rule, rec.PropertyName, level)
			if gerr != nil {
				o.logger.Errorf("Batch %s: dedup check failed for rule %s on %s: %v", batchID, rule.ID, rec.PropertyName, gerr)
				continue
			}
			if !ok {
				o.logger.Debugf("Batch %s: suppressed %s alert for rule %s on %s", batchID, level, rule.ID, rec.PropertyName)
				continue
			}

			if _, werr := o.writer.Write(ctx, rule, rec, level, batchID, prefs); werr != nil {
				o.logger.Errorf("Batch %s: %v", batchID, werr)
				continue
			}
			triggered++
		}
	}

	return processed, triggered, nil
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hyperlane-registration/internal/metrics"
	"hyperlane-registration/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Worker runs one account to a terminal result
type Worker interface {
	Run(ctx context.Context) models.Result
}

// WorkerFactory builds the worker of one account
type WorkerFactory func(account *models.Account) (Worker, error)

// OutcomeNotifier receives every per-account result
type OutcomeNotifier interface {
	Notify(ctx context.Context, result models.Result) error
}

// Orchestrator fans accounts out to workers under an admission gate
type Orchestrator struct {
	gate      *semaphore.Weighted
	newWorker WorkerFactory
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	notifiers []OutcomeNotifier
}

// NewOrchestrator creates an orchestrator. gate bounds concurrent workflows and
// belongs to the caller; it is normally built once per run.
func NewOrchestrator(gate *semaphore.Weighted, newWorker WorkerFactory, logger *logrus.Logger, m *metrics.Metrics, notifiers ...OutcomeNotifier) *Orchestrator {
	return &Orchestrator{
		gate:      gate,
		newWorker: newWorker,
		logger:    logger,
		metrics:   m,
		notifiers: notifiers,
	}
}

// Run processes every source and returns once all of them reached a terminal state.
// Slots are acquired in input order, so admission follows enumeration order.
func (o *Orchestrator) Run(ctx context.Context, sources []models.AccountSource) {
	o.metrics.SetAccounts(len(sources))

	var wg sync.WaitGroup
	for idx, src := range sources {
		seq := idx + 1
		if err := o.gate.Acquire(ctx, 1); err != nil {
			o.logger.WithFields(logrus.Fields{
				"seq":   seq,
				"error": err.Error(),
			}).Error("account not admitted")
			o.finish(ctx, models.Result{SequenceID: seq, Outcome: models.OutcomeWorkerError, Err: err}, 0)
			continue
		}

		wg.Add(1)
		go func(seq int, src models.AccountSource) {
			defer wg.Done()
			defer o.gate.Release(1)
			o.runTask(ctx, seq, src)
		}(seq, src)
	}
	wg.Wait()
}

// runTask is the per-account isolation boundary: nothing escapes it
func (o *Orchestrator) runTask(ctx context.Context, seq int, src models.AccountSource) {
	start := time.Now()
	entry := o.logger.WithField("seq", seq)

	o.metrics.WorkerStarted()
	defer o.metrics.WorkerFinished()

	// finished: the outcome went out, a later panic must not report it again
	finished := false
	report := func(result models.Result) {
		finished = true
		o.finish(ctx, result, time.Since(start))
	}

	defer func() {
		if r := recover(); r != nil {
			if finished {
				entry.WithField("error", fmt.Sprint(r)).Error("outcome notification panicked")
				return
			}
			err := fmt.Errorf("worker panic: %v", r)
			entry.WithField("error", err.Error()).Error("account failed")
			o.finish(ctx, models.Result{SequenceID: seq, Outcome: models.OutcomeWorkerError, Err: err}, time.Since(start))
		}
	}()

	account, err := models.NewAccount(src, seq)
	if err != nil {
		entry.WithField("error", err.Error()).Error("account failed")
		report(models.Result{SequenceID: seq, Outcome: models.OutcomeWorkerError, Err: err})
		return
	}
	entry = entry.WithField("address", account.Address().Hex())

	worker, err := o.newWorker(account)
	if err != nil {
		entry.WithField("error", err.Error()).Error("account failed")
		report(models.Result{
			SequenceID: seq,
			Address:    account.Address().Hex(),
			Outcome:    models.OutcomeWorkerError,
			Err:        err,
		})
		return
	}

	result := worker.Run(ctx)
	if result.Outcome == models.OutcomeWorkerError {
		fields := logrus.Fields{"attempts": result.Attempts}
		if result.Err != nil {
			fields["error"] = result.Err.Error()
		}
		entry.WithFields(fields).Error("account failed")
	}
	report(result)
}

func (o *Orchestrator) finish(ctx context.Context, result models.Result, elapsed time.Duration) {
	o.metrics.ObserveOutcome(result, elapsed)
	for _, n := range o.notifiers {
		if err := n.Notify(ctx, result); err != nil {
			o.logger.WithFields(logrus.Fields{
				"seq":   result.SequenceID,
				"error": err.Error(),
			}).Warn("outcome notification failed")
		}
	}
}

package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"hyperlane-registration/internal/clients"
	"hyperlane-registration/internal/config"
	"hyperlane-registration/internal/events"
	"hyperlane-registration/internal/metrics"
	"hyperlane-registration/internal/models"
	"hyperlane-registration/internal/retry"
	"hyperlane-registration/internal/router"
	"hyperlane-registration/internal/services"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// App holds everything one registration run needs
type App struct {
	cfg      *config.Config
	logger   *logrus.Logger
	runID    string
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	status    *router.StatusServer
	publisher *events.OutcomePublisher

	// overridable in tests
	newClient func(account *models.Account) (services.ClaimAPI, error)

	total int64
	done  int64
}

// New wires the run from configuration. The status server and NATS publisher are
// started only when configured.
func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	a := &App{
		cfg:      cfg,
		logger:   logger,
		runID:    uuid.NewString(),
		registry: registry,
		metrics:  metrics.New(registry),
	}
	a.newClient = a.claimClient

	if cfg.Metrics.Addr != "" {
		status, err := router.Start(cfg.Metrics.Addr, router.SetupRouter(a, registry), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start status server: %w", err)
		}
		a.status = status
	}

	if cfg.NATS.URL != "" {
		publisher, err := events.NewOutcomePublisher(cfg.NATS, a.runID, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = publisher
	}

	return a, nil
}

func (a *App) RunID() string { return a.runID }

func (a *App) Progress() (done, total int) {
	return int(atomic.LoadInt64(&a.done)), int(atomic.LoadInt64(&a.total))
}

// Notify counts finished accounts for /health
func (a *App) Notify(_ context.Context, _ models.Result) error {
	atomic.AddInt64(&a.done, 1)
	return nil
}

func (a *App) claimClient(account *models.Account) (services.ClaimAPI, error) {
	client, err := clients.NewClaimClient(clients.ClaimClientOptions{
		BaseURL: a.cfg.Claim.BaseURL,
		Proxy:   account.Proxy(),
		Timeout: a.cfg.Claim.RequestTimeout(),
	}, a.logger, a.metrics)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Run processes every source and returns the results ordered by sequence id
func (a *App) Run(ctx context.Context, sources []models.AccountSource) []models.Result {
	atomic.StoreInt64(&a.total, int64(len(sources)))
	atomic.StoreInt64(&a.done, 0)

	a.logger.WithFields(logrus.Fields{
		"run_id":      a.runID,
		"concurrency": a.cfg.Run.Concurrency,
	}).Infof("Total wallets: %d", len(sources))

	policy := retry.Policy{
		MaxAttempts: a.cfg.Run.RetryAttempts,
		Delay:       a.cfg.Run.Delay(),
	}
	factory := services.NewWorkerFactory(a.newClient, policy, a.logger, a.metrics)

	collector := newCollector(len(sources))
	notifiers := []services.OutcomeNotifier{collector, a}
	if a.publisher != nil {
		notifiers = append(notifiers, a.publisher)
	}

	start := time.Now()
	gate := semaphore.NewWeighted(int64(a.cfg.Run.Concurrency))
	services.NewOrchestrator(gate, factory, a.logger, a.metrics, notifiers...).Run(ctx, sources)

	results := collector.ordered()
	a.logger.WithFields(summaryFields(results)).
		WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Info("The work completed")
	return results
}

// Close stops the status server and flushes pending outcome events
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.WithError(err).Warn("failed to close outcome publisher")
		}
	}
	if a.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.status.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Warn("failed to stop status server")
		}
	}
}

func summaryFields(results []models.Result) logrus.Fields {
	fields := logrus.Fields{}
	for _, r := range results {
		key := r.Outcome.String()
		if r.Exhausted() {
			key = "exhausted"
		}
		n, _ := fields[key].(int)
		fields[key] = n + 1
	}
	return fields
}

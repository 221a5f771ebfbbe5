package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hyperlane-registration/internal/config"
	"hyperlane-registration/internal/dto"
	"hyperlane-registration/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// conn is the part of *nats.Conn the publisher needs
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
	Close()
}

// OutcomePublisher publishes one OutcomeEvent per processed account
type OutcomePublisher struct {
	conn    conn
	subject string
	runID   string
	logger  *logrus.Logger
	now     func() time.Time
}

// NewOutcomePublisher connects to NATS and returns a publisher for the run
func NewOutcomePublisher(cfg config.NATSConfig, runID string, logger *logrus.Logger) (*OutcomePublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("hyperlane-register"),
		nats.Timeout(cfg.ConnectTimeout()),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"url":     nc.ConnectedUrl(),
		"subject": cfg.Subject,
	}).Info("outcome events enabled")
	return newOutcomePublisher(nc, cfg.Subject, runID, logger), nil
}

func newOutcomePublisher(c conn, subject, runID string, logger *logrus.Logger) *OutcomePublisher {
	return &OutcomePublisher{
		conn:    c,
		subject: subject,
		runID:   runID,
		logger:  logger,
		now:     time.Now,
	}
}

// NewOutcomeEvent converts a worker result to its wire form
func NewOutcomeEvent(runID string, result models.Result, at time.Time) dto.OutcomeEvent {
	event := dto.OutcomeEvent{
		RunID:      runID,
		SequenceID: result.SequenceID,
		Address:    result.Address,
		Outcome:    result.Outcome.String(),
		Amount:     result.Amount,
		Attempts:   result.Attempts,
		Exhausted:  result.Exhausted(),
		Timestamp:  at.UTC(),
	}
	if result.Err != nil {
		event.Error = result.Err.Error()
	}
	return event
}

// Notify publishes the result. Publishing is buffered by the NATS client,
// so ctx is not consulted.
func (p *OutcomePublisher) Notify(_ context.Context, result models.Result) error {
	data, err := json.Marshal(NewOutcomeEvent(p.runID, result, p.now()))
	if err != nil {
		return fmt.Errorf("failed to encode outcome event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish outcome event: %w", err)
	}
	return nil
}

// Close flushes pending events and closes the connection
func (p *OutcomePublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

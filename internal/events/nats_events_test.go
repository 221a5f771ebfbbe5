package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"hyperlane-registration/internal/dto"
	"hyperlane-registration/internal/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects   []string
	payloads   [][]byte
	publishErr error
	drainErr   error
	drained    bool
	closed     bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return f.drainErr
}

func (f *fakeConn) Close() { f.closed = true }

func TestNewOutcomeEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	result := models.Result{
		SequenceID: 4,
		Address:    "0xabc",
		Outcome:    models.OutcomeWorkerError,
		Attempts:   3,
		Err:        fmt.Errorf("%w: %w", models.ErrWorkerExhausted, errors.New("timeout")),
	}

	event := NewOutcomeEvent("run-1", result, at)
	assert.Equal(t, dto.OutcomeEvent{
		RunID:      "run-1",
		SequenceID: 4,
		Address:    "0xabc",
		Outcome:    "worker_error",
		Attempts:   3,
		Exhausted:  true,
		Error:      "worker exhausted retry budget: timeout",
		Timestamp:  at.UTC(),
	}, event)
}

func TestNotifyPublishesJSON(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := &fakeConn{}
	p := newOutcomePublisher(c, "outcomes", "run-1", logger)
	p.now = func() time.Time { return time.Unix(0, 0) }

	err := p.Notify(context.Background(), models.Result{
		SequenceID: 1,
		Address:    "0xabc",
		Outcome:    models.OutcomeRegisteredSuccess,
		Amount:     "12.5",
		Attempts:   1,
	})
	require.NoError(t, err)
	require.Len(t, c.payloads, 1)
	assert.Equal(t, "outcomes", c.subjects[0])

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(c.payloads[0], &got))
	assert.Equal(t, "registered_success", got["outcome"])
	assert.Equal(t, "12.5", got["amount"])
	assert.Equal(t, "run-1", got["run_id"])
	assert.NotContains(t, got, "error")
	assert.NotContains(t, got, "exhausted")
}

func TestNotifyPublishError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := newOutcomePublisher(&fakeConn{publishErr: errors.New("closed")}, "outcomes", "run-1", logger)

	err := p.Notify(context.Background(), models.Result{SequenceID: 1, Outcome: models.OutcomeNotEligible})
	assert.ErrorContains(t, err, "closed")
}

func TestCloseDrains(t *testing.T) {
	logger, _ := test.NewNullLogger()

	c := &fakeConn{}
	require.NoError(t, newOutcomePublisher(c, "s", "r", logger).Close())
	assert.True(t, c.drained)
	assert.False(t, c.closed)

	c = &fakeConn{drainErr: errors.New("nope")}
	assert.Error(t, newOutcomePublisher(c, "s", "r", logger).Close())
	assert.True(t, c.closed)
}

package dto

import "time"

// OutcomeEvent published once per processed account
type OutcomeEvent struct {
	RunID      string    `json:"run_id"`
	SequenceID int       `json:"sequence_id"`
	Address    string    `json:"address,omitempty"`
	Outcome    string    `json:"outcome"`
	Amount     string    `json:"amount,omitempty"`
	Attempts   int       `json:"attempts"`
	Exhausted  bool      `json:"exhausted,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

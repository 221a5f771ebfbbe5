package app

import (
	"context"
	"sort"
	"sync"

	"hyperlane-registration/internal/models"
)

// collector keeps every result of a run
type collector struct {
	mu      sync.Mutex
	results []models.Result
}

func newCollector(n int) *collector {
	return &collector{results: make([]models.Result, 0, n)}
}

func (c *collector) Notify(_ context.Context, result models.Result) error {
	c.mu.Lock()
	c.results = append(c.results, result)
	c.mu.Unlock()
	return nil
}

func (c *collector) ordered() []models.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]models.Result(nil), c.results...)
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	return out
}

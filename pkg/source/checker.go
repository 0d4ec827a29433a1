// Package source holds what is shared by every hymn source: the periodic
// health checker.
package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/himnario/pkg/hymn"
)

// Status is the outcome of the most recent check.
type Status struct {
	CheckedAt time.Time `json:"checked_at"`
	OK        bool      `json:"ok"`
	Entries   int       `json:"entries"`
	Error     string    `json:"error,omitempty"`
	Duration  string    `json:"duration"`
}

// Checker loads the index of a repository every interval and keeps the
// last result.
type Checker struct {
	name     string
	repo     hymn.Repository
	logger   *slog.Logger
	interval time.Duration

	mu   sync.RWMutex
	last *Status
}

// NewChecker creates a Checker for repo. name identifies the source in logs.
func NewChecker(name string, repo hymn.Repository, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{
		name:     name,
		repo:     repo,
		logger:   logger,
		interval: interval,
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check loads the index once and records the result.
func (c *Checker) Check(ctx context.Context) Status {
	start := time.Now()
	index, err := c.repo.GetIndex(ctx)
	st := Status{
		CheckedAt: start.UTC(),
		OK:        err == nil,
		Entries:   len(index),
		Duration:  time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		st.Error = err.Error()
		if ctx.Err() == nil {
			c.logger.Warn("source unavailable", "source", c.name, "error", err)
		}
	} else {
		c.logger.Info("source check complete", "source", c.name, "entries", st.Entries, "duration", st.Duration)
	}

	c.mu.Lock()
	c.last = &st
	c.mu.Unlock()
	return st
}

// Last returns the most recent status, or nil before the first check.
func (c *Checker) Last() *Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return nil
	}
	st := *c.last
	return &st
}

// Name returns the source name given to NewChecker.
func (c *Checker) Name() string { return c.name }

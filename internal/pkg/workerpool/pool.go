// Package workerpool provides a bounded goroutine pool on top of ants.
package workerpool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Config configures the pool size and how long idle workers are kept
type Config struct {
	Size           int           `mapstructure:"size"`
	ExpiryDuration time.Duration `mapstructure:"expiry_duration"`
	// Nonblocking makes Submit fail with ants.ErrPoolOverload instead of waiting for a free worker
	Nonblocking bool `mapstructure:"nonblocking"`
}

// DefaultConfig returns a pool of 16 workers
func DefaultConfig() *Config {
	return &Config{
		Size:           16,
		ExpiryDuration: 10 * time.Second,
	}
}

// Statistics is a snapshot of task counters
type Statistics struct {
	Submitted int64
	Completed int64
	Panicked  int64
}

// Pool is a bounded worker pool. Submit blocks while every worker is busy.
type Pool struct {
	pool   *ants.Pool
	logger *zap.Logger

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

// New creates a pool. A nil config uses DefaultConfig.
func New(cfg *Config, logger *zap.Logger) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("workerpool: size must be positive, got %d", cfg.Size)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{logger: logger}

	antsPool, err := ants.NewPool(cfg.Size,
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithPanicHandler(func(v interface{}) {
			p.panicked.Add(1)
			p.logger.Error("worker panic recovered", zap.Any("panic", v), zap.Stack("stacktrace"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("workerpool: create ants pool: %w", err)
	}
	p.pool = antsPool

	return p, nil
}

// Submit schedules task on the pool
func (p *Pool) Submit(task func()) error {
	if p.pool.IsClosed() {
		return ErrPoolClosed
	}
	p.submitted.Add(1)
	err := p.pool.Submit(func() {
		defer p.completed.Add(1)
		task()
	})
	if err != nil {
		p.submitted.Add(-1)
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// NewGroup returns a Group whose tasks run on this pool
func (p *Pool) NewGroup() *Group {
	return &Group{pool: p}
}

// Cap returns the maximum number of concurrent workers
func (p *Pool) Cap() int { return p.pool.Cap() }

// Running returns the number of busy workers
func (p *Pool) Running() int { return p.pool.Running() }

// Stats returns task counters
func (p *Pool) Stats() Statistics {
	return Statistics{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

// Release stops accepting tasks and waits up to timeout for running ones
func (p *Pool) Release(timeout time.Duration) error {
	if timeout <= 0 {
		p.pool.Release()
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}

// Group tracks a batch of tasks submitted to a shared pool
type Group struct {
	pool *Pool
	wg   sync.WaitGroup
}

// Go submits task as part of the group. A task that cannot be scheduled is not counted.
func (g *Group) Go(task func()) error {
	g.wg.Add(1)
	err := g.pool.Submit(func() {
		defer g.wg.Done()
		task()
	})
	if err != nil {
		g.wg.Done()
	}
	return err
}

// Wait blocks until every scheduled task in the group has finished
func (g *Group) Wait() {
	g.wg.Wait()
}

// Package media handles background cleanup of stored media assets.
package media

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// AssetDeleter removes a stored object by key.
type AssetDeleter interface {
	Delete(ctx context.Context, key string) error
}

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
}

// Janitor deletes replaced or orphaned media assets in the background.
// Deletion is best effort; failures are logged and the object is left
// for a later sweep rather than retried.
type Janitor struct {
	deleter AssetDeleter
	logger  *slog.Logger

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

var errJanitorClosed = errors.New("asset janitor closed")

// NewJanitor constructs a background worker pool that deletes assets.
func NewJanitor(deleter AssetDeleter, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &Janitor{
		deleter: deleter,
		logger:  logger,
		jobs:    make(chan string, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules deletion of the object stored under key. Empty keys
// are ignored so callers can pass assets that were never uploaded.
func (j *Janitor) Enqueue(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// The send happens under the mutex so it cannot race the close in
	// Shutdown; a caller that loses that race gets errJanitorClosed.
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return errJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.jobs <- key:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		j.mu.Unlock()
		j.cancel()
		close(j.jobs)
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case key, ok := <-j.jobs:
			if !ok {
				return
			}
			j.handleJob(key)
		}
	}
}

func (j *Janitor) handleJob(key string) {
	if j.deleter == nil {
		j.logger.Error("asset janitor missing deleter", "key", key)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.deleter.Delete(ctx, key); err != nil {
		j.logger.Error("asset deletion failed", "key", key, "error", err)
		return
	}

	j.logger.Debug("asset deleted", "key", key)
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type deleterStub struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *deleterStub) Delete(ctx context.Context, key string) error {
	_ = ctx
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, key)
	return nil
}

func (d *deleterStub) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.deleted)
}

func TestJanitorDeletesEnqueuedKeys(t *testing.T) {
	deleter := &deleterStub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 4, Workers: 2}, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = janitor.Shutdown(ctx)
	}()

	for i := 0; i < 3; i++ {
		if err := janitor.Enqueue(context.Background(), fmt.Sprintf("avatars/user-%d.png", i)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	waitForCondition(t, func() bool { return deleter.count() == 3 }, time.Second)
}

func TestJanitorIgnoresEmptyKeys(t *testing.T) {
	deleter := &deleterStub{}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 1, Workers: 1}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = janitor.Shutdown(ctx)
	}()

	if err := janitor.Enqueue(context.Background(), "  "); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if deleter.count() != 0 {
		t.Fatalf("expected no deletions for empty key, got %d", deleter.count())
	}
}

func TestJanitorRejectsAfterShutdown(t *testing.T) {
	deleter := &deleterStub{}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 1, Workers: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := janitor.Enqueue(context.Background(), "thumbnails/gone.png"); !errors.Is(err, errJanitorClosed) {
		t.Fatalf("expected closed janitor error, got %v", err)
	}
}

func TestJanitorEnqueueConcurrentWithShutdown(t *testing.T) {
	deleter := &deleterStub{}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 2, Workers: 1}, nil)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := janitor.Enqueue(context.Background(), fmt.Sprintf("covers/user-%d.png", i))
			if err != nil && !errors.Is(err, errJanitorClosed) {
				t.Errorf("enqueue: %v", err)
			}
		}(i)
	}

	close(start)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	wg.Wait()

	if err := janitor.Enqueue(context.Background(), "covers/late.png"); !errors.Is(err, errJanitorClosed) {
		t.Fatalf("expected closed janitor error, got %v", err)
	}
}

func waitForCondition(t *testing.T, predicate func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

package syncx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type blockingPublisher struct {
	release chan struct{}

	mu          sync.Mutex
	got         []Event
	errs        []error
	hasDeadline []bool
}

func (b *blockingPublisher) Publish(ctx context.Context, e Event) error {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := ctx.Deadline()
	b.got = append(b.got, e)
	b.errs = append(b.errs, ctx.Err())
	b.hasDeadline = append(b.hasDeadline, ok)
	return nil
}

func (b *blockingPublisher) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.got))
	for i, e := range b.got {
		out[i] = e.Key
	}
	return out
}

func TestAsyncPublishDoesNotWait(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{})}
	a := NewAsync(nil, next, 4, time.Second)

	start := time.Now()
	if err := a.Publish(context.Background(), Event{Key: "a1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if d := time.Since(start); d > 200*time.Millisecond {
		t.Fatalf("publish blocked for %v", d)
	}

	close(next.release)
	_ = a.Close()
	if keys := next.keys(); len(keys) != 1 || keys[0] != "a1" {
		t.Fatalf("forwarded: %v", keys)
	}
	if !next.hasDeadline[0] {
		t.Fatal("forward should carry its own deadline")
	}
}

func TestAsyncCallerCancelDoesNotAbortForward(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{})}
	a := NewAsync(nil, next, 4, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Publish(ctx, Event{Key: "a1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	cancel()
	close(next.release)
	_ = a.Close()
	if keys := next.keys(); len(keys) != 1 {
		t.Fatalf("forwarded: %v", keys)
	}
	if err := next.errs[0]; err != nil {
		t.Fatalf("forward saw caller cancel: %v", err)
	}
}

func TestAsyncDropsWhenFull(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{})}
	a := NewAsync(nil, next, 1, time.Second)
	ctx := context.Background()

	// the loop takes a1 and blocks on it; a2 fills the queue
	_ = a.Publish(ctx, Event{Key: "a1"})
	deadline := time.Now().Add(time.Second)
	for len(a.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := a.Publish(ctx, Event{Key: "a2"}); err != nil {
		t.Fatalf("publish a2: %v", err)
	}
	if err := a.Publish(ctx, Event{Key: "a3"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	close(next.release)
	_ = a.Close()
	if keys := next.keys(); len(keys) != 2 || keys[0] != "a1" || keys[1] != "a2" {
		t.Fatalf("forwarded: %v", keys)
	}
	if err := a.Publish(ctx, Event{Key: "a4"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

package syncx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/platform/logger"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("event forwarder closed")
)

// Async hands events to a single goroutine that forwards them to next, so
// Publish never waits on the network. Each forward gets its own timeout and
// is detached from the caller's context.
type Async struct {
	next    Publisher
	log     *logger.Logger
	timeout time.Duration

	queue chan Event
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewAsync(log *logger.Logger, next Publisher, size int, timeout time.Duration) *Async {
	if log == nil {
		log = logger.NewNop()
	}
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	a := &Async{
		next:    next,
		log:     log.With("service", "AsyncPublisher"),
		timeout: timeout,
		queue:   make(chan Event, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

// Publish enqueues e. It drops the event with ErrQueueFull instead of blocking.
func (a *Async) Publish(_ context.Context, e Event) error {
	select {
	case <-a.stop:
		return ErrClosed
	default:
	}
	select {
	case a.queue <- e:
		return nil
	default:
		a.log.Warn("event dropped", "type", e.Type, "key", e.Key)
		return ErrQueueFull
	}
}

func (a *Async) loop() {
	defer close(a.done)
	for {
		select {
		case e := <-a.queue:
			a.forward(e)
		case <-a.stop:
			// flush what was queued before Close
			for {
				select {
				case e := <-a.queue:
					a.forward(e)
				default:
					return
				}
			}
		}
	}
}

func (a *Async) forward(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.next.Publish(ctx, e); err != nil {
		a.log.Warn("event not forwarded", "type", e.Type, "key", e.Key, "error", err)
	}
}

// Close stops accepting events and waits for the queued ones to be forwarded.
func (a *Async) Close() error {
	a.once.Do(func() { close(a.stop) })
	<-a.done
	return nil
}

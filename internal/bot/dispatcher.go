package bot

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrDispatcherClosed is returned by Submit after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// HandlerFunc handles one message.
type HandlerFunc func(ctx context.Context, msg Message)

// sessionQueue is the FIFO of messages waiting for one session.
type sessionQueue struct {
	pending []Message
}

// Dispatcher runs messages of the same session one after another and
// messages of different sessions concurrently, with at most maxWorkers
// sessions being handled at once.
type Dispatcher struct {
	handler HandlerFunc
	timeout time.Duration
	slots   chan struct{}

	mu     sync.Mutex
	queues map[string]*sessionQueue
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Each message gets its own context
// bounded by timeout; non-positive maxWorkers means 1.
func NewDispatcher(handler HandlerFunc, maxWorkers int, timeout time.Duration) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Dispatcher{
		handler: handler,
		timeout: timeout,
		slots:   make(chan struct{}, maxWorkers),
		queues:  make(map[string]*sessionQueue),
	}
}

// Submit enqueues msg behind any earlier message of the same session.
func (d *Dispatcher) Submit(msg Message) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	q, running := d.queues[msg.SessionID]
	if !running {
		q = &sessionQueue{}
		d.queues[msg.SessionID] = q
		d.wg.Add(1)
	}
	q.pending = append(q.pending, msg)
	d.mu.Unlock()

	if !running {
		go d.drain(msg.SessionID, q)
	}
	return nil
}

// Close stops accepting messages and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) drain(sessionID string, q *sessionQueue) {
	defer d.wg.Done()

	d.slots <- struct{}{}
	defer func() { <-d.slots }()

	for {
		d.mu.Lock()
		if len(q.pending) == 0 {
			delete(d.queues, sessionID)
			d.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		d.mu.Unlock()

		d.run(msg)
	}
}

func (d *Dispatcher) run(msg Message) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("ERROR: handler panic in session %s: %v", msg.SessionID, rec)
		}
	}()
	d.handler(ctx, msg)
}

package jambonz

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// DefaultDrainTimeout bounds how long DispatchAndWait waits for earlier
// requests before running its own.
const DefaultDrainTimeout = time.Second

type dispatchItem[S any] struct {
	env  RequestEnvelope[S]
	done chan struct{}

	// barrier items carry no request; the worker only closes done.
	barrier bool
}

// Dispatcher runs a connection's handler invocations on a single worker
// goroutine, in the order the requests were dispatched.
//
// Dispatch never blocks the caller: requests wait in an unbounded FIFO until
// the worker gets to them. Each invocation runs inside a recover boundary, so
// a failing or panicking handler is logged and the worker moves on.
//
// DispatchAndWait is for the terminal request of a connection. It waits up to
// DrainTimeout for the worker to finish earlier requests, then runs its
// request itself, outside the worker, so a handler stuck on an earlier
// request delays the terminal one by at most DrainTimeout.
type Dispatcher[S any] struct {
	handler Handler[S]
	ctx     context.Context

	// DrainTimeout is read by DispatchAndWait. Zero means no waiting for
	// earlier requests.
	DrainTimeout time.Duration

	mu      sync.Mutex
	items   *queue.Queue
	stopped bool

	wake     chan struct{}
	finished chan struct{}
}

// NewDispatcher starts a dispatcher whose handlers receive ctx.
func NewDispatcher[S any](ctx context.Context, handler Handler[S]) *Dispatcher[S] {
	d := &Dispatcher[S]{
		handler:      handler,
		ctx:          ctx,
		DrainTimeout: DefaultDrainTimeout,
		items:        queue.New(),
		wake:     make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch queues env and returns immediately.
// It reports false if the dispatcher was already stopped.
func (d *Dispatcher[S]) Dispatch(env RequestEnvelope[S]) bool {
	return d.enqueue(&dispatchItem[S]{env: env})
}

// DispatchAndWait runs env's handler and blocks until it has returned.
// Requests dispatched earlier are handled first unless they take longer than
// DrainTimeout.
func (d *Dispatcher[S]) DispatchAndWait(env RequestEnvelope[S]) bool {
	barrier := &dispatchItem[S]{env: env, done: make(chan struct{}), barrier: true}
	if !d.enqueue(barrier) {
		return false
	}
	if d.DrainTimeout > 0 {
		timer := time.NewTimer(d.DrainTimeout)
		select {
		case <-barrier.done:
		case <-timer.C:
			log.Printf("Earlier requests for %s still running after %s; handling %s request now", env.ID, d.DrainTimeout, env.Request.Kind)
		}
		timer.Stop()
	}

	d.invoke(env)
	return true
}

func (d *Dispatcher[S]) enqueue(item *dispatchItem[S]) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		log.Printf("Dropping %s request for %s: dispatcher stopped", item.env.Request.Kind, item.env.ID)
		return false
	}
	d.items.Add(item)
	d.mu.Unlock()
	d.signal()
	return true
}

func (d *Dispatcher[S]) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Stop refuses further requests. Queued requests are still handled; Wait
// blocks until they are.
func (d *Dispatcher[S]) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.signal()
}

// Wait blocks until the dispatcher has been stopped and its queue drained.
func (d *Dispatcher[S]) Wait() {
	<-d.finished
}

// Pending returns the number of queued requests not yet handed to the handler.
func (d *Dispatcher[S]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.items.Length()
}

func (d *Dispatcher[S]) run() {
	defer close(d.finished)
	for {
		d.mu.Lock()
		if d.items.Length() == 0 {
			stopped := d.stopped
			d.mu.Unlock()
			if stopped {
				return
			}
			<-d.wake
			continue
		}
		item := d.items.Remove().(*dispatchItem[S])
		d.mu.Unlock()

		if !item.barrier {
			d.invoke(item.env)
		}
		if item.done != nil {
			close(item.done)
		}
	}
}

func (d *Dispatcher[S]) invoke(env RequestEnvelope[S]) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Handler panicked on %s request for %s: %v\n%s", env.Request.Kind, env.ID, r, debug.Stack())
		}
	}()
	if err := d.handler.Handle(d.ctx, env); err != nil {
		log.Printf("Handler failed on %s request for %s: %v", env.Request.Kind, env.ID, err)
	}
}

// Package worker runs remote operations off the caller's goroutine and hands
// back exactly one Result per submission.
package worker

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"waapiview/internal/services"
)

type Operation func(ctx context.Context) (any, error)

type Result struct {
	Value any
	Err   error
}

type Handle struct {
	ID     ulid.ULID
	Label  string
	Serial bool
	done   chan Result
}

func newHandle(label string, serial bool) *Handle {
	return &Handle{
		ID:     ulid.Make(),
		Label:  label,
		Serial: serial,
		done:   make(chan Result, 1),
	}
}

// Done yields the terminal result. It is written exactly once.
func (handle *Handle) Done() <-chan Result {
	return handle.done
}

func (handle *Handle) Wait(ctx context.Context) Result {
	select {
	case result := <-handle.done:
		return result
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}

type job struct {
	handle *Handle
	op     Operation
}

// Scheduler owns one long-lived worker that runs submitted jobs strictly in
// submission order, plus short-lived goroutines for spawned jobs.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	spawned sync.WaitGroup
	stopped chan struct{}
}

func NewScheduler(ctx context.Context) *Scheduler {
	cancelCtx, cancel := context.WithCancel(ctx)
	scheduler := &Scheduler{
		ctx:     cancelCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	scheduler.cond = sync.NewCond(&scheduler.mu)
	go scheduler.run()
	return scheduler
}

// Submit queues op on the shared serial worker. It never blocks.
func (scheduler *Scheduler) Submit(label string, op Operation) *Handle {
	handle := newHandle(label, true)
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.closed {
		handle.done <- Result{Err: services.ErrDisconnected}
		return handle
	}
	scheduler.queue = append(scheduler.queue, job{handle: handle, op: op})
	glog.V(2).Infof("[worker]queued %s %s (depth %d)", handle.Label, handle.ID, len(scheduler.queue))
	scheduler.cond.Signal()
	return handle
}

// Spawn runs op on a fresh goroutine, concurrently with everything else.
func (scheduler *Scheduler) Spawn(label string, op Operation) *Handle {
	handle := newHandle(label, false)
	scheduler.mu.Lock()
	if scheduler.closed {
		scheduler.mu.Unlock()
		handle.done <- Result{Err: services.ErrDisconnected}
		return handle
	}
	scheduler.spawned.Add(1)
	scheduler.mu.Unlock()

	go func() {
		defer scheduler.spawned.Done()
		scheduler.execute(job{handle: handle, op: op})
	}()
	return handle
}

func (scheduler *Scheduler) run() {
	defer close(scheduler.stopped)
	for {
		scheduler.mu.Lock()
		for len(scheduler.queue) == 0 && !scheduler.closed {
			scheduler.cond.Wait()
		}
		if scheduler.closed {
			scheduler.mu.Unlock()
			return
		}
		next := scheduler.queue[0]
		scheduler.queue[0] = job{}
		scheduler.queue = scheduler.queue[1:]
		scheduler.mu.Unlock()

		scheduler.execute(next)
	}
}

func (scheduler *Scheduler) execute(next job) {
	glog.V(2).Infof("[worker]start %s %s", next.handle.Label, next.handle.ID)
	value, err := scheduler.invoke(next.op)
	scheduler.deliver(next.handle, Result{Value: value, Err: err})
}

func (scheduler *Scheduler) invoke(op Operation) (value any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			glog.Errorf("[worker]operation panicked: %v", recovered)
			value = nil
			err = &panicError{value: recovered}
		}
	}()
	return op(scheduler.ctx)
}

// deliver swaps the result for ErrDisconnected once the scheduler is closed.
func (scheduler *Scheduler) deliver(handle *Handle, result Result) {
	scheduler.mu.Lock()
	closed := scheduler.closed
	scheduler.mu.Unlock()
	if closed {
		glog.V(1).Infof("[worker]discard %s %s after close", handle.Label, handle.ID)
		result = Result{Err: services.ErrDisconnected}
	} else {
		glog.V(2).Infof("[worker]done %s %s err=%v", handle.Label, handle.ID, result.Err)
	}
	handle.done <- result
}

// Close stops accepting work. Queued jobs complete with ErrDisconnected and
// jobs still running deliver ErrDisconnected when they return.
func (scheduler *Scheduler) Close() {
	scheduler.mu.Lock()
	if scheduler.closed {
		scheduler.mu.Unlock()
		return
	}
	scheduler.closed = true
	queued := scheduler.queue
	scheduler.queue = nil
	scheduler.cond.Broadcast()
	scheduler.mu.Unlock()

	for _, pending := range queued {
		pending.handle.done <- Result{Err: services.ErrDisconnected}
	}
	glog.V(1).Infof("[worker]closed, %d queued jobs dropped", len(queued))
}

// Wait blocks until the serial worker and every spawned job have returned.
func (scheduler *Scheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		<-scheduler.stopped
		scheduler.spawned.Wait()
		close(done)
	}()
	select {
	case <-done:
		scheduler.cancel()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (scheduler *Scheduler) Closed() bool {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.closed
}

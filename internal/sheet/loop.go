package sheet

import (
	"context"
	"sync"
	"time"
)

// Loop serializes controller work onto one goroutine, the way a UI event loop does.
//
// Tasks are queued with Post from any goroutine and executed by Drain, Run or Do
// on the owning goroutine. Microtasks queued with Defer run after the current task
// and before the next one.
type Loop struct {
	clock Clock

	mu    sync.Mutex
	tasks []func()
	ready chan struct{}

	// Owned by the loop goroutine.
	micro []func()
	depth int
}

func NewLoop(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{
		clock: clock,
		ready: make(chan struct{}, 1),
	}
}

func (l *Loop) Clock() Clock { return l.clock }

// Post queues fn to run as its own task. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

// Defer queues fn to run once the current task returns. Must be called from the
// loop goroutine; outside of a task it falls back to Post.
func (l *Loop) Defer(fn func()) {
	if fn == nil {
		return
	}
	if l.depth == 0 {
		l.Post(fn)
		return
	}
	l.micro = append(l.micro, fn)
}

// Do runs fn as a task on the calling goroutine, then drains microtasks.
// Microtasks still run when fn panics; the panic propagates afterwards.
func (l *Loop) Do(fn func()) {
	l.depth++
	defer func() {
		l.drainMicro()
		l.depth--
	}()
	if fn != nil {
		fn()
	}
}

// Drain runs queued tasks until the queue is empty and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.Do(fn)
		n++
	}
}

// Ready signals (coalesced) that Post queued work. Hosts that own their own event
// loop wait on it and call Drain.
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// Queued returns the number of tasks waiting for Drain.
func (l *Loop) Queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Run pumps tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ready:
		}
	}
}

// AfterFunc starts a timer on the loop's clock whose callback runs as a loop task.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return l.clock.AfterFunc(d, func() { l.Post(fn) })
}

func (l *Loop) drainMicro() {
	// Microtasks may queue further microtasks; keep going until none are left.
	for len(l.micro) > 0 {
		fn := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		fn()
	}
}

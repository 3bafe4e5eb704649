package sheet

import "time"

type pendingSnapshot[V, E any] struct {
	values   V
	external E
}

// Scheduler coalesces bursts of changes into a single history push.
//
// With a positive delay the latest change is buffered and pushed once no further
// change arrives for delay; Flush materializes the buffer immediately. With a zero
// or negative delay every change is pushed synchronously.
type Scheduler[V, E any] struct {
	loop  *Loop
	delay time.Duration
	push  func(values V, external E)

	pending *pendingSnapshot[V, E]
	timer   Timer
	// seq invalidates timer callbacks that were already queued on the loop when
	// the timer was restarted or flushed.
	seq uint64
}

func NewScheduler[V, E any](loop *Loop, delay time.Duration, push func(values V, external E)) *Scheduler[V, E] {
	return &Scheduler[V, E]{
		loop:  loop,
		delay: delay,
		push:  push,
	}
}

func (s *Scheduler[V, E]) Delay() time.Duration { return s.delay }

// Schedule records values/external as the latest state. The pair is cloned so later
// in-place edits of the live model cannot leak into the buffer.
func (s *Scheduler[V, E]) Schedule(values V, external E) error {
	if s.delay <= 0 {
		s.push(values, external)
		return nil
	}

	v, err := CloneValues(values)
	if err != nil {
		return err
	}
	e, err := CloneData(external)
	if err != nil {
		return err
	}
	s.pending = &pendingSnapshot[V, E]{values: v, external: e}

	s.stopTimer()
	s.seq++
	seq := s.seq
	s.timer = s.loop.AfterFunc(s.delay, func() { s.fire(seq) })
	return nil
}

// Flush pushes the buffered pair, if any, and reports whether it did.
func (s *Scheduler[V, E]) Flush() bool {
	s.stopTimer()
	s.seq++
	p := s.pending
	if p == nil {
		return false
	}
	s.pending = nil
	s.push(p.values, p.external)
	return true
}

// Cancel drops the buffered pair without pushing it.
func (s *Scheduler[V, E]) Cancel() {
	s.stopTimer()
	s.seq++
	s.pending = nil
}

func (s *Scheduler[V, E]) Pending() bool { return s.pending != nil }

func (s *Scheduler[V, E]) fire(seq uint64) {
	if seq != s.seq {
		return
	}
	s.timer = nil
	p := s.pending
	if p == nil {
		return
	}
	s.pending = nil
	s.push(p.values, p.external)
}

func (s *Scheduler[V, E]) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

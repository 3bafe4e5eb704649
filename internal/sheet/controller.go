package sheet

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ValueModel is the live, mutable form state a controller snapshots.
type ValueModel[V any] interface {
	Values() V
	// Reset replaces every value. Implementations notify subscribers as they
	// would for a user edit.
	Reset(values V)
	Subscribe(onChange func()) (unsubscribe func())
}

// ExternalState is auxiliary state captured and restored alongside the form values.
type ExternalState[E any] interface {
	ExternalState() E
	ApplyExternalState(state E)
}

// Limits tune memory against responsiveness.
type Limits struct {
	// MaxSnapshots caps the history; <= 0 selects DefaultMaxSnapshots.
	MaxSnapshots int
	// Debounce is the coalescing window; <= 0 pushes every change immediately.
	Debounce time.Duration
}

func DefaultLimits() Limits {
	return Limits{MaxSnapshots: DefaultMaxSnapshots, Debounce: DefaultDebounce}
}

type Options[V, E any] struct {
	Form     ValueModel[V]
	External ExternalState[E]
	Keys     KeySource
	Loop     *Loop
	Limits   Limits
	Platform Platform

	// OnSave runs on the save combo when saving is allowed, after a flush.
	OnSave func()

	Logger *slog.Logger
}

var (
	ErrNoForm = errors.New("sheet: form is required")
	ErrNoLoop = errors.New("sheet: loop is required")
)

// Controller is the undo/redo engine behind one sheet.
//
// All methods except CanUndo, CanRedo, Flags and Watch must run on the loop
// goroutine (inside Loop.Do or a loop task).
type Controller[V, E any] struct {
	form     ValueModel[V]
	external ExternalState[E]
	loop     *Loop
	log      *slog.Logger
	onSave   func()

	history *History[V, E]
	sched   *Scheduler[V, E]
	binder  *Binder

	active      bool
	key         string
	canSave     bool
	applying    int
	unsubscribe func()

	mu       sync.Mutex
	flags    Flags
	nextW    int
	watchers map[int]func(Flags)
}

func New[V, E any](opts Options[V, E]) (*Controller[V, E], error) {
	if opts.Form == nil {
		return nil, ErrNoForm
	}
	if opts.Loop == nil {
		return nil, ErrNoLoop
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Controller[V, E]{
		form:     opts.Form,
		external: opts.External,
		loop:     opts.Loop,
		log:      log,
		onSave:   opts.OnSave,
		watchers: map[int]func(Flags){},
	}
	c.history = NewHistory[V, E](opts.Limits.MaxSnapshots, opts.External != nil)
	c.history.now = opts.Loop.Clock().Now
	c.sched = NewScheduler(opts.Loop, opts.Limits.Debounce, c.push)
	c.binder = NewBinder(opts.Keys, opts.Platform, BinderActions{
		CanSave: func() bool { return c.canSave },
		CanUndo: c.CanUndo,
		CanRedo: c.CanRedo,
		Flush:   c.Flush,
		Save:    c.save,
		Undo:    c.Undo,
		Redo:    c.Redo,
	})
	return c, nil
}

// Activate starts editing the entity identified by historyKey. Activating with a
// different key while active tears the previous session down first; the same key
// is a no-op.
func (c *Controller[V, E]) Activate(historyKey string) {
	if c.active {
		if c.key == historyKey {
			return
		}
		c.teardown()
	}

	c.key = historyKey
	c.sched.Flush()
	values, ext := c.read()
	if err := c.history.Reset(values, ext); err != nil {
		c.log.Warn("sheet history reset failed", "key", historyKey, "error", err)
		c.history.Clear()
	}
	c.active = true
	c.unsubscribe = c.form.Subscribe(c.onFormChange)
	c.binder.Attach()
	c.log.Debug("sheet activated", "key", historyKey, "maxSnapshots", c.history.Max(), "debounce", c.sched.Delay())
	c.publish()
}

// Deactivate flushes pending edits and releases the form and key subscriptions.
func (c *Controller[V, E]) Deactivate() {
	if !c.active {
		return
	}
	c.teardown()
	c.publish()
}

// Scope activates historyKey for the duration of fn.
func (c *Controller[V, E]) Scope(historyKey string, fn func() error) error {
	c.Activate(historyKey)
	defer c.Deactivate()
	return fn()
}

func (c *Controller[V, E]) teardown() {
	c.sched.Flush()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.binder.Detach()
	c.active = false
	c.log.Debug("sheet deactivated", "key", c.key, "snapshots", c.history.Len())
}

func (c *Controller[V, E]) Active() bool { return c.active }

func (c *Controller[V, E]) HistoryKey() string { return c.key }

// SetCanSave gates the save combo.
func (c *Controller[V, E]) SetCanSave(ok bool) { c.canSave = ok }

// NotifyExternalChange captures the current values plus freshly read external
// state, for changes the form itself does not report.
func (c *Controller[V, E]) NotifyExternalChange() {
	c.onFormChange()
}

// Flush commits any coalesced change immediately.
func (c *Controller[V, E]) Flush() {
	c.sched.Flush()
}

func (c *Controller[V, E]) Undo() {
	if !c.active {
		return
	}
	c.sched.Flush()
	idx := c.history.Index()
	if idx <= 0 {
		return
	}
	c.apply(idx - 1)
}

func (c *Controller[V, E]) Redo() {
	if !c.active {
		return
	}
	c.sched.Flush()
	idx := c.history.Index()
	if idx < 0 || idx >= c.history.Len()-1 {
		return
	}
	c.apply(idx + 1)
}

func (c *Controller[V, E]) CanUndo() bool { return c.Flags().CanUndo }

func (c *Controller[V, E]) CanRedo() bool { return c.Flags().CanRedo }

func (c *Controller[V, E]) Flags() Flags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}

// Watch calls fn with the new flags whenever CanUndo or CanRedo changes.
func (c *Controller[V, E]) Watch(fn func(Flags)) (cancel func()) {
	c.mu.Lock()
	id := c.nextW
	c.nextW++
	c.watchers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// Len and Index expose the history position for diagnostics and tests.
func (c *Controller[V, E]) Len() int { return c.history.Len() }

func (c *Controller[V, E]) Index() int { return c.history.Index() }

func (c *Controller[V, E]) Pending() bool { return c.sched.Pending() }

func (c *Controller[V, E]) onFormChange() {
	if !c.active || c.applying > 0 {
		return
	}
	values, ext := c.read()
	if err := c.sched.Schedule(values, ext); err != nil {
		c.log.Warn("sheet capture skipped", "key", c.key, "error", err)
	}
}

func (c *Controller[V, E]) push(values V, ext E) {
	res, err := c.history.Push(values, ext)
	if err != nil {
		c.log.Warn("sheet capture skipped", "key", c.key, "error", err)
		return
	}
	if res.Pushed {
		c.log.Debug("sheet snapshot", "key", c.key, "index", c.history.Index(), "truncated", res.Truncated, "evicted", res.Evicted)
	}
	c.publish()
}

// apply restores the snapshot at target. The reentrancy counter is released by a
// microtask so the form's own change notification for Reset is still ignored, and
// the release is queued even if Reset or ApplyExternalState panics.
func (c *Controller[V, E]) apply(target int) {
	snap, ok := c.history.At(target)
	if !ok {
		return
	}
	values, err := CloneValues(snap.Values)
	if err != nil {
		c.log.Warn("sheet restore failed", "key", c.key, "index", target, "error", err)
		return
	}
	var ext E
	if c.external != nil {
		if ext, err = CloneData(snap.External); err != nil {
			c.log.Warn("sheet restore failed", "key", c.key, "index", target, "error", err)
			return
		}
	}

	c.applying++
	defer c.loop.Defer(c.endApply)

	c.sched.Flush()
	c.form.Reset(values)
	if c.external != nil {
		c.external.ApplyExternalState(ext)
	}
	c.history.Seek(target)
	c.log.Debug("sheet restored", "key", c.key, "index", target, "len", c.history.Len())
	c.publish()
}

func (c *Controller[V, E]) endApply() {
	if c.applying > 0 {
		c.applying--
	}
}

func (c *Controller[V, E]) save() {
	if c.onSave != nil {
		c.onSave()
	}
}

func (c *Controller[V, E]) read() (V, E) {
	values := c.form.Values()
	var ext E
	if c.external != nil {
		ext = c.external.ExternalState()
	}
	return values, ext
}

func (c *Controller[V, E]) publish() {
	next := Flags{}
	if c.active {
		next = c.history.Flags()
	}
	c.mu.Lock()
	if next == c.flags {
		c.mu.Unlock()
		return
	}
	c.flags = next
	fns := make([]func(Flags), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

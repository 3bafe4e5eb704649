package sheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fields struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// memForm is an in-memory ValueModel. With async set, change notifications are
// delivered as loop microtasks instead of synchronously.
type memForm struct {
	loop  *Loop
	async bool

	values       fields
	resets       int
	panicOnReset bool

	next int
	subs map[int]func()
}

func newMemForm(loop *Loop) *memForm {
	return &memForm{loop: loop, subs: map[int]func(){}}
}

func (f *memForm) Values() fields { return f.values }

func (f *memForm) Reset(v fields) {
	if f.panicOnReset {
		panic("reset failed")
	}
	f.resets++
	f.values = v
	f.notify()
}

func (f *memForm) Subscribe(fn func()) func() {
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() { delete(f.subs, id) }
}

func (f *memForm) SetTitle(title string) {
	f.values.Title = title
	f.notify()
}

func (f *memForm) notify() {
	for _, fn := range f.subs {
		if f.async {
			f.loop.Defer(fn)
		} else {
			fn()
		}
	}
}

type memExternal struct {
	selected []string
	applied  int
}

func (e *memExternal) ExternalState() []string { return e.selected }

func (e *memExternal) ApplyExternalState(s []string) {
	e.applied++
	e.selected = s
}

type harness struct {
	t      *testing.T
	limits Limits
	clock  *ManualClock
	loop   *Loop
	form   *memForm
	ext    *memExternal
	hub    *KeyHub
	ctrl   *Controller[fields, []string]

	saves        int
	pendingAtSav bool
	lenAtSave    int
}

func newHarness(t *testing.T, limits Limits, withExternal bool) *harness {
	t.Helper()
	h := &harness{t: t, limits: limits}
	h.clock = NewManualClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	h.loop = NewLoop(h.clock)
	h.form = newMemForm(h.loop)
	h.ext = &memExternal{}
	h.hub = NewKeyHub()

	var ext ExternalState[[]string]
	if withExternal {
		ext = h.ext
	}
	ctrl, err := New(Options[fields, []string]{
		Form:     h.form,
		External: ext,
		Keys:     h.hub,
		Loop:     h.loop,
		Limits:   limits,
		Platform: PlatformPC,
		OnSave: func() {
			h.saves++
			h.pendingAtSav = h.ctrl.Pending()
			h.lenAtSave = h.ctrl.Len()
		},
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func (h *harness) do(fn func()) { h.loop.Do(fn) }

func (h *harness) activate(key string) { h.do(func() { h.ctrl.Activate(key) }) }

func (h *harness) typeTitle(s string) { h.do(func() { h.form.SetTitle(s) }) }

// settle lets the coalescing window elapse and runs the resulting loop tasks.
func (h *harness) settle() {
	h.clock.Advance(h.limits.Debounce)
	h.loop.Drain()
}

func (h *harness) undo() { h.do(h.ctrl.Undo) }

func (h *harness) redo() { h.do(h.ctrl.Redo) }

// press dispatches a key combo through the hub and reports whether it was prevented.
func (h *harness) press(spec string) bool {
	h.t.Helper()
	c, err := ParseCombo(spec)
	require.NoError(h.t, err)
	ev := c.Event()
	h.do(func() { h.hub.Dispatch(&ev) })
	return ev.DefaultPrevented()
}

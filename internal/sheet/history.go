package sheet

import "time"

const (
	// DefaultMaxSnapshots caps the history when Limits.MaxSnapshots is unset.
	DefaultMaxSnapshots = 100
	// DefaultDebounce is the coalescing window used by DefaultLimits.
	DefaultDebounce = 300 * time.Millisecond
)

// Snapshot is one immutable history entry. Values and External are private copies
// owned by the History; callers must clone before handing them to a live model.
type Snapshot[V, E any] struct {
	Values    V
	External  E
	Signature string
	At        time.Time
}

// Flags are the capability bits derived from the history position.
type Flags struct {
	CanUndo bool
	CanRedo bool
}

// History is a bounded list of snapshots plus a pointer to the current one.
//
// index is -1 only while the list is empty; otherwise 0 <= index < len.
// Consecutive snapshots never share a signature.
type History[V, E any] struct {
	max         int
	hasExternal bool
	now         func() time.Time

	entries []Snapshot[V, E]
	index   int
}

// NewHistory returns an empty history. max <= 0 selects DefaultMaxSnapshots.
// hasExternal controls whether external state takes part in signatures.
func NewHistory[V, E any](max int, hasExternal bool) *History[V, E] {
	if max <= 0 {
		max = DefaultMaxSnapshots
	}
	return &History[V, E]{
		max:         max,
		hasExternal: hasExternal,
		now:         time.Now,
		index:       -1,
	}
}

// Build clones values/external and computes the snapshot signature.
func (h *History[V, E]) Build(values V, external E) (Snapshot[V, E], error) {
	v, err := CloneValues(values)
	if err != nil {
		return Snapshot[V, E]{}, err
	}
	var e E
	if h.hasExternal {
		if e, err = CloneData(external); err != nil {
			return Snapshot[V, E]{}, err
		}
	}
	sig, err := Signature(v, e, h.hasExternal)
	if err != nil {
		return Snapshot[V, E]{}, err
	}
	return Snapshot[V, E]{Values: v, External: e, Signature: sig, At: h.now()}, nil
}

// PushResult describes what a Push did.
type PushResult struct {
	Pushed    bool // false when the snapshot matched the current entry
	Truncated int  // redo entries discarded
	Evicted   int  // oldest entries dropped by the cap
}

// Push records a new current state. A snapshot whose signature equals the current
// entry is a no-op. Otherwise entries after index are discarded, the snapshot is
// appended and the oldest entries are evicted beyond the cap.
func (h *History[V, E]) Push(values V, external E) (PushResult, error) {
	snap, err := h.Build(values, external)
	if err != nil {
		return PushResult{}, err
	}
	return h.push(snap), nil
}

func (h *History[V, E]) push(snap Snapshot[V, E]) PushResult {
	var res PushResult
	if h.index >= 0 && h.entries[h.index].Signature == snap.Signature {
		return res
	}

	if keep := h.index + 1; keep < len(h.entries) {
		res.Truncated = len(h.entries) - keep
		clear(h.entries[keep:])
		h.entries = h.entries[:keep]
	}
	h.entries = append(h.entries, snap)
	h.index = len(h.entries) - 1
	res.Pushed = true

	if excess := len(h.entries) - h.max; excess > 0 {
		// Copy into a fresh slice so the evicted snapshots can be collected.
		kept := make([]Snapshot[V, E], len(h.entries)-excess, h.max)
		copy(kept, h.entries[excess:])
		h.entries = kept
		h.index -= excess
		res.Evicted = excess
	}
	return res
}

// Reset discards every entry and seeds the history with one baseline snapshot.
func (h *History[V, E]) Reset(values V, external E) error {
	snap, err := h.Build(values, external)
	if err != nil {
		return err
	}
	h.entries = []Snapshot[V, E]{snap}
	h.index = 0
	return nil
}

// Clear empties the history.
func (h *History[V, E]) Clear() {
	h.entries = nil
	h.index = -1
}

// Seek moves the pointer. It reports false for out-of-range targets.
func (h *History[V, E]) Seek(target int) bool {
	if target < 0 || target >= len(h.entries) {
		return false
	}
	h.index = target
	return true
}

// At returns the snapshot at i.
func (h *History[V, E]) At(i int) (Snapshot[V, E], bool) {
	if i < 0 || i >= len(h.entries) {
		return Snapshot[V, E]{}, false
	}
	return h.entries[i], true
}

// Current returns the snapshot at index.
func (h *History[V, E]) Current() (Snapshot[V, E], bool) { return h.At(h.index) }

func (h *History[V, E]) Index() int { return h.index }

func (h *History[V, E]) Len() int { return len(h.entries) }

func (h *History[V, E]) Max() int { return h.max }

func (h *History[V, E]) CanUndo() bool { return h.index > 0 }

func (h *History[V, E]) CanRedo() bool {
	return h.index >= 0 && h.index < len(h.entries)-1
}

func (h *History[V, E]) Flags() Flags {
	return Flags{CanUndo: h.CanUndo(), CanRedo: h.CanRedo()}
}

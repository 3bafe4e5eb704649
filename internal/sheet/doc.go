// Package sheet provides undo/redo history for editable sheet forms.
//
// A Controller watches a ValueModel (the live form) and, optionally, an
// ExternalState provider for auxiliary data edited next to the form. Changes
// are coalesced by a Scheduler and recorded as Snapshots in a bounded History.
// Undo and redo restore snapshots back onto the form without recording the
// restore itself.
//
// # Event loop
//
// Controllers are single-threaded. All calls happen on the goroutine that owns
// the Loop; timers and other goroutines hand work over with Loop.Post:
//
//	loop := sheet.NewLoop(sheet.SystemClock{})
//	ctrl, err := sheet.New(sheet.Options[Values, []string]{
//		Form:   form,
//		Loop:   loop,
//		Keys:   hub,
//		Limits: sheet.DefaultLimits(),
//		OnSave: save,
//	})
//	loop.Do(func() { ctrl.Activate("task-1") })
//
// # Keys
//
// While active, the controller listens on its KeySource for the platform
// save/undo/redo combinations (Cmd on macOS, Ctrl elsewhere; Ctrl+Y also
// redoes on PC). Pending edits are always flushed before a command runs.
//
// # Equality
//
// Snapshots are compared by Signature, a canonical JSON encoding. Only exported,
// JSON-serializable data takes part in cloning and in no-op detection.
package sheet

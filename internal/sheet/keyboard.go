package sheet

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// KeyEvent is a host-neutral key press. Key is the lower-case key name ("s", "z",
// "enter"); modifiers are reported separately.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool

	prevented bool
}

// PreventDefault tells the host not to apply its own handling of the key.
func (e *KeyEvent) PreventDefault() { e.prevented = true }

func (e *KeyEvent) DefaultPrevented() bool { return e.prevented }

func (e KeyEvent) String() string {
	var parts []string
	if e.Ctrl {
		parts = append(parts, "ctrl")
	}
	if e.Meta {
		parts = append(parts, "meta")
	}
	if e.Alt {
		parts = append(parts, "alt")
	}
	if e.Shift {
		parts = append(parts, "shift")
	}
	return strings.Join(append(parts, e.Key), "+")
}

// Platform selects the primary shortcut modifier.
type Platform int

const (
	PlatformPC Platform = iota
	PlatformMac
)

var ErrUnknownPlatform = errors.New("unknown platform")

// DetectPlatform returns PlatformMac on darwin and PlatformPC elsewhere.
func DetectPlatform() Platform {
	if runtime.GOOS == "darwin" {
		return PlatformMac
	}
	return PlatformPC
}

// ParsePlatform accepts "auto", "mac" and "pc" (plus a few aliases).
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DetectPlatform(), nil
	case "mac", "macos", "darwin":
		return PlatformMac, nil
	case "pc", "linux", "windows":
		return PlatformPC, nil
	default:
		return PlatformPC, fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
}

func (p Platform) String() string {
	if p == PlatformMac {
		return "mac"
	}
	return "pc"
}

func (p Platform) primary(ev KeyEvent) bool {
	if p == PlatformMac {
		return ev.Meta
	}
	return ev.Ctrl
}

// Command is what a key combination means to a sheet.
type Command int

const (
	CommandNone Command = iota
	CommandSave
	CommandUndo
	CommandRedo
)

func (c Command) String() string {
	switch c {
	case CommandSave:
		return "save"
	case CommandUndo:
		return "undo"
	case CommandRedo:
		return "redo"
	default:
		return "none"
	}
}

// Classify maps a key event to a sheet command for this platform.
//
//	Mod+S        save
//	Mod+Z        undo
//	Mod+Shift+Z  redo
//	Ctrl+Y       redo (PC only)
func (p Platform) Classify(ev KeyEvent) Command {
	key := strings.ToLower(ev.Key)
	if ev.Alt {
		return CommandNone
	}
	if p == PlatformPC && ev.Ctrl && !ev.Shift && key == "y" {
		return CommandRedo
	}
	if !p.primary(ev) {
		return CommandNone
	}
	switch key {
	case "s":
		return CommandSave
	case "z":
		if ev.Shift {
			return CommandRedo
		}
		return CommandUndo
	}
	return CommandNone
}

// Combo is a parsed key combination such as "ctrl+shift+z".
type Combo struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

var ErrInvalidCombo = errors.New("invalid key combo")

// ParseCombo parses "ctrl+s", "cmd+shift+z", "Ctrl+Y" (the form bubbletea uses for
// key strings). "cmd", "super" and "meta" are the same modifier.
func ParseCombo(spec string) (Combo, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Combo{}, ErrInvalidCombo
	}
	parts := strings.Split(spec, "+")
	var c Combo
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control":
			c.Ctrl = true
		case "cmd", "meta", "super":
			c.Meta = true
		case "shift":
			c.Shift = true
		case "alt", "option", "opt":
			c.Alt = true
		default:
			return Combo{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidCombo, p)
		}
	}
	c.Key = strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if c.Key == "" {
		return Combo{}, fmt.Errorf("%w: %q", ErrInvalidCombo, spec)
	}
	return c, nil
}

// Event returns the key event this combo describes.
func (c Combo) Event() KeyEvent {
	return KeyEvent{Key: c.Key, Ctrl: c.Ctrl, Meta: c.Meta, Shift: c.Shift, Alt: c.Alt}
}

// KeySource delivers key events to listeners until they detach.
type KeySource interface {
	Listen(fn func(*KeyEvent)) (detach func())
}

// KeyHub is an in-process KeySource. Dispatch calls listeners in attach order.
type KeyHub struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(*KeyEvent)
	order     []int
}

func NewKeyHub() *KeyHub {
	return &KeyHub{listeners: map[int]func(*KeyEvent){}}
}

func (h *KeyHub) Listen(fn func(*KeyEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.listeners[id] = fn
	h.order = append(h.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners, id)
			for i, x := range h.order {
				if x == id {
					h.order = append(h.order[:i], h.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Dispatch delivers ev and reports whether a listener prevented the default.
func (h *KeyHub) Dispatch(ev *KeyEvent) bool {
	h.mu.Lock()
	fns := make([]func(*KeyEvent), 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.listeners[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return ev.DefaultPrevented()
}

// Listeners returns the number of attached listeners.
func (h *KeyHub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

// BinderActions are the controller hooks a Binder drives.
type BinderActions struct {
	CanSave func() bool
	CanUndo func() bool
	CanRedo func() bool
	Flush   func()
	Save    func()
	Undo    func()
	Redo    func()
}

// Binder turns save/undo/redo combos into controller calls while attached.
type Binder struct {
	platform Platform
	source   KeySource
	actions  BinderActions

	detach func()
}

func NewBinder(source KeySource, platform Platform, actions BinderActions) *Binder {
	return &Binder{platform: platform, source: source, actions: actions}
}

// Attach starts listening. Calling it while attached does nothing.
func (b *Binder) Attach() {
	if b.source == nil || b.detach != nil {
		return
	}
	b.detach = b.source.Listen(b.Handle)
}

// Detach stops listening. Calling it while detached does nothing.
func (b *Binder) Detach() {
	if b.detach == nil {
		return
	}
	b.detach()
	b.detach = nil
}

func (b *Binder) Attached() bool { return b.detach != nil }

// Handle applies one key event.
func (b *Binder) Handle(ev *KeyEvent) {
	switch b.platform.Classify(*ev) {
	case CommandSave:
		// Always swallow the combo so the host never runs its own save.
		ev.PreventDefault()
		if !call(b.actions.CanSave) {
			return
		}
		run(b.actions.Flush)
		run(b.actions.Save)
	case CommandUndo:
		if !call(b.actions.CanUndo) {
			return
		}
		ev.PreventDefault()
		run(b.actions.Flush)
		run(b.actions.Undo)
	case CommandRedo:
		if !call(b.actions.CanRedo) {
			return
		}
		ev.PreventDefault()
		run(b.actions.Flush)
		run(b.actions.Redo)
	}
}

func call(fn func() bool) bool { return fn != nil && fn() }

func run(fn func()) {
	if fn != nil {
		fn()
	}
}

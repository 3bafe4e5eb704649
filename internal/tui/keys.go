package tui

import (
	"strings"
	"unicode"

	"sheetdesk/internal/sheet"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyEvent converts a terminal key press for the sheet key hub. Terminals never
// report Cmd, so on macOS Option (delivered as alt) stands in for it. An upper
// case letter carries an implicit shift.
func keyEvent(msg tea.KeyMsg, platform sheet.Platform) (sheet.KeyEvent, bool) {
	s := msg.String()
	c, err := sheet.ParseCombo(s)
	if err != nil {
		return sheet.KeyEvent{}, false
	}
	ev := c.Event()
	last := s[strings.LastIndex(s, "+")+1:]
	if r := []rune(last); len(r) == 1 && unicode.IsUpper(r[0]) {
		ev.Shift = true
	}
	if platform == sheet.PlatformMac && ev.Alt {
		ev.Alt = false
		ev.Meta = true
	}
	return ev, true
}

type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Toggle  key.Binding
	Up      key.Binding
	Down    key.Binding
	Preview key.Binding
	Save    key.Binding
	Undo    key.Binding
	Redo    key.Binding
	Quit    key.Binding
	Abort   key.Binding
}

func newKeyMap(platform sheet.Platform) keyMap {
	mod, undo, redo := "ctrl", "ctrl+z", "ctrl+y"
	if platform == sheet.PlatformMac {
		mod, undo, redo = "opt", "opt+z", "opt+Z"
	}
	return keyMap{
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "left", "right"), key.WithHelp("space", "toggle")),
		Up:      key.NewBinding(key.WithKeys("up")),
		Down:    key.NewBinding(key.WithKeys("down")),
		Preview: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "preview")),
		// Save, undo and redo are matched by the sheet controller; these bindings
		// only drive the help bar.
		Save:  key.NewBinding(key.WithKeys(mod+"+s"), key.WithHelp(mod+"+s", "save")),
		Undo:  key.NewBinding(key.WithKeys(undo), key.WithHelp(undo, "undo")),
		Redo:  key.NewBinding(key.WithKeys(redo), key.WithHelp(redo, "redo")),
		Quit:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Abort: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Toggle, k.Save, k.Undo, k.Redo, k.Preview, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Toggle},
		{k.Save, k.Undo, k.Redo},
		{k.Preview, k.Quit},
	}
}

// syncFlags enables the undo/redo help entries only when they would do something.
func (k *keyMap) syncFlags(f sheet.Flags, canSave bool) {
	k.Undo.SetEnabled(f.CanUndo)
	k.Redo.SetEnabled(f.CanRedo)
	k.Save.SetEnabled(canSave)
}

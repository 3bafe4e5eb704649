package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sheetdesk/internal/sheet"
	"sheetdesk/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loopReadyMsg tells Update that debounce timers queued work on the sheet loop.
type loopReadyMsg struct{}

type sheetModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   EditOptions
	log    *slog.Logger

	spec  sheetSpec
	loop  *sheet.Loop
	hub   *sheet.KeyHub
	form  *fieldForm
	picks *picklist
	ctrl  *sheet.Controller[Values, []string]

	keys  keyMap
	help  help.Model
	flags sheet.Flags

	focus       int
	width       int
	showPreview bool

	savedSig string
	saves    int
	changed  bool
	confirmQ bool
	flash    string
	flashErr bool
	quitting bool
	unwatch  func()
}

func newSheetModel(ctx context.Context, opts EditOptions, db *store.DB) (*sheetModel, error) {
	spec, err := buildSheet(db, opts.ActorID, opts.Kind, opts.ID)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	m := &sheetModel{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		log:    log.With("sheet", spec.historyKey()),
		spec:   spec,
		loop:   sheet.NewLoop(opts.Clock),
		hub:    sheet.NewKeyHub(),
		form:   newFieldForm(spec.fields),
		keys:   newKeyMap(opts.Platform),
		help:   help.New(),
		width:  80,
	}

	var ext sheet.ExternalState[[]string]
	if spec.pick != nil {
		m.picks = newPicklist(spec.pick.label, spec.pick.options, spec.pick.selected)
		ext = m.picks
	}
	ctrl, err := sheet.New(sheet.Options[Values, []string]{
		Form:     m.form,
		External: ext,
		Keys:     m.hub,
		Loop:     m.loop,
		Limits:   opts.Limits,
		Platform: opts.Platform,
		OnSave:   m.save,
		Logger:   m.log,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	m.ctrl = ctrl
	// Watch callbacks run inside publish, on the Update goroutine.
	m.unwatch = ctrl.Watch(func(f sheet.Flags) {
		m.flags = f
		m.keys.syncFlags(f, spec.canSave)
	})
	m.loop.Do(func() {
		ctrl.SetCanSave(spec.canSave)
		ctrl.Activate(spec.historyKey())
	})
	m.keys.syncFlags(m.flags, spec.canSave)
	m.savedSig = m.signature()
	if !spec.canSave {
		m.setFlash("read only: you cannot save this "+string(spec.kind), true)
	}
	return m, nil
}

func (m *sheetModel) Init() tea.Cmd {
	return tea.Batch(m.waitForLoop(), m.focusCurrent())
}

// waitForLoop bridges the sheet loop into bubbletea: timer callbacks Post onto
// the loop, and Update drains it on the program goroutine.
func (m *sheetModel) waitForLoop() tea.Cmd {
	ready, done := m.loop.Ready(), m.ctx.Done()
	return func() tea.Msg {
		select {
		case <-ready:
			return loopReadyMsg{}
		case <-done:
			return nil
		}
	}
}

func (m *sheetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loopReadyMsg:
		m.loop.Drain()
		return m, m.waitForLoop()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *sheetModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Abort) {
		return m, m.close()
	}

	// The controller sees every key first; combos it handles stop here.
	if ev, ok := keyEvent(msg, m.opts.Platform); ok {
		prevented := false
		m.loop.Do(func() { prevented = m.hub.Dispatch(&ev) })
		if prevented {
			m.confirmQ = false
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.dirty() && !m.confirmQ {
			m.confirmQ = true
			m.setFlash("unsaved changes: esc again to discard", true)
			return m, nil
		}
		return m, m.close()
	case key.Matches(msg, m.keys.Next):
		return m, m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m, m.moveFocus(-1)
	case key.Matches(msg, m.keys.Preview):
		m.showPreview = !m.showPreview
		return m, nil
	}
	m.confirmQ = false

	if m.focusOnPicklist() {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.picks.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.picks.move(1)
		case isSpace(msg):
			m.loop.Do(func() {
				if m.picks.toggle() {
					m.ctrl.NotifyExternalChange()
				}
			})
		}
		return m, nil
	}

	ff := m.form.fields[m.focus]
	var cmd tea.Cmd
	m.loop.Do(func() {
		cmd = m.form.edit(ff, func() tea.Cmd {
			if ff.spec.kind == fieldChoice {
				switch {
				case msg.String() == "left":
					ff.cycle(-1)
				case msg.String() == "right" || isSpace(msg):
					ff.cycle(1)
				}
				return nil
			}
			if ff.spec.kind == fieldLine && msg.Type == tea.KeyEnter {
				return nil
			}
			return ff.update(msg)
		})
	})
	if ff.spec.kind == fieldLine && msg.Type == tea.KeyEnter {
		return m, m.moveFocus(1)
	}
	return m, cmd
}

func isSpace(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeySpace || msg.String() == " "
}

func (m *sheetModel) focusables() int {
	n := len(m.form.fields)
	if m.picks != nil {
		n++
	}
	return n
}

func (m *sheetModel) focusOnPicklist() bool {
	return m.picks != nil && m.focus == len(m.form.fields)
}

func (m *sheetModel) moveFocus(delta int) tea.Cmd {
	if m.focus < len(m.form.fields) {
		m.form.fields[m.focus].blur()
	}
	n := m.focusables()
	m.focus = ((m.focus+delta)%n + n) % n
	return m.focusCurrent()
}

func (m *sheetModel) focusCurrent() tea.Cmd {
	if m.focus < len(m.form.fields) {
		return m.form.fields[m.focus].focus()
	}
	return nil
}

// save is the controller's OnSave hook. Pending edits are already flushed.
func (m *sheetModel) save() {
	var selected []string
	if m.picks != nil {
		selected = m.picks.ExternalState()
	}
	changed, err := saveSheet(m.ctx, m.opts.Store, m.opts.ActorID, m.spec, m.form.Values(), selected)
	if err != nil {
		m.log.Warn("sheet save failed", "error", err)
		m.setFlash(err.Error(), true)
		return
	}
	m.saves++
	m.savedSig = m.signature()
	if !changed {
		m.setFlash("nothing to save", false)
		return
	}
	m.changed = true
	m.log.Info("sheet saved", "kind", m.spec.kind, "id", m.spec.id)
	m.setFlash("saved", false)
}

func (m *sheetModel) signature() string {
	var ext []string
	if m.picks != nil {
		ext = m.picks.ExternalState()
	}
	sig, err := sheet.Signature(m.form.Values(), ext, m.picks != nil)
	if err != nil {
		return ""
	}
	return sig
}

func (m *sheetModel) dirty() bool {
	return m.spec.canSave && m.signature() != m.savedSig
}

func (m *sheetModel) setFlash(s string, isErr bool) {
	m.flash = s
	m.flashErr = isErr
}

// close deactivates the controller (flushing any coalesced edit) and quits.
func (m *sheetModel) close() tea.Cmd {
	if m.quitting {
		return tea.Quit
	}
	m.quitting = true
	m.loop.Do(m.ctrl.Deactivate)
	if m.unwatch != nil {
		m.unwatch()
	}
	m.cancel()
	return tea.Quit
}

func (m *sheetModel) outcome() EditOutcome {
	return EditOutcome{
		Kind:      m.spec.kind,
		ID:        m.spec.id,
		Saves:     m.saves,
		Changed:   m.changed,
		Discarded: m.dirty(),
		Snapshots: m.ctrl.Len(),
	}
}

func (m *sheetModel) View() string {
	if m.quitting {
		return ""
	}
	bodyW := m.width - 4
	if bodyW > 100 {
		bodyW = 100
	}
	inputW := bodyW - 20

	var b strings.Builder
	title := styleTitle().Render(fmt.Sprintf("%s %s", strings.ToUpper(string(m.spec.kind)), m.spec.id))
	b.WriteString(title + "  " + styleMuted().Render(m.spec.title))
	if m.dirty() {
		b.WriteString("  " + styleBadge(colorAccent).Render("● modified"))
	}
	if !m.spec.canSave {
		b.WriteString("  " + styleBadge(colorError).Render("read only"))
	}
	b.WriteString("\n\n")

	for i, ff := range m.form.fields {
		focused := i == m.focus
		b.WriteString(styleLabel(focused).Render(ff.spec.label))
		switch ff.spec.kind {
		case fieldLine:
			b.WriteString(renderFieldLine(inputW, ff.input.View(), focused))
		case fieldArea:
			if m.showPreview && ff.spec.name == m.spec.preview && !focused {
				b.WriteString("\n" + renderMarkdown(ff.value(), inputW))
			} else {
				b.WriteString("\n" + ff.area.View())
			}
		case fieldChoice:
			v := ff.value()
			if focused {
				v = "‹ " + v + " ›"
			}
			b.WriteString(renderFieldLine(inputW, v, focused))
		}
		b.WriteString("\n")
	}

	if m.picks != nil {
		b.WriteString("\n" + styleLabel(m.focusOnPicklist()).Render(m.picks.label) + "\n")
		var rows []string
		for i, o := range m.picks.options {
			mark := "[ ]"
			if m.picks.selected[o.ID] {
				mark = "[x]"
			}
			cursor := "  "
			if m.focusOnPicklist() && i == m.picks.cursor {
				cursor = "> "
			}
			rows = append(rows, fmt.Sprintf("%s%s %s %s", cursor, mark, o.Label, styleMuted().Render(o.ID)))
		}
		if len(rows) == 0 {
			rows = append(rows, styleMuted().Render("(no users)"))
		}
		b.WriteString(stylePanel().Render(strings.Join(rows, "\n")) + "\n")
	}

	b.WriteString("\n")
	hist := fmt.Sprintf("history %d/%d", m.ctrl.Index()+1, m.ctrl.Len())
	b.WriteString(styleMuted().Render(hist))
	if m.flash != "" {
		c := colorOK
		if m.flashErr {
			c = colorError
		}
		b.WriteString("  " + styleBadge(c).Render(m.flash))
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

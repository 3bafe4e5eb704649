package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Values is the form state a sheet controller snapshots: field name to text.
type Values = map[string]string

type fieldKind int

const (
	fieldLine fieldKind = iota
	fieldArea
	fieldChoice
)

type fieldSpec struct {
	name    string
	label   string
	kind    fieldKind
	options []string // fieldChoice only
	value   string
}

type formField struct {
	spec   fieldSpec
	input  textinput.Model
	area   textarea.Model
	choice int
}

func newFormField(spec fieldSpec) *formField {
	f := &formField{spec: spec}
	switch spec.kind {
	case fieldLine:
		f.input = textinput.New()
		f.input.Prompt = ""
		f.input.Placeholder = spec.label
		f.input.CharLimit = 200
		f.input.Width = 48
	case fieldArea:
		f.area = textarea.New()
		f.area.Placeholder = "Write…"
		f.area.CharLimit = 0
		f.area.MaxHeight = 0
		f.area.ShowLineNumbers = false
		f.area.SetWidth(64)
		f.area.SetHeight(5)
	}
	f.set(spec.value)
	return f
}

func (f *formField) value() string {
	switch f.spec.kind {
	case fieldArea:
		return f.area.Value()
	case fieldChoice:
		if len(f.spec.options) == 0 {
			return ""
		}
		return f.spec.options[f.choice]
	default:
		return f.input.Value()
	}
}

func (f *formField) set(v string) {
	switch f.spec.kind {
	case fieldArea:
		f.area.SetValue(v)
	case fieldChoice:
		f.choice = 0
		for i, o := range f.spec.options {
			if strings.EqualFold(o, v) {
				f.choice = i
				break
			}
		}
	default:
		f.input.SetValue(v)
	}
}

// cycle moves a choice field by delta, wrapping around.
func (f *formField) cycle(delta int) {
	n := len(f.spec.options)
	if f.spec.kind != fieldChoice || n == 0 {
		return
	}
	f.choice = ((f.choice+delta)%n + n) % n
}

func (f *formField) focus() tea.Cmd {
	switch f.spec.kind {
	case fieldArea:
		return f.area.Focus()
	case fieldLine:
		return f.input.Focus()
	}
	return nil
}

func (f *formField) blur() {
	switch f.spec.kind {
	case fieldArea:
		f.area.Blur()
	case fieldLine:
		f.input.Blur()
	}
}

func (f *formField) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.spec.kind {
	case fieldArea:
		f.area, cmd = f.area.Update(msg)
	case fieldLine:
		f.input, cmd = f.input.Update(msg)
	}
	return cmd
}

// fieldForm is the live, editable state of one sheet. It reports every value
// change to its subscribers, including the ones caused by Reset.
type fieldForm struct {
	fields []*formField
	byName map[string]*formField

	next int
	subs map[int]func()
}

func newFieldForm(specs []fieldSpec) *fieldForm {
	f := &fieldForm{byName: map[string]*formField{}, subs: map[int]func(){}}
	for _, s := range specs {
		ff := newFormField(s)
		f.fields = append(f.fields, ff)
		f.byName[s.name] = ff
	}
	return f
}

func (f *fieldForm) Values() Values {
	out := make(Values, len(f.fields))
	for _, ff := range f.fields {
		out[ff.spec.name] = ff.value()
	}
	return out
}

func (f *fieldForm) Reset(values Values) {
	for _, ff := range f.fields {
		ff.set(values[ff.spec.name])
	}
	f.notify()
}

func (f *fieldForm) Subscribe(fn func()) func() {
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() { delete(f.subs, id) }
}

func (f *fieldForm) Value(name string) string {
	if ff, ok := f.byName[name]; ok {
		return ff.value()
	}
	return ""
}

// edit runs fn against one field and notifies subscribers if its value moved.
func (f *fieldForm) edit(ff *formField, fn func() tea.Cmd) tea.Cmd {
	before := ff.value()
	cmd := fn()
	if ff.value() != before {
		f.notify()
	}
	return cmd
}

func (f *fieldForm) notify() {
	for _, fn := range f.subs {
		fn()
	}
}

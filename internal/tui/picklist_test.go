package tui

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

func TestPicklist_StateIsOrderedAndComplete(t *testing.T) {
	p := newPicklist("Assignees", []pickOption{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}}, []string{"zz-archived", "c", "a", "yy-archived"})

	want := []string{"a", "c", "yy-archived", "zz-archived"}
	if got := p.ExternalState(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ExternalState() = %v; want %v", got, want)
	}

	p.move(1)
	if !p.toggle() {
		t.Fatalf("expected toggle to change the selection")
	}
	if !p.selected["b"] {
		t.Fatalf("expected b selected")
	}
	p.move(10)
	if p.cursor != 2 {
		t.Fatalf("cursor should clamp to the last option; got %d", p.cursor)
	}

	p.ApplyExternalState(nil)
	if got := p.ExternalState(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil state; got %#v", got)
	}
}

func TestFieldForm_ResetNotifiesAndEditDetectsChange(t *testing.T) {
	f := newFieldForm([]fieldSpec{
		{name: "title", label: "Title", kind: fieldLine, value: "a"},
		{name: "status", label: "Status", kind: fieldChoice, options: []string{"todo", "done"}, value: "done"},
	})
	calls := 0
	unsub := f.Subscribe(func() { calls++ })

	f.Reset(Values{"title": "b", "status": "todo"})
	if calls != 1 || f.Value("title") != "b" || f.Value("status") != "todo" {
		t.Fatalf("reset: calls=%d values=%v", calls, f.Values())
	}

	st := f.byName["status"]
	f.edit(st, func() tea.Cmd { return nil })
	if calls != 1 {
		t.Fatalf("no-op edit must not notify")
	}
	f.edit(st, func() tea.Cmd { st.cycle(1); return nil })
	if calls != 2 || f.Value("status") != "done" {
		t.Fatalf("cycle edit: calls=%d status=%q", calls, f.Value("status"))
	}

	unsub()
	f.Reset(Values{"title": "c"})
	if calls != 2 {
		t.Fatalf("unsubscribed listener was called")
	}
	if f.Value("status") != "todo" {
		t.Fatalf("missing value should reset a choice to its first option; got %q", f.Value("status"))
	}
}

func TestRenderFieldLine_FixedWidth(t *testing.T) {
	short := renderFieldLine(20, "abc", false)
	if got := xansi.StringWidth(short); got != 20 {
		t.Fatalf("expected width 20, got %d (%q)", got, short)
	}
	long := renderFieldLine(20, strings.Repeat("x", 50), true)
	if got := xansi.StringWidth(long); got != 20 {
		t.Fatalf("expected truncated width 20, got %d (%q)", got, long)
	}
	if !strings.Contains(long, "…") {
		t.Fatalf("expected ellipsis in %q", long)
	}
	if strings.Contains(renderFieldLine(20, "a\nb", false), "\n") {
		t.Fatalf("expected newlines flattened")
	}
}

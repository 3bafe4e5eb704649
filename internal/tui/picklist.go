package tui

import "sort"

// pickOption is one selectable user.
type pickOption struct {
	ID    string
	Label string
}

// picklist is the multi-select of user ids shown under a sheet (assignees,
// members or managers). Its selection is saved and undone with the form.
type picklist struct {
	label    string
	options  []pickOption
	selected map[string]bool
	cursor   int
}

func newPicklist(label string, options []pickOption, selected []string) *picklist {
	p := &picklist{label: label, options: options}
	p.ApplyExternalState(selected)
	return p
}

// ExternalState returns the selected ids in option order. Ids that are not
// options (for example archived users) are kept at the end.
func (p *picklist) ExternalState() []string {
	out := []string{}
	seen := map[string]bool{}
	for _, o := range p.options {
		if p.selected[o.ID] {
			out = append(out, o.ID)
			seen[o.ID] = true
		}
	}
	for id, on := range p.selected {
		if on && !seen[id] {
			out = append(out, id)
		}
	}
	// Map order must not leak into snapshots.
	sort.Strings(out[len(seen):])
	return out
}

func (p *picklist) ApplyExternalState(ids []string) {
	p.selected = map[string]bool{}
	for _, id := range ids {
		p.selected[id] = true
	}
}

func (p *picklist) move(delta int) {
	if len(p.options) == 0 {
		return
	}
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(p.options) {
		p.cursor = len(p.options) - 1
	}
}

// toggle flips the option under the cursor and reports whether anything changed.
func (p *picklist) toggle() bool {
	if p.cursor < 0 || p.cursor >= len(p.options) {
		return false
	}
	id := p.options[p.cursor].ID
	if p.selected[id] {
		delete(p.selected, id)
	} else {
		p.selected[id] = true
	}
	return true
}

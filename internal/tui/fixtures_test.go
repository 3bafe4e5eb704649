package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/sheet"
	"sheetdesk/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

const testDebounce = 300 * time.Millisecond

func seedStore(t *testing.T) store.Store {
	t.Helper()
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	s := store.Store{Dir: t.TempDir()}
	db := &store.DB{
		Version: 1,
		Users: []model.User{
			{ID: "u-admin", Name: "Ada", Role: model.RoleAdmin, CreatedAt: now},
			{ID: "u-mem", Name: "Mo", Role: model.RoleMember, CreatedAt: now},
			{ID: "u-view", Name: "Vi", Role: model.RoleViewer, CreatedAt: now},
		},
		Clients: []model.Client{
			{ID: "c1", Name: "Acme", CreatedBy: "u-admin", CreatedAt: now, UpdatedAt: now},
		},
		Projects: []model.Project{
			{ID: "p1", ClientID: "c1", Name: "Site", Status: model.ProjectActive, MemberIDs: []string{"u-mem"}, CreatedBy: "u-admin", CreatedAt: now, UpdatedAt: now},
		},
		Tasks: []model.Task{
			{ID: "t1", ProjectID: "p1", Title: "Fix bug", Status: model.TaskTodo, OwnerID: "u-mem", CreatedBy: "u-mem", CreatedAt: now, UpdatedAt: now},
		},
	}
	if err := s.Save(context.Background(), db); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

type sheetHarness struct {
	t     *testing.T
	store store.Store
	clock *sheet.ManualClock
	m     *sheetModel
}

func newSheetHarness(t *testing.T, actorID string, kind Kind, id string) *sheetHarness {
	t.Helper()
	s := seedStore(t)
	h := &sheetHarness{t: t, store: s, clock: sheet.NewManualClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))}
	db, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, err := newSheetModel(context.Background(), EditOptions{
		Store:    s,
		ActorID:  actorID,
		Kind:     kind,
		ID:       id,
		Limits:   sheet.Limits{MaxSnapshots: 10, Debounce: testDebounce},
		Platform: sheet.PlatformPC,
		Clock:    h.clock,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, db)
	if err != nil {
		t.Fatalf("newSheetModel: %v", err)
	}
	_ = m.Init()
	h.m = m
	t.Cleanup(func() { m.close() })
	return h
}

func (h *sheetHarness) send(msg tea.KeyMsg) tea.Cmd {
	h.t.Helper()
	_, cmd := h.m.Update(msg)
	return cmd
}

func (h *sheetHarness) typeText(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// settle lets the coalescing window pass and delivers the loop wake-up.
func (h *sheetHarness) settle() {
	h.t.Helper()
	h.clock.Advance(testDebounce)
	h.m.Update(loopReadyMsg{})
}

func (h *sheetHarness) load() *store.DB {
	h.t.Helper()
	db, err := h.store.Load(context.Background())
	if err != nil {
		h.t.Fatalf("load: %v", err)
	}
	return db
}

func (h *sheetHarness) focusPicklist() {
	h.t.Helper()
	for !h.m.focusOnPicklist() {
		h.send(tea.KeyMsg{Type: tea.KeyTab})
	}
}

func (h *sheetHarness) focusField(name string) {
	h.t.Helper()
	for i := 0; i < h.m.focusables(); i++ {
		if h.m.focus < len(h.m.form.fields) && h.m.form.fields[h.m.focus].spec.name == name {
			return
		}
		h.send(tea.KeyMsg{Type: tea.KeyTab})
	}
	h.t.Fatalf("field %q not found", name)
}

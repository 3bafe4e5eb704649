package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sheetdesk/internal/model"
	"sheetdesk/internal/mutate"
	"sheetdesk/internal/perm"
	"sheetdesk/internal/store"
)

// Kind names the entity a sheet edits. It is also the event type prefix.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
	KindClient  Kind = "client"
	KindUser    Kind = "user"
)

var ErrUnknownKind = errors.New("unknown sheet kind")

// sheetSpec describes one sheet: its fields, its optional user picklist and
// whether the actor may save it.
type sheetSpec struct {
	kind    Kind
	id      string
	title   string
	fields  []fieldSpec
	pick    *pickSpec
	preview string // markdown field shown by the preview toggle
	canSave bool
}

type pickSpec struct {
	label    string
	options  []pickOption
	selected []string
}

// historyKey identifies the edit session; reopening the same entity reuses it.
func (s sheetSpec) historyKey() string { return string(s.kind) + ":" + s.id }

func buildSheet(db *store.DB, actorID string, kind Kind, id string) (sheetSpec, error) {
	id = strings.TrimSpace(id)
	switch kind {
	case KindTask:
		t, ok := db.FindTask(id)
		if !ok {
			return sheetSpec{}, mutate.NotFoundError{Kind: "task", ID: id}
		}
		due := ""
		if t.Due != nil {
			due = *t.Due
		}
		return sheetSpec{
			kind:  kind,
			id:    t.ID,
			title: t.Title,
			fields: []fieldSpec{
				{name: "title", label: "Title", kind: fieldLine, value: t.Title},
				{name: "description", label: "Description", kind: fieldArea, value: t.Description},
				{name: "status", label: "Status", kind: fieldChoice, options: taskStatuses, value: string(t.Status)},
				{name: "status_note", label: "Status note", kind: fieldLine},
				{name: "priority", label: "Priority", kind: fieldChoice, options: yesNo, value: boolText(t.Priority)},
				{name: "due", label: "Due (YYYY-MM-DD)", kind: fieldLine, value: due},
			},
			pick:    &pickSpec{label: "Assignees", options: userOptions(db), selected: t.AssigneeIDs},
			preview: "description",
			canSave: perm.CanEditTask(db, actorID, t),
		}, nil
	case KindProject:
		p, ok := db.FindProject(id)
		if !ok {
			return sheetSpec{}, mutate.NotFoundError{Kind: "project", ID: id}
		}
		return sheetSpec{
			kind:  kind,
			id:    p.ID,
			title: p.Name,
			fields: []fieldSpec{
				{name: "name", label: "Name", kind: fieldLine, value: p.Name},
				{name: "description", label: "Description", kind: fieldArea, value: p.Description},
				{name: "status", label: "Status", kind: fieldChoice, options: projectStatuses, value: string(p.Status)},
			},
			pick:    &pickSpec{label: "Members", options: userOptions(db), selected: p.MemberIDs},
			preview: "description",
			canSave: perm.CanEditProject(db, actorID, p),
		}, nil
	case KindClient:
		c, ok := db.FindClient(id)
		if !ok {
			return sheetSpec{}, mutate.NotFoundError{Kind: "client", ID: id}
		}
		return sheetSpec{
			kind:  kind,
			id:    c.ID,
			title: c.Name,
			fields: []fieldSpec{
				{name: "name", label: "Name", kind: fieldLine, value: c.Name},
				{name: "contact_email", label: "Contact email", kind: fieldLine, value: c.ContactEmail},
				{name: "phone", label: "Phone", kind: fieldLine, value: c.Phone},
				{name: "notes", label: "Notes", kind: fieldArea, value: c.Notes},
			},
			pick:    &pickSpec{label: "Managers", options: userOptions(db), selected: c.ManagerIDs},
			preview: "notes",
			canSave: perm.CanEditClient(db, actorID, c),
		}, nil
	case KindUser:
		u, ok := db.FindUser(id)
		if !ok {
			return sheetSpec{}, mutate.NotFoundError{Kind: "user", ID: id}
		}
		return sheetSpec{
			kind:  kind,
			id:    u.ID,
			title: u.Name,
			fields: []fieldSpec{
				{name: "name", label: "Name", kind: fieldLine, value: u.Name},
				{name: "email", label: "Email", kind: fieldLine, value: u.Email},
				{name: "role", label: "Role", kind: fieldChoice, options: roles, value: string(u.Role)},
			},
			canSave: perm.CanEditUser(db, actorID, u),
		}, nil
	default:
		return sheetSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

var (
	taskStatuses    = []string{string(model.TaskTodo), string(model.TaskDoing), string(model.TaskBlocked), string(model.TaskDone)}
	projectStatuses = []string{string(model.ProjectActive), string(model.ProjectPaused), string(model.ProjectClosed)}
	roles           = []string{string(model.RoleAdmin), string(model.RoleMember), string(model.RoleViewer)}
	yesNo           = []string{"no", "yes"}
)

func boolText(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func userOptions(db *store.DB) []pickOption {
	users := db.ActiveUsers()
	out := make([]pickOption, 0, len(users))
	for _, u := range users {
		out = append(out, pickOption{ID: u.ID, Label: u.Name})
	}
	return out
}

// saveSheet applies values (and the picklist selection, when the sheet has one)
// to the stored entity. It reloads the workspace first so concurrent CLI edits
// to other fields are not overwritten, then saves and records a <kind>.update
// event when something changed.
func saveSheet(ctx context.Context, s store.Store, actorID string, spec sheetSpec, values Values, selected []string) (bool, error) {
	db, err := s.Load(ctx)
	if err != nil {
		return false, err
	}

	var (
		changed bool
		payload map[string]any
	)
	switch spec.kind {
	case KindTask:
		patch := mutate.TaskPatch{
			Title:       ptr(values["title"]),
			Description: ptr(values["description"]),
			Status:      ptr(values["status"]),
			Priority:    ptr(values["priority"] == "yes"),
			Due:         ptr(values["due"]),
			AssigneeIDs: &selected,
		}
		if note := strings.TrimSpace(values["status_note"]); note != "" {
			patch.StatusNote = &note
		}
		res, err := mutate.UpdateTask(db, actorID, spec.id, patch)
		if err != nil {
			return false, err
		}
		changed, payload = res.Changed, res.EventPayload
	case KindProject:
		res, err := mutate.UpdateProject(db, actorID, spec.id, mutate.ProjectPatch{
			Name:        ptr(values["name"]),
			Description: ptr(values["description"]),
			Status:      ptr(values["status"]),
			MemberIDs:   &selected,
		})
		if err != nil {
			return false, err
		}
		changed, payload = res.Changed, res.EventPayload
	case KindClient:
		res, err := mutate.UpdateClient(db, actorID, spec.id, mutate.ClientPatch{
			Name:         ptr(values["name"]),
			ContactEmail: ptr(values["contact_email"]),
			Phone:        ptr(values["phone"]),
			Notes:        ptr(values["notes"]),
			ManagerIDs:   &selected,
		})
		if err != nil {
			return false, err
		}
		changed, payload = res.Changed, res.EventPayload
	case KindUser:
		res, err := mutate.UpdateUser(db, actorID, spec.id, mutate.UserPatch{
			Name:  ptr(values["name"]),
			Email: ptr(values["email"]),
			Role:  ptr(values["role"]),
		})
		if err != nil {
			return false, err
		}
		changed, payload = res.Changed, res.EventPayload
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, spec.kind)
	}

	if !changed {
		return false, nil
	}
	if err := s.Save(ctx, db); err != nil {
		return false, err
	}
	if err := s.AppendEvent(ctx, actorID, string(spec.kind)+".update", spec.id, payload); err != nil {
		return true, fmt.Errorf("saved, but recording the event failed: %w", err)
	}
	return true, nil
}

func ptr[T any](v T) *T { return &v }

package mutate

import (
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/perm"
	"sheetdesk/internal/store"
)

// ArchiveTask sets task.Archived. Callers save db and append the task.archive event.
func ArchiveTask(db *store.DB, actorID, taskID string, archived bool) (Result[model.Task], error) {
	t, err := editableTask(db, actorID, taskID)
	if err != nil {
		return Result[model.Task]{}, err
	}
	if t.Archived == archived {
		return Result[model.Task]{Entity: t}, nil
	}
	t.Archived = archived
	t.UpdatedAt = time.Now().UTC()
	return Result[model.Task]{Entity: t, Changed: true, EventPayload: map[string]any{"archived": archived}}, nil
}

func ArchiveProject(db *store.DB, actorID, projectID string, archived bool) (Result[model.Project], error) {
	projectID = strings.TrimSpace(projectID)
	p, ok := db.FindProject(projectID)
	if !ok {
		return Result[model.Project]{}, NotFoundError{Kind: "project", ID: projectID}
	}
	if !perm.CanEditProject(db, actorID, p) {
		return Result[model.Project]{}, PermissionError{ActorID: strings.TrimSpace(actorID), Kind: "project", ID: projectID}
	}
	if p.Archived == archived {
		return Result[model.Project]{Entity: p}, nil
	}
	p.Archived = archived
	p.UpdatedAt = time.Now().UTC()
	return Result[model.Project]{Entity: p, Changed: true, EventPayload: map[string]any{"archived": archived}}, nil
}

func ArchiveClient(db *store.DB, actorID, clientID string, archived bool) (Result[model.Client], error) {
	clientID = strings.TrimSpace(clientID)
	c, ok := db.FindClient(clientID)
	if !ok {
		return Result[model.Client]{}, NotFoundError{Kind: "client", ID: clientID}
	}
	if !perm.CanEditClient(db, actorID, c) {
		return Result[model.Client]{}, PermissionError{ActorID: strings.TrimSpace(actorID), Kind: "client", ID: clientID}
	}
	if c.Archived == archived {
		return Result[model.Client]{Entity: c}, nil
	}
	c.Archived = archived
	c.UpdatedAt = time.Now().UTC()
	return Result[model.Client]{Entity: c, Changed: true, EventPayload: map[string]any{"archived": archived}}, nil
}

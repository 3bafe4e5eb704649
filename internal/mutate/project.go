package mutate

import (
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/perm"
	"sheetdesk/internal/store"
)

type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *string
	MemberIDs   *[]string
}

func CreateProject(db *store.DB, actorID, id, clientID, name string) (Result[model.Project], error) {
	actorID = strings.TrimSpace(actorID)
	c, ok := db.FindClient(clientID)
	if !ok {
		return Result[model.Project]{}, NotFoundError{Kind: "client", ID: strings.TrimSpace(clientID)}
	}
	if !perm.CanEditClient(db, actorID, c) {
		return Result[model.Project]{}, PermissionError{ActorID: actorID, Kind: "project"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result[model.Project]{}, ErrNameRequired
	}
	now := time.Now().UTC()
	db.Projects = append(db.Projects, model.Project{
		ID:        id,
		ClientID:  c.ID,
		Name:      name,
		Status:    model.ProjectActive,
		MemberIDs: []string{actorID},
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	p := &db.Projects[len(db.Projects)-1]
	return Result[model.Project]{
		Entity:       p,
		Changed:      true,
		EventPayload: map[string]any{"clientId": p.ClientID, "name": p.Name},
	}, nil
}

func UpdateProject(db *store.DB, actorID, projectID string, patch ProjectPatch) (Result[model.Project], error) {
	projectID = strings.TrimSpace(projectID)
	p, ok := db.FindProject(projectID)
	if !ok {
		return Result[model.Project]{}, NotFoundError{Kind: "project", ID: projectID}
	}
	if !perm.CanEditProject(db, actorID, p) {
		return Result[model.Project]{}, PermissionError{ActorID: strings.TrimSpace(actorID), Kind: "project", ID: projectID}
	}

	next := *p
	payload := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Result[model.Project]{}, ErrNameRequired
		}
		if name != next.Name {
			next.Name = name
			payload["name"] = name
		}
	}
	if patch.Description != nil && *patch.Description != next.Description {
		next.Description = *patch.Description
		payload["description"] = next.Description
	}
	if patch.Status != nil {
		st, err := store.ParseProjectStatus(*patch.Status)
		if err != nil {
			return Result[model.Project]{}, err
		}
		if st != next.Status {
			payload["status"] = map[string]any{"from": string(next.Status), "to": string(st)}
			next.Status = st
		}
	}
	if patch.MemberIDs != nil {
		ids, err := normalizeUserIDs(db, *patch.MemberIDs)
		if err != nil {
			return Result[model.Project]{}, err
		}
		if !sameIDs(ids, next.MemberIDs) {
			next.MemberIDs = ids
			payload["memberIds"] = ids
		}
	}

	if len(payload) == 0 {
		return Result[model.Project]{Entity: p}, nil
	}
	next.UpdatedAt = time.Now().UTC()
	*p = next
	return Result[model.Project]{Entity: p, Changed: true, EventPayload: payload}, nil
}

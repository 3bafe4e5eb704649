package mutate

import (
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/perm"
	"sheetdesk/internal/store"
)

type ClientPatch struct {
	Name         *string
	ContactEmail *string
	Phone        *string
	Notes        *string
	ManagerIDs   *[]string
}

func CreateClient(db *store.DB, actorID, id, name string) (Result[model.Client], error) {
	actorID = strings.TrimSpace(actorID)
	if !perm.CanCreate(db, actorID) {
		return Result[model.Client]{}, PermissionError{ActorID: actorID, Kind: "client"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result[model.Client]{}, ErrNameRequired
	}
	now := time.Now().UTC()
	db.Clients = append(db.Clients, model.Client{
		ID:        id,
		Name:      name,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	c := &db.Clients[len(db.Clients)-1]
	return Result[model.Client]{Entity: c, Changed: true, EventPayload: map[string]any{"name": c.Name}}, nil
}

func UpdateClient(db *store.DB, actorID, clientID string, patch ClientPatch) (Result[model.Client], error) {
	clientID = strings.TrimSpace(clientID)
	c, ok := db.FindClient(clientID)
	if !ok {
		return Result[model.Client]{}, NotFoundError{Kind: "client", ID: clientID}
	}
	if !perm.CanEditClient(db, actorID, c) {
		return Result[model.Client]{}, PermissionError{ActorID: strings.TrimSpace(actorID), Kind: "client", ID: clientID}
	}

	next := *c
	payload := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Result[model.Client]{}, ErrNameRequired
		}
		if name != next.Name {
			next.Name = name
			payload["name"] = name
		}
	}
	if patch.ContactEmail != nil {
		email, err := normalizeEmail(*patch.ContactEmail)
		if err != nil {
			return Result[model.Client]{}, err
		}
		if email != next.ContactEmail {
			next.ContactEmail = email
			payload["contactEmail"] = email
		}
	}
	if patch.Phone != nil {
		if phone := strings.TrimSpace(*patch.Phone); phone != next.Phone {
			next.Phone = phone
			payload["phone"] = phone
		}
	}
	if patch.Notes != nil && *patch.Notes != next.Notes {
		next.Notes = *patch.Notes
		payload["notes"] = next.Notes
	}
	if patch.ManagerIDs != nil {
		ids, err := normalizeUserIDs(db, *patch.ManagerIDs)
		if err != nil {
			return Result[model.Client]{}, err
		}
		if !sameIDs(ids, next.ManagerIDs) {
			next.ManagerIDs = ids
			payload["managerIds"] = ids
		}
	}

	if len(payload) == 0 {
		return Result[model.Client]{Entity: c}, nil
	}
	next.UpdatedAt = time.Now().UTC()
	*c = next
	return Result[model.Client]{Entity: c, Changed: true, EventPayload: payload}, nil
}

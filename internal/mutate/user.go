package mutate

import (
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/perm"
	"sheetdesk/internal/store"
)

type UserPatch struct {
	Name  *string
	Email *string
	Role  *string
}

// CreateUser adds a user. The first user of a workspace is created by anyone and
// is always an admin; later users need an admin actor.
func CreateUser(db *store.DB, actorID, id, name, email, role string) (Result[model.User], error) {
	actorID = strings.TrimSpace(actorID)
	bootstrap := len(db.Users) == 0
	if !bootstrap && !perm.CanCreate(db, actorID) {
		return Result[model.User]{}, PermissionError{ActorID: actorID, Kind: "user"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result[model.User]{}, ErrNameRequired
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return Result[model.User]{}, err
	}
	r, err := store.ParseRole(role)
	if err != nil {
		return Result[model.User]{}, err
	}
	if bootstrap {
		r = model.RoleAdmin
	}
	db.Users = append(db.Users, model.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      r,
		CreatedAt: time.Now().UTC(),
	})
	u := &db.Users[len(db.Users)-1]
	return Result[model.User]{
		Entity:       u,
		Changed:      true,
		EventPayload: map[string]any{"name": u.Name, "role": string(u.Role)},
	}, nil
}

func UpdateUser(db *store.DB, actorID, userID string, patch UserPatch) (Result[model.User], error) {
	userID = strings.TrimSpace(userID)
	u, ok := db.FindUser(userID)
	if !ok {
		return Result[model.User]{}, NotFoundError{Kind: "user", ID: userID}
	}
	if !perm.CanEditUser(db, actorID, u) {
		return Result[model.User]{}, PermissionError{ActorID: strings.TrimSpace(actorID), Kind: "user", ID: userID}
	}

	next := *u
	payload := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Result[model.User]{}, ErrNameRequired
		}
		if name != next.Name {
			next.Name = name
			payload["name"] = name
		}
	}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return Result[model.User]{}, err
		}
		if email != next.Email {
			next.Email = email
			payload["email"] = email
		}
	}
	if patch.Role != nil {
		r, err := store.ParseRole(*patch.Role)
		if err != nil {
			return Result[model.User]{}, err
		}
		if r != next.Role {
			if !perm.CanChangeRole(db, actorID) {
				return Result[model.User]{}, PermissionError{ActorID: strings.TrimSpace(actorID), Kind: "user", ID: userID}
			}
			if next.Role == model.RoleAdmin && adminCount(db) == 1 {
				return Result[model.User]{}, ErrLastAdmin
			}
			payload["role"] = map[string]any{"from": string(next.Role), "to": string(r)}
			next.Role = r
		}
	}

	if len(payload) == 0 {
		return Result[model.User]{Entity: u}, nil
	}
	*u = next
	return Result[model.User]{Entity: u, Changed: true, EventPayload: payload}, nil
}

func adminCount(db *store.DB) int {
	n := 0
	for _, u := range db.Users {
		if u.Role == model.RoleAdmin && !u.Archived {
			n++
		}
	}
	return n
}

package perm

import (
	"strings"

	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

// actor returns the active user behind userID.
func actor(db *store.DB, userID string) (*model.User, bool) {
	if db == nil {
		return nil, false
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false
	}
	u, ok := db.FindUser(userID)
	if !ok || u.Archived {
		return nil, false
	}
	return u, true
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if strings.TrimSpace(x) == id {
			return true
		}
	}
	return false
}

// CanEditTask enforces task edit rules.
//
// Rules:
//   - Admins can edit every task.
//   - Viewers can't edit anything.
//   - Members can edit tasks they own or are assigned to.
func CanEditTask(db *store.DB, userID string, t *model.Task) bool {
	u, ok := actor(db, userID)
	if !ok || t == nil {
		return false
	}
	switch u.Role {
	case model.RoleAdmin:
		return true
	case model.RoleMember:
		return t.OwnerID == u.ID || contains(t.AssigneeIDs, u.ID)
	default:
		return false
	}
}

// CanEditProject lets admins and project members edit a project.
func CanEditProject(db *store.DB, userID string, p *model.Project) bool {
	u, ok := actor(db, userID)
	if !ok || p == nil {
		return false
	}
	switch u.Role {
	case model.RoleAdmin:
		return true
	case model.RoleMember:
		return contains(p.MemberIDs, u.ID)
	default:
		return false
	}
}

// CanEditClient lets admins and the client's managers edit a client.
func CanEditClient(db *store.DB, userID string, c *model.Client) bool {
	u, ok := actor(db, userID)
	if !ok || c == nil {
		return false
	}
	switch u.Role {
	case model.RoleAdmin:
		return true
	case model.RoleMember:
		return contains(c.ManagerIDs, u.ID)
	default:
		return false
	}
}

// CanEditUser lets admins edit anyone and members edit their own profile.
// Role changes are admin-only; see CanChangeRole.
func CanEditUser(db *store.DB, userID string, target *model.User) bool {
	u, ok := actor(db, userID)
	if !ok || target == nil {
		return false
	}
	switch u.Role {
	case model.RoleAdmin:
		return true
	case model.RoleMember:
		return target.ID == u.ID
	default:
		return false
	}
}

func CanChangeRole(db *store.DB, userID string) bool {
	u, ok := actor(db, userID)
	return ok && u.Role == model.RoleAdmin
}

// CanCreate reports whether userID may create top-level records (clients,
// projects, users). Any member may create tasks inside a project they can edit.
func CanCreate(db *store.DB, userID string) bool {
	u, ok := actor(db, userID)
	return ok && u.Role == model.RoleAdmin
}

// CanEdit dispatches on the entity type.
func CanEdit(db *store.DB, userID string, entity any) bool {
	switch e := entity.(type) {
	case *model.Task:
		return CanEditTask(db, userID, e)
	case *model.Project:
		return CanEditProject(db, userID, e)
	case *model.Client:
		return CanEditClient(db, userID, e)
	case *model.User:
		return CanEditUser(db, userID, e)
	default:
		return false
	}
}

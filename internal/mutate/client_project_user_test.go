package mutate

import (
	"errors"
	"testing"

	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

func TestClientLifecycle(t *testing.T) {
	db := testDB()

	if _, err := CreateClient(db, "u-mem", "c2", "Globex"); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected members to be denied client creation, got %v", err)
	}
	res, err := CreateClient(db, "u-admin", "c2", "Globex")
	if err != nil || res.Entity.Name != "Globex" {
		t.Fatalf("CreateClient: %+v (%v)", res.Entity, err)
	}

	_, err = UpdateClient(db, "u-mem", "c1", ClientPatch{ContactEmail: ptr("not an email")})
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	res, err = UpdateClient(db, "u-mem", "c1", ClientPatch{
		ContactEmail: ptr("ops@acme.test"),
		Phone:        ptr(" 555-0100 "),
		ManagerIDs:   &[]string{"u-mem", "u-other"},
	})
	if err != nil || !res.Changed {
		t.Fatalf("UpdateClient: changed=%v err=%v", res.Changed, err)
	}
	c, _ := db.FindClient("c1")
	if c.Phone != "555-0100" || len(c.ManagerIDs) != 2 {
		t.Fatalf("unexpected client: %+v", c)
	}

	if _, err := ArchiveClient(db, "u-view", "c1", true); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if res, err := ArchiveClient(db, "u-other", "c1", true); err != nil || !res.Changed {
		t.Fatalf("expected new manager to archive, got %v", err)
	}
}

func TestProjectLifecycle(t *testing.T) {
	db := testDB()

	res, err := CreateProject(db, "u-mem", "p2", "c1", "Rebrand")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if res.Entity.Status != model.ProjectActive || len(res.Entity.MemberIDs) != 1 || res.Entity.MemberIDs[0] != "u-mem" {
		t.Fatalf("unexpected project: %+v", res.Entity)
	}
	if _, err := CreateProject(db, "u-other", "p3", "c1", "Nope"); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError, got %v", err)
	}

	upd, err := UpdateProject(db, "u-mem", "p2", ProjectPatch{Status: ptr("paused"), Description: ptr("Q3")})
	if err != nil || !upd.Changed || upd.Entity.Status != model.ProjectPaused {
		t.Fatalf("UpdateProject: %+v (%v)", upd.Entity, err)
	}
	if _, err := UpdateProject(db, "u-mem", "p2", ProjectPatch{Status: ptr("frozen")}); !errors.Is(err, store.ErrInvalidProjectStatus) {
		t.Fatalf("expected ErrInvalidProjectStatus, got %v", err)
	}
	if _, err := UpdateProject(db, "u-mem", "p2", ProjectPatch{Name: ptr(" ")}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if res, err := ArchiveProject(db, "u-admin", "p2", true); err != nil || !res.Changed {
		t.Fatalf("ArchiveProject: %v", err)
	}
}

func TestCreateUser_BootstrapIsAdmin(t *testing.T) {
	db := &store.DB{}
	res, err := CreateUser(db, "", "u1", "First", "", "viewer")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if res.Entity.Role != model.RoleAdmin {
		t.Fatalf("expected first user to be admin, got %q", res.Entity.Role)
	}

	if _, err := CreateUser(db, "u-nobody", "u2", "Second", "", "member"); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	res, err = CreateUser(db, "u1", "u2", "Second", "second@example.test", "member")
	if err != nil || res.Entity.Role != model.RoleMember {
		t.Fatalf("CreateUser: %+v (%v)", res.Entity, err)
	}
}

func TestUpdateUser_Roles(t *testing.T) {
	db := testDB()

	if _, err := UpdateUser(db, "u-mem", "u-mem", UserPatch{Name: ptr("Moe")}); err != nil {
		t.Fatalf("expected self edit, got %v", err)
	}
	if _, err := UpdateUser(db, "u-mem", "u-mem", UserPatch{Role: ptr("admin")}); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected members to be denied role changes, got %v", err)
	}
	if _, err := UpdateUser(db, "u-mem", "u-other", UserPatch{Name: ptr("x")}); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError editing others, got %v", err)
	}
	if _, err := UpdateUser(db, "u-admin", "u-admin", UserPatch{Role: ptr("member")}); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
	res, err := UpdateUser(db, "u-admin", "u-view", UserPatch{Role: ptr("member")})
	if err != nil || res.Entity.Role != model.RoleMember {
		t.Fatalf("expected promotion, got %+v (%v)", res.Entity, err)
	}
}

package mutate

import (
	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

func testDB() *store.DB {
	return &store.DB{
		Users: []model.User{
			{ID: "u-admin", Name: "Ada", Role: model.RoleAdmin},
			{ID: "u-mem", Name: "Mo", Role: model.RoleMember},
			{ID: "u-other", Name: "Oz", Role: model.RoleMember},
			{ID: "u-view", Name: "Vi", Role: model.RoleViewer},
		},
		Clients:  []model.Client{{ID: "c1", Name: "Acme", ManagerIDs: []string{"u-mem"}}},
		Projects: []model.Project{{ID: "p1", ClientID: "c1", Name: "Site", Status: model.ProjectActive, MemberIDs: []string{"u-mem"}}},
		Tasks: []model.Task{
			{ID: "t1", ProjectID: "p1", Title: "Wireframes", Status: model.TaskTodo, OwnerID: "u-mem"},
		},
	}
}

func ptr[T any](v T) *T { return &v }

package mutate

import (
	"strings"

	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

// SetTaskAssignees replaces the assignee list. An empty list clears it.
// Callers are responsible for saving db and appending the task.assign event.
func SetTaskAssignees(db *store.DB, actorID, taskID string, userIDs []string) (Result[model.Task], error) {
	if userIDs == nil {
		userIDs = []string{}
	}
	return UpdateTask(db, actorID, taskID, TaskPatch{AssigneeIDs: &userIDs})
}

// AssignTask adds one assignee, keeping the existing ones.
func AssignTask(db *store.DB, actorID, taskID, userID string) (Result[model.Task], error) {
	t, ok := db.FindTask(taskID)
	if !ok {
		return Result[model.Task]{}, NotFoundError{Kind: "task", ID: strings.TrimSpace(taskID)}
	}
	ids := append(append([]string{}, t.AssigneeIDs...), userID)
	return SetTaskAssignees(db, actorID, taskID, ids)
}

// UnassignTask removes one assignee.
func UnassignTask(db *store.DB, actorID, taskID, userID string) (Result[model.Task], error) {
	t, ok := db.FindTask(taskID)
	if !ok {
		return Result[model.Task]{}, NotFoundError{Kind: "task", ID: strings.TrimSpace(taskID)}
	}
	userID = strings.TrimSpace(userID)
	ids := []string{}
	for _, id := range t.AssigneeIDs {
		if id != userID {
			ids = append(ids, id)
		}
	}
	return SetTaskAssignees(db, actorID, taskID, ids)
}

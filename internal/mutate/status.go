package mutate

import (
	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

// SetTaskStatus moves a task to status. Moving to blocked requires a note.
// Callers are responsible for saving db and appending the task.set_status event.
func SetTaskStatus(db *store.DB, actorID, taskID, status string, note *string) (Result[model.Task], error) {
	return UpdateTask(db, actorID, taskID, TaskPatch{Status: &status, StatusNote: note})
}

package mutate

import (
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/perm"
	"sheetdesk/internal/store"
)

// LogTime records minutes against a task on behalf of actorID. Anyone who can
// edit the task can log time on it.
func LogTime(db *store.DB, actorID, id, taskID string, minutes int, note string, at time.Time) (Result[model.TimeLog], error) {
	actorID = strings.TrimSpace(actorID)
	taskID = strings.TrimSpace(taskID)
	t, ok := db.FindTask(taskID)
	if !ok {
		return Result[model.TimeLog]{}, NotFoundError{Kind: "task", ID: taskID}
	}
	if !perm.CanEditTask(db, actorID, t) {
		return Result[model.TimeLog]{}, PermissionError{ActorID: actorID, Kind: "task", ID: taskID}
	}
	if minutes <= 0 {
		return Result[model.TimeLog]{}, ErrInvalidMinutes
	}
	if at.IsZero() {
		at = time.Now()
	}
	db.TimeLogs = append(db.TimeLogs, model.TimeLog{
		ID:       id,
		TaskID:   taskID,
		UserID:   actorID,
		Minutes:  minutes,
		Note:     strings.TrimSpace(note),
		LoggedAt: at.UTC(),
	})
	l := &db.TimeLogs[len(db.TimeLogs)-1]
	return Result[model.TimeLog]{
		Entity:       l,
		Changed:      true,
		EventPayload: map[string]any{"taskId": taskID, "minutes": minutes},
	}, nil
}

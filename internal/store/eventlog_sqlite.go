package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetdesk/internal/model"
)

var ErrEventContract = errors.New("event contract violation")

func formatErrEventContract(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEventContract, fmt.Sprintf(format, args...))
}

type entityKind string

const (
	entityKindUser    entityKind = "user"
	entityKindClient  entityKind = "client"
	entityKindProject entityKind = "project"
	entityKindTask    entityKind = "task"
	entityKindTimeLog entityKind = "timelog"
	entityKindUnknown entityKind = ""
)

func (k entityKind) valid() bool { return k != entityKindUnknown }

// inferEntityKindFromType maps "task.update" to the task kind, and so on.
func inferEntityKindFromType(typ string) entityKind {
	prefix, _, _ := strings.Cut(strings.TrimSpace(typ), ".")
	switch entityKind(prefix) {
	case entityKindUser, entityKindClient, entityKindProject, entityKindTask, entityKindTimeLog:
		return entityKind(prefix)
	default:
		return entityKindUnknown
	}
}

// AppendEvent records one command event. Each entity's events carry a 1-based seq.
func (s Store) AppendEvent(ctx context.Context, actorID, typ, entityID string, payload any) error {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return formatErrEventContract("missing type")
	}
	kind := inferEntityKindFromType(typ)
	if !kind.valid() {
		return formatErrEventContract("invalid entity kind for type %q", typ)
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return formatErrEventContract("missing entity id")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return formatErrEventContract("missing actor id")
	}

	pb, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event payload: %w", err)
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE entity_id = ?`, entityID).Scan(&seq); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(event_id, entity_kind, entity_id, type, actor_id, issued_at_unixms, seq, payload_json)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(kind), entityID, typ, actorID, time.Now().UTC().UnixMilli(), seq, string(pb)); err != nil {
		return err
	}
	return tx.Commit()
}

// ReadEvents returns events oldest first. An empty entityID reads the whole log;
// limit <= 0 means no limit, otherwise the newest limit events are returned.
func (s Store) ReadEvents(ctx context.Context, entityID string, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		where string
		args  []any
	)
	if entityID = strings.TrimSpace(entityID); entityID != "" {
		where = `WHERE entity_id = ?`
		args = append(args, entityID)
	}
	q := `SELECT event_id, issued_at_unixms, actor_id, type, entity_id, payload_json
	      FROM events ` + where + `
	      ORDER BY rowid DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var id, actor, typ, eid, payloadJSON string
		var tsMs int64
		if err := rows.Scan(&id, &tsMs, &actor, &typ, &eid, &payloadJSON); err != nil {
			return nil, err
		}
		var payload any
		_ = json.Unmarshal([]byte(payloadJSON), &payload)
		out = append(out, model.Event{
			ID:       id,
			TS:       time.UnixMilli(tsMs).UTC(),
			ActorID:  actor,
			Type:     typ,
			EntityID: eid,
			Payload:  payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query ran newest first so LIMIT keeps the tail; flip back to oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

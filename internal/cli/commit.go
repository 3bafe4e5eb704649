package cli

import (
	"context"

	"sheetdesk/internal/mutate"
	"sheetdesk/internal/store"
)

// commit persists a mutation and records its event. Unchanged results write
// nothing. A failed event append is logged; the state change already stands.
func commit[T any](ctx context.Context, app *App, s store.Store, db *store.DB, actorID, typ, entityID string, res mutate.Result[T]) error {
	if !res.Changed {
		return nil
	}
	if err := s.Save(ctx, db); err != nil {
		return err
	}
	if err := s.AppendEvent(ctx, actorID, typ, entityID, res.EventPayload); err != nil {
		app.logger().Warn("append event failed", "type", typ, "entity", entityID, "err", err)
		return nil
	}
	app.logger().Debug("committed", "type", typ, "entity", entityID, "actor", actorID)
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// loadSlot decodes a JSON array slot. A missing, unreadable or corrupt slot
// reads as an empty collection.
func loadSlot[T any](ctx context.Context, store Store, key string, logger *slog.Logger) []T {
	data, err := store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSlotNotFound) {
			logger.WarnContext(ctx, "failed to read persisted slot",
				slog.String("slot", key),
				slog.String("error", err.Error()),
			)
		}
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.WarnContext(ctx, "discarding corrupt persisted slot",
			slog.String("slot", key),
			slog.String("error", err.Error()),
		)
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

// saveSlot writes items back to their slot. Failures are logged and do not
// fail the calling operation.
func saveSlot[T any](ctx context.Context, store Store, key string, items []T, logger *slog.Logger) {
	data, err := json.Marshal(items)
	if err == nil {
		err = store.Save(ctx, key, data)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to persist slot",
			slog.String("slot", key),
			slog.String("error", err.Error()),
		)
	}
}

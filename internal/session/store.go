// Package session holds per-user search state and its durable collections:
// saved searches and search history.
package session

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by a Store when a slot has never been written.
var ErrSlotNotFound = errors.New("session: slot not found")

const (
	historyPrefix = "search:history:"
	savedPrefix   = "search:saved-searches:"
)

// Store persists named slots holding JSON documents.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// HistoryKey returns the slot name of an owner's search history.
func HistoryKey(owner string) string { return historyPrefix + owner }

// SavedSearchesKey returns the slot name of an owner's saved searches.
func SavedSearchesKey(owner string) string { return savedPrefix + owner }

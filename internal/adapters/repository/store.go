// Package repository persists captured events and reads back per-game pools.
package repository

import (
	"context"

	"github.com/okian/rinkline/internal/domain/model"
)

// Store provides read/write access to the event pool.
type Store interface {
	// Save inserts the event, or replaces the stored copy when the key exists.
	// A replaced event keeps its original arrival position.
	Save(ctx context.Context, ev model.Event) error

	// Get returns the event stored under key.
	// Returns ErrNotFound if the key is unknown.
	Get(ctx context.Context, key string) (model.Event, error)

	// ListGame returns at most limit events of a game in arrival order.
	ListGame(ctx context.Context, gameID string, limit int) ([]model.Event, error)

	// Games lists the known game ids, sorted.
	Games(ctx context.Context) ([]string, error)

	// Count returns the number of stored events.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying database.
	Close() error
}

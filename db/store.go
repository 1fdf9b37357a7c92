// Package db provides persistent storage for slab catalogs.
// Catalogs are stored as immutable snapshots; exactly one is active.
package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"slab-pricing/core/types"
)

// CatalogSnapshot is one imported version of the slab catalog
type CatalogSnapshot struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	Hash      string    `json:"hash"`
	SlabCount int       `json:"slab_count"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// SlabStore persists catalog snapshots
type SlabStore interface {
	// CreateSnapshot writes the snapshot and its slabs atomically
	CreateSnapshot(ctx context.Context, snap *CatalogSnapshot, slabs []types.Slab) error

	// FindSnapshotByHash returns nil, nil when no snapshot matches
	FindSnapshotByHash(ctx context.Context, hash string) (*CatalogSnapshot, error)

	// ActivateSnapshot makes id the only active snapshot
	ActivateSnapshot(ctx context.Context, id uuid.UUID) error

	// GetActiveSnapshot returns nil, nil when nothing is active
	GetActiveSnapshot(ctx context.Context) (*CatalogSnapshot, error)

	// ListSnapshots returns snapshots newest first
	ListSnapshots(ctx context.Context) ([]*CatalogSnapshot, error)

	// LoadSlabs returns a snapshot's slabs in stored order
	LoadSlabs(ctx context.Context, snapshotID uuid.UUID) ([]types.Slab, error)

	// Close releases the connection
	Close() error
}

package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slab-pricing/core/catalog"
	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
	"slab-pricing/internal/logging"
)

// ImportResult describes the outcome of an import
type ImportResult struct {
	Snapshot  *CatalogSnapshot `json:"snapshot"`
	Issues    []catalog.Issue  `json:"issues,omitempty"`
	Reused    bool             `json:"reused"`
	Activated bool             `json:"activated"`
}

// Importer validates a catalog and stores it as a snapshot
type Importer struct {
	store       SlabStore
	rules       []catalog.ValidationRule
	allowErrors bool
}

// NewImporter creates an importer using the default validation rules
func NewImporter(store SlabStore) *Importer {
	return &Importer{
		store: store,
		rules: catalog.DefaultValidationRules(),
	}
}

// AllowErrors stores catalogs even when validation reports errors
func (im *Importer) AllowErrors(allow bool) *Importer {
	im.allowErrors = allow
	return im
}

// Import validates, dedupes by content hash, stores and optionally
// activates the catalog. An identical catalog is never stored twice.
func (im *Importer) Import(ctx context.Context, source string, c *catalog.Catalog, activate bool) (*ImportResult, error) {
	issues := c.Validate(im.rules)
	if catalog.HasErrors(issues) && !im.allowErrors {
		return &ImportResult{Issues: issues}, errors.Newf(errors.TypeInput,
			"catalog has validation errors (%d issues)", len(issues))
	}

	slabs := c.Slabs()
	hash := ContentHash(slabs)
	result := &ImportResult{Issues: issues}

	existing, err := im.store.FindSnapshotByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing snapshot: %w", err)
	}

	if existing != nil {
		result.Snapshot = existing
		result.Reused = true
	} else {
		snap := &CatalogSnapshot{
			ID:        uuid.New(),
			Source:    source,
			Hash:      hash,
			SlabCount: len(slabs),
			CreatedAt: time.Now().UTC(),
		}
		if err := im.store.CreateSnapshot(ctx, snap, slabs); err != nil {
			return nil, fmt.Errorf("failed to create snapshot: %w", err)
		}
		result.Snapshot = snap
	}

	if activate && !result.Snapshot.IsActive {
		if err := im.store.ActivateSnapshot(ctx, result.Snapshot.ID); err != nil {
			return nil, fmt.Errorf("failed to activate snapshot: %w", err)
		}
		result.Snapshot.IsActive = true
		result.Activated = true
	}

	logging.Info("Imported slab catalog",
		zap.String("snapshot", result.Snapshot.ID.String()),
		zap.String("source", source),
		zap.Int("slabs", len(slabs)),
		zap.Bool("reused", result.Reused),
		zap.Bool("activated", result.Activated),
	)
	return result, nil
}

// ContentHash computes a deterministic hash of the slabs.
// Order of the input does not matter.
func ContentHash(slabs []types.Slab) string {
	lines := make([]string, 0, len(slabs))
	for _, s := range slabs {
		lines = append(lines, fmt.Sprintf("%s|%s|%d|%d|%s|%s|%d",
			s.ID, s.Name, s.MinUsers, s.MaxUsers,
			s.MonthlyPrice.String(), s.YearlyPrice.String(),
			s.FreeExternalUsersPerInternalUser,
		))
	}
	sort.Strings(lines)

	hasher := sha256.New()
	for _, l := range lines {
		hasher.Write([]byte(l))
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// CatalogSource serves the active snapshot as a catalog.Source
type CatalogSource struct {
	store SlabStore
}

// NewCatalogSource wraps a store
func NewCatalogSource(store SlabStore) *CatalogSource {
	return &CatalogSource{store: store}
}

// Name returns the source name
func (s *CatalogSource) Name() string {
	return "postgres"
}

// Load reads the active snapshot's slabs
func (s *CatalogSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	snap, err := s.store.GetActiveSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.NotFound("active catalog snapshot", "postgres")
	}

	slabs, err := s.store.LoadSlabs(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	return catalog.New(slabs), nil
}

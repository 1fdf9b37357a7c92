package db

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slab-pricing/core/catalog"
	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
)

// memStore is an in-memory SlabStore for tests
type memStore struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]*CatalogSnapshot
	slabs     map[uuid.UUID][]types.Slab
	creates   int
}

func newMemStore() *memStore {
	return &memStore{
		snapshots: make(map[uuid.UUID]*CatalogSnapshot),
		slabs:     make(map[uuid.UUID][]types.Slab),
	}
}

func (m *memStore) CreateSnapshot(ctx context.Context, snap *CatalogSnapshot, slabs []types.Slab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.ID] = snap
	m.slabs[snap.ID] = append([]types.Slab(nil), slabs...)
	m.creates++
	return nil
}

func (m *memStore) FindSnapshotByHash(ctx context.Context, hash string) (*CatalogSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snapshots {
		if s.Hash == hash {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStore) ActivateSnapshot(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[id]; !ok {
		return errors.NotFound("catalog snapshot", id.String())
	}
	for sid, s := range m.snapshots {
		s.IsActive = sid == id
	}
	return nil
}

func (m *memStore) GetActiveSnapshot(ctx context.Context) (*CatalogSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snapshots {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListSnapshots(ctx context.Context) ([]*CatalogSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*CatalogSnapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) LoadSlabs(ctx context.Context, id uuid.UUID) ([]types.Slab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Slab(nil), m.slabs[id]...), nil
}

func (m *memStore) Close() error { return nil }

func testCatalog() *catalog.Catalog {
	return catalog.New([]types.Slab{
		{ID: "starter", Name: "Starter", MinUsers: 1, MaxUsers: 5, MonthlyPrice: decimal.NewFromInt(100)},
		{ID: "growth", Name: "Growth", MinUsers: 6, MaxUsers: 20, MonthlyPrice: decimal.NewFromInt(80)},
	})
}

func TestContentHashIgnoresOrder(t *testing.T) {
	slabs := testCatalog().Slabs()
	reversed := []types.Slab{slabs[1], slabs[0]}
	assert.Equal(t, ContentHash(slabs), ContentHash(reversed))

	slabs[0].MonthlyPrice = decimal.NewFromInt(101)
	assert.NotEqual(t, ContentHash(slabs), ContentHash(reversed))
}

func TestImportDedupesAndActivates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	im := NewImporter(store)

	first, err := im.Import(ctx, "slabs.json", testCatalog(), true)
	require.NoError(t, err)
	assert.False(t, first.Reused)
	assert.True(t, first.Activated)
	assert.Equal(t, 2, first.Snapshot.SlabCount)

	second, err := im.Import(ctx, "slabs.json", testCatalog(), true)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.False(t, second.Activated, "already active")
	assert.Equal(t, first.Snapshot.ID, second.Snapshot.ID)
	assert.Equal(t, 1, store.creates)

	c, err := NewCatalogSource(store).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestImportRejectsInvalidCatalog(t *testing.T) {
	bad := catalog.New([]types.Slab{{ID: "x", MinUsers: 9, MaxUsers: 3}})
	store := newMemStore()

	result, err := NewImporter(store).Import(context.Background(), "bad.json", bad, false)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))
	assert.NotEmpty(t, result.Issues)
	assert.Zero(t, store.creates)

	_, err = NewImporter(store).AllowErrors(true).Import(context.Background(), "bad.json", bad, false)
	require.NoError(t, err)
	assert.Equal(t, 1, store.creates)
}

func TestSlabSchemaKeepsFullPrecision(t *testing.T) {
	data, err := migrations.ReadFile("migrations/00001_create_slab_catalog.sql")
	require.NoError(t, err)
	schema := string(data)

	// a scale-limited NUMERIC would round prices and break ContentHash on reload
	assert.NotContains(t, schema, "NUMERIC(")
	assert.Contains(t, schema, "monthly_price NUMERIC NOT NULL")
	assert.Contains(t, schema, "max_users     BIGINT")
}

func TestCatalogSourceWithoutActiveSnapshot(t *testing.T) {
	_, err := NewCatalogSource(newMemStore()).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

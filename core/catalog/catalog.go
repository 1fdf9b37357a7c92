// Package catalog - Slab catalog
// Holds the typed slabs a calculator prices against.
// Catalogs are read-only once built.
package catalog

import (
	"sort"

	"slab-pricing/core/types"
)

// Catalog is an immutable, MinUsers-ordered set of slabs
type Catalog struct {
	slabs []types.Slab
	byID  map[string]int
}

// New builds a catalog from slabs. The input slice is copied.
// Duplicate IDs are kept; Get returns the first in sort order.
func New(slabs []types.Slab) *Catalog {
	sorted := make([]types.Slab, len(slabs))
	copy(sorted, slabs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinUsers < sorted[j].MinUsers
	})

	byID := make(map[string]int, len(sorted))
	for i, s := range sorted {
		if _, exists := byID[s.ID]; !exists {
			byID[s.ID] = i
		}
	}

	return &Catalog{slabs: sorted, byID: byID}
}

// Slabs returns a copy of the ordered slabs
func (c *Catalog) Slabs() []types.Slab {
	out := make([]types.Slab, len(c.slabs))
	copy(out, c.slabs)
	return out
}

// Len returns the number of slabs
func (c *Catalog) Len() int {
	return len(c.slabs)
}

// IsEmpty reports whether the catalog has no slabs
func (c *Catalog) IsEmpty() bool {
	return len(c.slabs) == 0
}

// Get returns a slab by ID
func (c *Catalog) Get(id string) (types.Slab, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.Slab{}, false
	}
	return c.slabs[i], true
}

// Top returns the slab with the highest MinUsers
func (c *Catalog) Top() (types.Slab, bool) {
	if len(c.slabs) == 0 {
		return types.Slab{}, false
	}
	return c.slabs[len(c.slabs)-1], true
}

// Find returns the first slab whose range contains userCount
func (c *Catalog) Find(userCount int) (types.Slab, bool) {
	for _, s := range c.slabs {
		if s.Contains(userCount) {
			return s, true
		}
	}
	return types.Slab{}, false
}

// MaxUsers returns the largest MaxUsers across the catalog
func (c *Catalog) MaxUsers() int {
	max := 0
	for _, s := range c.slabs {
		if s.MaxUsers > max {
			max = s.MaxUsers
		}
	}
	return max
}

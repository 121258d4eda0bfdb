// Package catalog holds the in-memory product collection that every query
// reads from.
package catalog

import (
	"sync"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// Catalog is an ordered, read-mostly product collection. Insertion order is
// the catalog order that stable sorts preserve. Every mutation bumps the
// generation so derived data can be memoized per generation.
type Catalog struct {
	mu         sync.RWMutex
	products   []domain.Product
	index      map[string]int
	generation uint64
}

// New creates a catalog seeded with products.
func New(products ...domain.Product) *Catalog {
	c := &Catalog{index: make(map[string]int)}
	c.replaceLocked(products)
	return c
}

// Snapshot returns a copy of the products and the generation it reflects.
// Callers may reorder the returned slice freely.
func (c *Catalog) Snapshot() ([]domain.Product, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, c.generation
}

// Generation returns the current generation.
func (c *Catalog) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// Replace swaps in a new product list.
func (c *Catalog) Replace(products []domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceLocked(products)
}

// Reload swaps in a freshly loaded product list. Products that survive the
// swap keep the higher of their current and loaded like counters, since
// confirmed likes can be newer than the source.
func (c *Catalog) Reload(products []domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := make([]domain.Product, len(products))
	for i, p := range products {
		if j, ok := c.index[p.ID]; ok {
			p.Likes = max(p.Likes, c.products[j].Likes)
		}
		merged[i] = p
	}
	c.replaceLocked(merged)
}

func (c *Catalog) replaceLocked(products []domain.Product) {
	c.products = make([]domain.Product, 0, len(products))
	c.index = make(map[string]int, len(products))
	for i := range products {
		c.upsertLocked(products[i])
	}
	c.generation++
}

// Upsert appends new products and replaces existing ones in place. It
// returns how many were newly inserted.
func (c *Catalog) Upsert(products ...domain.Product) (inserted int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range products {
		if c.upsertLocked(products[i]) {
			inserted++
		}
	}
	c.generation++
	return inserted
}

func (c *Catalog) upsertLocked(p domain.Product) bool {
	p.Normalize()
	if i, ok := c.index[p.ID]; ok {
		c.products[i] = p
		return false
	}
	c.index[p.ID] = len(c.products)
	c.products = append(c.products, p)
	return true
}

// Delete removes the product with the given id, preserving the order of the
// remaining products.
func (c *Catalog) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.products = append(c.products[:i], c.products[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.products); j++ {
		c.index[c.products[j].ID] = j
	}
	c.generation++
	return true
}

// Likes returns the like counter of a product.
func (c *Catalog) Likes(id string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return 0, false
	}
	return c.products[i].Likes, true
}

// SetLikes overwrites the like counter of a product. Like counts are not
// filterable, so the generation is left unchanged.
func (c *Catalog) SetLikes(id string, likes int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.products[i].Likes = likes
	return true
}

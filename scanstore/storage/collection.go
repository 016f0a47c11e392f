package storage

import "github.com/arthur-debert/scanstore/types"

// Collection is an insertion-ordered set of scans keyed by path
type Collection struct {
	order  []string
	byPath map[string]*types.Scan
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{byPath: make(map[string]*types.Scan)}
}

// Len returns the number of scans
func (c *Collection) Len() int {
	return len(c.order)
}

// Paths returns scan paths in insertion order
func (c *Collection) Paths() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Get returns the stored scan for path. The pointer is owned by the collection.
func (c *Collection) Get(path string) (*types.Scan, bool) {
	s, ok := c.byPath[path]
	return s, ok
}

// Put inserts or replaces a scan. New paths are appended.
func (c *Collection) Put(scan types.Scan) {
	if _, exists := c.byPath[scan.Path]; !exists {
		c.order = append(c.order, scan.Path)
	}
	s := scan
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	c.byPath[scan.Path] = &s
}

// Delete removes a scan, reporting whether it was present
func (c *Collection) Delete(path string) bool {
	if _, ok := c.byPath[path]; !ok {
		return false
	}
	delete(c.byPath, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Scans returns copies of every scan in insertion order
func (c *Collection) Scans() []types.Scan {
	out := make([]types.Scan, 0, len(c.order))
	for _, p := range c.order {
		out = append(out, c.byPath[p].Clone())
	}
	return out
}

// Each calls fn for every scan in insertion order, stopping when fn returns false
func (c *Collection) Each(fn func(*types.Scan) bool) {
	for _, p := range c.order {
		if !fn(c.byPath[p]) {
			return
		}
	}
}

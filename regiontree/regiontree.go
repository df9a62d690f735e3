// Package regiontree indexes multipolygons for point-containment queries.
// A quadtree over polygon bounds prefilters candidates before the exact
// planar test, which keeps per-cell rasterization queries cheap.
package regiontree

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/qtree"
)

type Tree struct {
	mu      sync.RWMutex
	regions []orb.MultiPolygon
	qt      qtree.QTree
}

func New() *Tree {
	return &Tree{}
}

func (t *Tree) Insert(region orb.MultiPolygon) {
	bound := region.Bound()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.qt.Insert(bound.Min, bound.Max, len(t.regions))
	t.regions = append(t.regions, region)
}

func (t *Tree) InsertPolygon(p orb.Polygon) {
	t.Insert(orb.MultiPolygon{p})
}

// Contains reports whether the point lies inside any inserted region.
func (t *Tree) Contains(point orb.Point) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	found := false
	t.qt.Search(point, point, func(_, _ [2]float64, data interface{}) bool {
		if planar.MultiPolygonContains(t.regions[data.(int)], point) {
			found = true
			return false
		}
		return true
	})
	return found
}

func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.regions)
}

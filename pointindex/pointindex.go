// Package pointindex is a static KD-tree over 2D points, built once from the
// placed samples of a run and queried for neighbors within a radius.
package pointindex

import (
	"math"
	"sort"
)

type Point struct {
	X, Y float64
	// Ref is a caller-side handle, typically the sample index in the run.
	Ref int
}

// Index stores points in kd order over a flat slice: every subrange is
// partitioned around its middle element on alternating axes.
type Index struct {
	pts []Point
}

func New(points []Point) *Index {
	pts := make([]Point, len(points))
	copy(pts, points)
	ix := &Index{pts: pts}
	ix.build(0, len(pts)-1, 0)
	return ix
}

func (ix *Index) Len() int {
	return len(ix.pts)
}

func (ix *Index) build(lo, hi, axis int) {
	if lo >= hi {
		return
	}
	seg := ix.pts[lo : hi+1]
	if axis == 0 {
		sort.Slice(seg, func(i, j int) bool { return seg[i].X < seg[j].X })
	} else {
		sort.Slice(seg, func(i, j int) bool { return seg[i].Y < seg[j].Y })
	}
	mid := (lo + hi) / 2
	ix.build(lo, mid-1, 1-axis)
	ix.build(mid+1, hi, 1-axis)
}

// Within calls iter for every point within radius of (x, y), stopping early
// when iter returns false. Order of visits is tree order, not distance order.
func (ix *Index) Within(x, y, radius float64, iter func(Point) bool) {
	if len(ix.pts) == 0 || radius < 0 {
		return
	}
	ix.within(0, len(ix.pts)-1, 0, x, y, radius, iter)
}

func (ix *Index) within(lo, hi, axis int, x, y, radius float64, iter func(Point) bool) bool {
	if lo > hi {
		return true
	}
	mid := (lo + hi) / 2
	p := ix.pts[mid]

	dx := p.X - x
	dy := p.Y - y
	if dx*dx+dy*dy <= radius*radius {
		if !iter(p) {
			return false
		}
	}

	// signed distance from the query to the splitting plane
	d := dx
	if axis == 1 {
		d = dy
	}
	if d >= -radius {
		if !ix.within(lo, mid-1, 1-axis, x, y, radius, iter) {
			return false
		}
	}
	if d <= radius {
		if !ix.within(mid+1, hi, 1-axis, x, y, radius, iter) {
			return false
		}
	}
	return true
}

// Nearest returns the closest point within maxDist of (x, y).
func (ix *Index) Nearest(x, y, maxDist float64) (Point, bool) {
	best := Point{}
	bestDist := math.Inf(1)
	ix.Within(x, y, maxDist, func(p Point) bool {
		dx := p.X - x
		dy := p.Y - y
		if d := dx*dx + dy*dy; d < bestDist {
			best = p
			bestDist = d
		}
		return true
	})
	return best, !math.IsInf(bestDist, 1)
}

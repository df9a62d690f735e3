package mask

import (
	"math/rand"

	"github.com/fogleman/poissondisc"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ScatterPoints fills the boundary with blue-noise points at least spacing
// apart, the minimum-distance baseline mode that ignores the positive-sample
// size distribution. k is the poisson-disc candidate count per point.
func ScatterPoints(boundary orb.MultiPolygon, spacing float64, k int, rng *rand.Rand) []orb.Point {
	bound := boundary.Bound()
	points := poissondisc.Sample(bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), spacing, k, rng)

	inside := make([]orb.Point, 0, len(points))
	for _, p := range points {
		point := orb.Point{p.X, p.Y}
		if planar.MultiPolygonContains(boundary, point) {
			inside = append(inside, point)
		}
	}
	return inside
}

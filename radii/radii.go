// Package radii turns observed landslide areas into simulated disk radii: the
// empirical area distribution is inverted per draw, and each simulated area is
// converted to the radius of the equal-area circle.
package radii

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat"
)

var ErrNoAreas = errors.New("radii: no observed areas")

// Empirical is the distribution of observed positive-sample areas.
type Empirical struct {
	areas []float64 // sorted ascending
}

func FromAreas(areas []float64) (*Empirical, error) {
	if len(areas) == 0 {
		return nil, ErrNoAreas
	}
	sorted := make([]float64, 0, len(areas))
	for i, a := range areas {
		if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("radii: area %d is not a positive real: %g", i, a)
		}
		sorted = append(sorted, a)
	}
	sort.Float64s(sorted)
	return &Empirical{areas: sorted}, nil
}

// AreasOf computes planar polygon areas, orientation-insensitive.
func AreasOf(polys []orb.Polygon) []float64 {
	areas := make([]float64, len(polys))
	for i, p := range polys {
		areas[i] = math.Abs(planar.Area(p))
	}
	return areas
}

func (e *Empirical) Len() int {
	return len(e.areas)
}

// SampleAreas draws n areas by inverting the empirical CDF with linear
// interpolation between order statistics.
func (e *Empirical) SampleAreas(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = stat.Quantile(rng.Float64(), stat.LinInterp, e.areas, nil)
	}
	return out
}

// SampleRadii draws n radii of equal-area circles from the area distribution.
func (e *Empirical) SampleRadii(rng *rand.Rand, n int) []float64 {
	out := e.SampleAreas(rng, n)
	for i, a := range out {
		out[i] = RadiusOfArea(a)
	}
	return out
}

func (e *Empirical) Quartiles() (q1, q2, q3 float64) {
	q1 = stat.Quantile(0.25, stat.LinInterp, e.areas, nil)
	q2 = stat.Quantile(0.50, stat.LinInterp, e.areas, nil)
	q3 = stat.Quantile(0.75, stat.LinInterp, e.areas, nil)
	return q1, q2, q3
}

func (e *Empirical) Min() float64 {
	return e.areas[0]
}

func (e *Empirical) Max() float64 {
	return e.areas[len(e.areas)-1]
}

// RadiusOfArea is the radius of the circle with the given area.
func RadiusOfArea(area float64) float64 {
	return math.Sqrt(area / math.Pi)
}

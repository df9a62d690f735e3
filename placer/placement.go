package placer

import (
	"errors"
	"fmt"
	"math"

	"github.com/terralab/negsample/grid"
)

var (
	// ErrEmptyInterior means the radius leaves no cell where the disk would
	// fit inside the grid at all. Surfaced immediately, never retried.
	ErrEmptyInterior = errors.New("placer: no valid interior for radius")

	// ErrPlacementExhausted means the interior existed but the attempt budget
	// ran out before a free, non-colliding center was found.
	ErrPlacementExhausted = errors.New("placer: attempt budget exhausted")
)

// Request asks for one disk of RadiusWorld (CRS linear units) to be placed.
type Request struct {
	RadiusWorld float64
	RadiusCells int
}

// RequestsFromRadii converts world radii to requests against the grid's
// resolution, radius_cells = ceil(radius_world / cell_size_x). Order is
// preserved; the engine re-sorts on its own.
func RequestsFromRadii(g *grid.Grid, radiiWorld []float64) ([]Request, error) {
	reqs := make([]Request, 0, len(radiiWorld))
	for i, r := range radiiWorld {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("placer: radius %d is not a positive real: %g", i, r)
		}
		reqs = append(reqs, Request{
			RadiusWorld: r,
			RadiusCells: int(math.Ceil(r / math.Abs(g.CellSizeX))),
		})
	}
	return reqs, nil
}

// Placement is the committed center cell of one disk. Immutable once created.
type Placement struct {
	RadiusWorld float64
	RadiusCells int
	Row         int
	Col         int
}

// Outcome records how one request ended: a Placement, or the typed failure.
type Outcome struct {
	Request   Request
	Placement Placement
	Err       error
}

func (o Outcome) Placed() bool {
	return o.Err == nil
}

// Result is the ordered output of one engine run, one outcome per request in
// processing order (descending radius, stable on ties).
type Result struct {
	Outcomes []Outcome
}

func (r *Result) Placements() []Placement {
	out := make([]Placement, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Placed() {
			out = append(out, o.Placement)
		}
	}
	return out
}

func (r *Result) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Placed() {
			n++
		}
	}
	return n
}

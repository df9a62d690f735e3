package server

import (
	"github.com/terralab/negsample/pointindex"
	"github.com/terralab/negsample/runfile"
)

// SampleInfo is the wire form of one generated negative sample.
type SampleInfo struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Row        int32   `json:"row"`
	Col        int32   `json:"col"`
	DistanceSq float64 `json:"distance_sq"`
}

// Query answers nearest-sample lookups over the placed samples of one run.
type Query struct {
	samples      []runfile.Sample
	idx          *pointindex.Index
	searchRadius float64
}

// DefaultSearchRadius bounds how far a lookup wanders from the query point,
// in CRS linear units.
const DefaultSearchRadius = 5000.0

func NewQuery(run runfile.Run, searchRadius float64) *Query {
	if searchRadius <= 0 {
		searchRadius = DefaultSearchRadius
	}

	samples := run.Placed()
	points := make([]pointindex.Point, len(samples))
	for i, s := range samples {
		points[i] = pointindex.Point{X: s.X, Y: s.Y, Ref: i}
	}

	return &Query{
		samples:      samples,
		idx:          pointindex.New(points),
		searchRadius: searchRadius,
	}
}

func (q *Query) Len() int {
	return len(q.samples)
}

// Nearest returns the closest placed sample within the search radius.
func (q *Query) Nearest(x, y float64) (SampleInfo, bool) {
	p, ok := q.idx.Nearest(x, y, q.searchRadius)
	if !ok {
		return SampleInfo{}, false
	}

	s := q.samples[p.Ref]
	dx := s.X - x
	dy := s.Y - y
	return SampleInfo{
		X:          s.X,
		Y:          s.Y,
		Radius:     s.RadiusWorld,
		Row:        s.Row,
		Col:        s.Col,
		DistanceSq: dx*dx + dy*dy,
	}, true
}

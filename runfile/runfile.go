// Package runfile persists a completed generation run: the grid frame, the
// final occupancy snapshot and one record per processed radius request.
package runfile

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/terralab/negsample/grid"
	"github.com/terralab/negsample/placer"
)

// file layout: magic, format version, then a zstd stream of fixed-width
// little-endian records
var magicBytes = []byte("NEGS")

const formatVersion uint32 = 1

type Status uint8

const (
	StatusPlaced Status = iota
	StatusEmptyInterior
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusPlaced:
		return "placed"
	case StatusEmptyInterior:
		return "empty-interior"
	case StatusExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Sample is one processed request. X/Y are the world coordinates of the
// committed center, meaningful only when Status is StatusPlaced.
type Sample struct {
	X           float64
	Y           float64
	RadiusWorld float64
	RadiusCells int32
	Row         int32
	Col         int32
	Status      Status
}

type Run struct {
	ID        uuid.UUID
	CreatedAt time.Time

	Width     int32
	Height    int32
	OriginX   float64
	OriginY   float64
	CellSizeX float64
	CellSizeY float64

	// MaskHash fingerprints the forbidden mask the run started from,
	// zero when the caller did not record it.
	MaskHash uint64

	Samples []Sample

	// Cells is the final occupancy snapshot, empty when not stored.
	Cells []byte
}

// FromResult assembles a Run from an engine result over its grid.
func FromResult(g *grid.Grid, res *placer.Result, includeGrid bool) Run {
	run := Run{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Width:     int32(g.Width),
		Height:    int32(g.Height),
		OriginX:   g.OriginX,
		OriginY:   g.OriginY,
		CellSizeX: g.CellSizeX,
		CellSizeY: g.CellSizeY,
		Samples:   make([]Sample, 0, len(res.Outcomes)),
	}

	for _, o := range res.Outcomes {
		s := Sample{
			RadiusWorld: o.Request.RadiusWorld,
			RadiusCells: int32(o.Request.RadiusCells),
		}
		switch {
		case o.Placed():
			s.Status = StatusPlaced
			s.Row = int32(o.Placement.Row)
			s.Col = int32(o.Placement.Col)
			s.X, s.Y = g.WorldXY(o.Placement.Row, o.Placement.Col)
		case errors.Is(o.Err, placer.ErrEmptyInterior):
			s.Status = StatusEmptyInterior
		default:
			s.Status = StatusExhausted
		}
		run.Samples = append(run.Samples, s)
	}

	if includeGrid {
		run.Cells = make([]byte, len(g.Bytes()))
		copy(run.Cells, g.Bytes())
	}

	return run
}

// Grid rebuilds the occupancy grid from the stored frame and snapshot.
func (r Run) Grid() (*grid.Grid, error) {
	if len(r.Cells) == 0 {
		return nil, errors.New("runfile: no grid snapshot stored")
	}
	g, err := grid.New(int(r.Width), int(r.Height), r.OriginX, r.OriginY, r.CellSizeX, r.CellSizeY)
	if err != nil {
		return nil, err
	}
	cells := make([]byte, len(r.Cells))
	copy(cells, r.Cells)
	if err := g.SetBytes(cells); err != nil {
		return nil, err
	}
	return g, nil
}

func (r Run) Placed() []Sample {
	out := make([]Sample, 0, len(r.Samples))
	for _, s := range r.Samples {
		if s.Status == StatusPlaced {
			out = append(out, s)
		}
	}
	return out
}

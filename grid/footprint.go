package grid

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Offset is a cell position relative to a footprint center.
type Offset struct {
	DR int
	DC int
}

// Footprint is the set of cells within Radius of a center cell, boundary
// inclusive (a filled disk, dr²+dc² ≤ r²). Radius 0 is the single center cell.
type Footprint struct {
	Radius  int
	Offsets []Offset
}

var footprints = xsync.NewMapOf[int, Footprint]()

// Disk returns the footprint for an integer cell radius. Footprints are
// immutable and cached, the same radius recurs across requests and retries.
func Disk(radius int) Footprint {
	if radius < 0 {
		radius = 0
	}
	if fp, ok := footprints.Load(radius); ok {
		return fp
	}

	rr := radius * radius
	offsets := make([]Offset, 0, (2*radius+1)*(2*radius+1))
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if dr*dr+dc*dc <= rr {
				offsets = append(offsets, Offset{DR: dr, DC: dc})
			}
		}
	}

	fp := Footprint{Radius: radius, Offsets: offsets}
	fp, _ = footprints.LoadOrStore(radius, fp)
	return fp
}

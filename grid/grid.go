package grid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
)

var ErrOutOfBounds = errors.New("grid: index out of bounds")

const (
	Free     byte = 0
	Occupied byte = 1
)

// Grid is a bounded occupancy raster in a linear (UTM-like) CRS.
// OriginX/OriginY are the world coordinates of the top-left cell corner,
// CellSizeY is negative for north-up rasters.
type Grid struct {
	Width  int
	Height int

	OriginX   float64
	OriginY   float64
	CellSizeX float64
	CellSizeY float64

	cells []byte
}

func New(width, height int, originX, originY, cellSizeX, cellSizeY float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid: invalid dimensions %dx%d", width, height)
	}
	if cellSizeX == 0 || cellSizeY == 0 {
		return nil, fmt.Errorf("grid: zero cell size %gx%g", cellSizeX, cellSizeY)
	}

	return &Grid{
		Width:     width,
		Height:    height,
		OriginX:   originX,
		OriginY:   originY,
		CellSizeX: cellSizeX,
		CellSizeY: cellSizeY,
		cells:     make([]byte, width*height),
	}, nil
}

func (g *Grid) At(row, col int) (byte, error) {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfBounds, row, col, g.Height, g.Width)
	}
	return g.cells[row*g.Width+col], nil
}

// IsFreeRegion reports whether the full footprint centered at (row, col) lies
// inside the grid and covers only free cells.
func (g *Grid) IsFreeRegion(row, col int, fp Footprint) bool {
	for _, o := range fp.Offsets {
		r := row + o.DR
		c := col + o.DC
		if r < 0 || r >= g.Height || c < 0 || c >= g.Width {
			return false
		}
		if g.cells[r*g.Width+c] != Free {
			return false
		}
	}
	return true
}

// Stamp marks every cell covered by the footprint as occupied. The caller must
// have confirmed the region with IsFreeRegion for the same footprint; indices
// are not re-validated on this path.
func (g *Grid) Stamp(row, col int, fp Footprint) {
	for _, o := range fp.Offsets {
		g.cells[(row+o.DR)*g.Width+col+o.DC] = Occupied
	}
}

// StampClipped stamps the in-bounds part of the footprint, silently skipping
// offsets that leave the grid. Used by the mask builder when dilating positive
// cells near the raster edge.
func (g *Grid) StampClipped(row, col int, fp Footprint) {
	for _, o := range fp.Offsets {
		r := row + o.DR
		c := col + o.DC
		if r < 0 || r >= g.Height || c < 0 || c >= g.Width {
			continue
		}
		g.cells[r*g.Width+c] = Occupied
	}
}

// Occupy marks a single cell.
func (g *Grid) Occupy(row, col int) error {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfBounds, row, col, g.Height, g.Width)
	}
	g.cells[row*g.Width+col] = Occupied
	return nil
}

func (g *Grid) OccupiedCount() int {
	n := 0
	for _, c := range g.cells {
		if c != Free {
			n++
		}
	}
	return n
}

func (g *Grid) FreeCount() int {
	return g.Width*g.Height - g.OccupiedCount()
}

// WorldXY maps a cell index to the world coordinates of the cell center.
func (g *Grid) WorldXY(row, col int) (x, y float64) {
	x = g.OriginX + float64(col)*g.CellSizeX + g.CellSizeX/2
	y = g.OriginY + float64(row)*g.CellSizeY + g.CellSizeY/2
	return x, y
}

// CellAt inverts WorldXY: the cell whose extent contains the world point.
// The quotient is floored, not truncated, so points just outside the origin
// edge map to index -1 and fail the bounds check.
func (g *Grid) CellAt(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor((x - g.OriginX) / g.CellSizeX))
	row = int(math.Floor((y - g.OriginY) / g.CellSizeY))
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return 0, 0, false
	}
	return row, col, true
}

// Bytes exposes the row-major backing storage. Mutating it bypasses the
// occupancy invariants; intended for serialization only.
func (g *Grid) Bytes() []byte {
	return g.cells
}

// SetBytes replaces the backing storage, used when restoring a saved run.
func (g *Grid) SetBytes(cells []byte) error {
	if len(cells) != g.Width*g.Height {
		return fmt.Errorf("grid: cell data length %d does not match %dx%d", len(cells), g.Height, g.Width)
	}
	for i, c := range cells {
		if c != Free && c != Occupied {
			return fmt.Errorf("grid: cell %d holds invalid occupancy %d", i, c)
		}
	}
	g.cells = cells
	return nil
}

func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = make([]byte, len(g.cells))
	copy(c.cells, g.cells)
	return &c
}

// Hash fingerprints the current occupancy state together with the frame,
// FNV-1a over dimensions and cells. Two grids hash equal iff they cover the
// same frame with the same occupancy.
func (g *Grid) Hash() uint64 {
	h := fnv.New64a()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[0:], uint64(g.Width))
	binary.LittleEndian.PutUint64(dims[8:], uint64(g.Height))
	h.Write(dims[:])
	h.Write(g.cells)
	return h.Sum64()
}

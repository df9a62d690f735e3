// Package mask rasterizes the study boundary and the positive (landslide)
// polygons into the initial occupancy grid: everything outside the boundary
// and everything within a safety buffer of a positive sample is forbidden.
package mask

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/sourcegraph/conc/pool"

	"github.com/terralab/negsample/grid"
	"github.com/terralab/negsample/regiontree"
)

type Config struct {
	// CellSize is the raster resolution in CRS linear units, square cells.
	CellSize float64
	// Buffer widens every positive cell by this world distance.
	Buffer float64
	// Workers bounds the rasterization pool, GOMAXPROCS when zero.
	Workers int
}

var ErrEmptyBoundary = errors.New("mask: empty study boundary")

// Build rasterizes the forbidden mask. Cell occupancy follows the cell-center
// convention: a cell is inside whatever region its center falls in.
func Build(boundary orb.MultiPolygon, slides []orb.Polygon, cfg Config) (*grid.Grid, error) {
	if len(boundary) == 0 {
		return nil, ErrEmptyBoundary
	}
	if cfg.CellSize <= 0 {
		return nil, fmt.Errorf("mask: cell size must be positive, got %g", cfg.CellSize)
	}
	if cfg.Buffer < 0 {
		return nil, fmt.Errorf("mask: buffer must be non-negative, got %g", cfg.Buffer)
	}

	bound := boundary.Bound()
	width := int(math.Ceil((bound.Max[0] - bound.Min[0]) / cfg.CellSize))
	height := int(math.Ceil((bound.Max[1] - bound.Min[1]) / cfg.CellSize))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("mask: boundary extent %gx%g degenerate at cell size %g",
			bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1], cfg.CellSize)
	}

	g, err := grid.New(width, height, bound.Min[0], bound.Max[1], cfg.CellSize, -cfg.CellSize)
	if err != nil {
		return nil, err
	}

	boundaryIdx := regiontree.New()
	boundaryIdx.Insert(boundary)
	slideIdx := regiontree.New()
	for _, s := range slides {
		slideIdx.InsertPolygon(s)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	// rows are disjoint cell ranges, so per-row writes don't race
	positives := make([][]int, height)
	p := pool.New().WithMaxGoroutines(workers)
	for row := 0; row < height; row++ {
		row := row
		p.Go(func() {
			var cols []int
			for col := 0; col < width; col++ {
				x, y := g.WorldXY(row, col)
				pt := orb.Point{x, y}
				if !boundaryIdx.Contains(pt) {
					g.Occupy(row, col) //nolint:errcheck // indices are in range by construction
					continue
				}
				if slideIdx.Contains(pt) {
					cols = append(cols, col)
				}
			}
			positives[row] = cols
		})
	}
	p.Wait()

	// dilate positives by the buffer radius; clipping keeps dilation near the
	// raster edge from failing
	bufferCells := int(math.Ceil(cfg.Buffer / cfg.CellSize))
	fp := grid.Disk(bufferCells)
	for row, cols := range positives {
		for _, col := range cols {
			g.StampClipped(row, col, fp)
		}
	}

	slog.Info("forbidden mask built",
		"size", fmt.Sprintf("%dx%d", width, height),
		"cell_size", cfg.CellSize,
		"buffer_cells", bufferCells,
		"occupied", humanize.Comma(int64(g.OccupiedCount())),
		"free", humanize.Comma(int64(g.FreeCount())))

	return g, nil
}

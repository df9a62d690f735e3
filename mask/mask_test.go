package mask_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/terralab/negsample/grid"
	"github.com/terralab/negsample/mask"
)

func rectangle(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		orb.Point{minX, minY},
		orb.Point{maxX, minY},
		orb.Point{maxX, maxY},
		orb.Point{minX, maxY},
		orb.Point{minX, minY},
	}}
}

func TestBuildFrame(t *testing.T) {
	boundary := orb.MultiPolygon{rectangle(100, 200, 110, 208)}

	g, err := mask.Build(boundary, nil, mask.Config{CellSize: 1, Workers: 1})
	require.NoError(t, err)
	require.Equal(t, 10, g.Width)
	require.Equal(t, 8, g.Height)
	require.Equal(t, 100.0, g.OriginX)
	require.Equal(t, 208.0, g.OriginY)
	require.Equal(t, -1.0, g.CellSizeY)

	// rectangular boundary aligned to the frame: everything inside is free
	require.Equal(t, 0, g.OccupiedCount())
}

func TestBuildInvertsBoundary(t *testing.T) {
	// L-shaped boundary inside a 10x10 bound: the notch must be forbidden
	boundary := orb.MultiPolygon{orb.Polygon{orb.Ring{
		{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}, {0, 0},
	}}}

	g, err := mask.Build(boundary, nil, mask.Config{CellSize: 1, Workers: 1})
	require.NoError(t, err)

	// cell (0,9) has center (9.5, 9.5): inside the bound, outside the L
	row, col, ok := g.CellAt(9.5, 9.5)
	require.True(t, ok)
	occ, err := g.At(row, col)
	require.NoError(t, err)
	require.Equal(t, grid.Occupied, occ)

	// cell centered (2.5, 2.5) is well inside the L
	row, col, ok = g.CellAt(2.5, 2.5)
	require.True(t, ok)
	occ, err = g.At(row, col)
	require.NoError(t, err)
	require.Equal(t, grid.Free, occ)
}

func TestBuildDilatesSlides(t *testing.T) {
	boundary := orb.MultiPolygon{rectangle(0, 0, 20, 20)}
	slide := rectangle(9, 9, 11, 11)

	g, err := mask.Build(boundary, []orb.Polygon{slide}, mask.Config{CellSize: 1, Buffer: 2, Workers: 1})
	require.NoError(t, err)

	// slide cell itself
	row, col, _ := g.CellAt(9.5, 9.5)
	occ, _ := g.At(row, col)
	require.Equal(t, grid.Occupied, occ, "slide cell must be forbidden")

	// within the 2-cell buffer
	row, col, _ = g.CellAt(9.5, 12.5)
	occ, _ = g.At(row, col)
	require.Equal(t, grid.Occupied, occ, "buffered cell must be forbidden")

	// well beyond the buffer
	row, col, _ = g.CellAt(2.5, 2.5)
	occ, _ = g.At(row, col)
	require.Equal(t, grid.Free, occ, "distant cell must stay free")
}

func TestBuildValidation(t *testing.T) {
	boundary := orb.MultiPolygon{rectangle(0, 0, 10, 10)}

	_, err := mask.Build(nil, nil, mask.Config{CellSize: 1})
	require.ErrorIs(t, err, mask.ErrEmptyBoundary)

	_, err = mask.Build(boundary, nil, mask.Config{CellSize: 0})
	require.Error(t, err)

	_, err = mask.Build(boundary, nil, mask.Config{CellSize: 1, Buffer: -1})
	require.Error(t, err)
}

func TestBuildDeterministicAcrossWorkers(t *testing.T) {
	boundary := orb.MultiPolygon{orb.Polygon{orb.Ring{
		{0, 0}, {30, 0}, {30, 18}, {14, 30}, {0, 30}, {0, 0},
	}}}
	slides := []orb.Polygon{rectangle(4, 4, 7, 6), rectangle(20, 10, 24, 13)}

	a, err := mask.Build(boundary, slides, mask.Config{CellSize: 1, Buffer: 1.5, Workers: 1})
	require.NoError(t, err)
	b, err := mask.Build(boundary, slides, mask.Config{CellSize: 1, Buffer: 1.5, Workers: 4})
	require.NoError(t, err)
	require.Equal(t, a.Bytes(), b.Bytes())
}

func TestScatterPoints(t *testing.T) {
	boundary := orb.MultiPolygon{rectangle(0, 0, 100, 100)}
	points := mask.ScatterPoints(boundary, 10, 10, rand.New(rand.NewSource(3)))
	require.NotEmpty(t, points)

	for _, p := range points {
		require.GreaterOrEqual(t, p[0], 0.0)
		require.LessOrEqual(t, p[0], 100.0)
		require.GreaterOrEqual(t, p[1], 0.0)
		require.LessOrEqual(t, p[1], 100.0)
	}
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			dx := points[i][0] - points[j][0]
			dy := points[i][1] - points[j][1]
			require.GreaterOrEqual(t, math.Hypot(dx, dy), 10.0, "points %d and %d too close", i, j)
		}
	}
}

package grid_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/terralab/negsample/grid"
)

func mustGrid(t *testing.T, w, h int) *grid.Grid {
	t.Helper()
	g, err := grid.New(w, h, 0, float64(h), 1, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func TestNewValidation(t *testing.T) {
	if _, err := grid.New(0, 10, 0, 0, 1, -1); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := grid.New(10, -1, 0, 0, 1, -1); err == nil {
		t.Fatal("expected error for negative height")
	}
	if _, err := grid.New(10, 10, 0, 0, 0, -1); err == nil {
		t.Fatal("expected error for zero cell size")
	}
}

func TestAtBounds(t *testing.T) {
	g := mustGrid(t, 4, 3)

	if _, err := g.At(0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.At(2, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, idx := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 4}} {
		_, err := g.At(idx[0], idx[1])
		if !errors.Is(err, grid.ErrOutOfBounds) {
			t.Fatalf("expected ErrOutOfBounds at %v, got %v", idx, err)
		}
	}
}

func TestStampAndFreeRegion(t *testing.T) {
	g := mustGrid(t, 10, 10)
	fp := grid.Disk(2)

	if !g.IsFreeRegion(5, 5, fp) {
		t.Fatal("expected free region on empty grid")
	}
	g.Stamp(5, 5, fp)

	if g.IsFreeRegion(5, 5, fp) {
		t.Fatal("expected region occupied after stamp")
	}
	if got, _ := g.At(5, 5); got != grid.Occupied {
		t.Fatalf("expected center occupied, got %d", got)
	}
	// corner of bounding square outside the disk stays free
	if got, _ := g.At(3, 3); got != grid.Free {
		t.Fatalf("expected (3,3) free, got %d", got)
	}
	if g.OccupiedCount() != len(fp.Offsets) {
		t.Fatalf("expected %d occupied cells, got %d", len(fp.Offsets), g.OccupiedCount())
	}
}

func TestFreeRegionAtEdge(t *testing.T) {
	g := mustGrid(t, 10, 10)
	fp := grid.Disk(2)

	// centers whose disk would spill past the edge
	for _, idx := range [][2]int{{0, 5}, {5, 0}, {1, 5}, {5, 9}, {9, 5}} {
		if g.IsFreeRegion(idx[0], idx[1], fp) {
			t.Fatalf("expected spill at center %v", idx)
		}
	}
	if !g.IsFreeRegion(2, 2, fp) {
		t.Fatal("expected free region at tightest interior center")
	}
}

func TestStampClipped(t *testing.T) {
	g := mustGrid(t, 5, 5)
	g.StampClipped(0, 0, grid.Disk(2))

	if got, _ := g.At(0, 0); got != grid.Occupied {
		t.Fatal("expected corner occupied")
	}
	if got, _ := g.At(4, 4); got != grid.Free {
		t.Fatal("expected far corner free")
	}
}

func TestWorldRoundTrip(t *testing.T) {
	g, err := grid.New(20, 10, 500000, 4100000, 25, -25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, idx := range [][2]int{{0, 0}, {9, 19}, {4, 7}} {
		x, y := g.WorldXY(idx[0], idx[1])
		row, col, ok := g.CellAt(x, y)
		if !ok {
			t.Fatalf("cell center (%g, %g) mapped outside grid", x, y)
		}
		if row != idx[0] || col != idx[1] {
			t.Fatalf("round trip for %v gave (%d, %d)", idx, row, col)
		}
	}

	if _, _, ok := g.CellAt(499999, 4100000); ok {
		t.Fatal("expected point west of origin to fall outside")
	}
	if _, _, ok := g.CellAt(500000, 4100001); ok {
		t.Fatal("expected point north of origin to fall outside")
	}
	if _, _, ok := g.CellAt(500000+20*25, 4100000-10); ok {
		t.Fatal("expected point east of last column to fall outside")
	}
}

func TestSetBytes(t *testing.T) {
	g := mustGrid(t, 3, 3)
	if err := g.SetBytes([]byte{0, 1, 0, 1, 0, 1, 0, 1, 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.OccupiedCount() != 4 {
		t.Fatalf("expected 4 occupied, got %d", g.OccupiedCount())
	}
	if err := g.SetBytes([]byte{0, 0}); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if err := g.SetBytes([]byte{0, 0, 2, 0, 0, 0, 0, 0, 0}); err == nil {
		t.Fatal("expected invalid occupancy error")
	}
}

func TestWriteASCII(t *testing.T) {
	g := mustGrid(t, 3, 2)
	g.Stamp(0, 1, grid.Disk(0))

	var sb strings.Builder
	if err := g.WriteASCII(&sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "ncols 3") || !strings.Contains(out, "nrows 2") {
		t.Fatalf("missing header in output:\n%s", out)
	}
	if !strings.Contains(out, "0 1 0\n0 0 0\n") {
		t.Fatalf("unexpected body:\n%s", out)
	}
}

func TestHashTracksOccupancy(t *testing.T) {
	a := mustGrid(t, 5, 5)
	b := mustGrid(t, 5, 5)
	if a.Hash() != b.Hash() {
		t.Fatal("identical grids should hash equal")
	}

	b.Stamp(2, 2, grid.Disk(1))
	if a.Hash() == b.Hash() {
		t.Fatal("stamping should change the hash")
	}

	c := mustGrid(t, 5, 5)
	c.Stamp(2, 2, grid.Disk(1))
	if b.Hash() != c.Hash() {
		t.Fatal("same occupancy should hash equal")
	}
}

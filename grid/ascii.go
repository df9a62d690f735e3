package grid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
)

// WriteASCII writes the grid as an Esri ASCII raster, the diagnostic export
// format understood by common GIS tools. Cell size must be square.
func (g *Grid) WriteASCII(w io.Writer) error {
	if math.Abs(g.CellSizeX) != math.Abs(g.CellSizeY) {
		return fmt.Errorf("grid: ascii export needs square cells, got %gx%g", g.CellSizeX, g.CellSizeY)
	}

	bw := bufio.NewWriter(w)
	yllCorner := g.OriginY + float64(g.Height)*g.CellSizeY
	if g.CellSizeY > 0 {
		yllCorner = g.OriginY
	}

	fmt.Fprintf(bw, "ncols %d\n", g.Width)
	fmt.Fprintf(bw, "nrows %d\n", g.Height)
	fmt.Fprintf(bw, "xllcorner %g\n", g.OriginX)
	fmt.Fprintf(bw, "yllcorner %g\n", yllCorner)
	fmt.Fprintf(bw, "cellsize %g\n", math.Abs(g.CellSizeX))
	fmt.Fprintf(bw, "NODATA_value -9999\n")

	for row := 0; row < g.Height; row++ {
		line := g.cells[row*g.Width : (row+1)*g.Width]
		for col, c := range line {
			if col > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if err := bw.WriteByte('0' + c); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (g *Grid) WriteASCIIFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("grid: creating ascii raster: %w", err)
	}
	defer f.Close()
	return g.WriteASCII(f)
}

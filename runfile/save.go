package runfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// fileHeader and sampleRecord are the fixed-width on-disk forms.
type fileHeader struct {
	ID          [16]byte
	CreatedUnix int64
	Width       int32
	Height      int32
	OriginX     float64
	OriginY     float64
	CellSizeX   float64
	CellSizeY   float64
	MaskHash    uint64
	SampleCount uint32
	CellCount   uint32
}

type sampleRecord struct {
	X           float64
	Y           float64
	RadiusWorld float64
	RadiusCells int32
	Row         int32
	Col         int32
	Status      uint8
	_           [3]byte
}

func Save(w io.Writer, run Run) error {
	if _, err := w.Write(magicBytes); err != nil {
		return fmt.Errorf("runfile: writing magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return fmt.Errorf("runfile: writing format version: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("runfile: creating zstd writer: %w", err)
	}

	header := fileHeader{
		ID:          run.ID,
		CreatedUnix: run.CreatedAt.Unix(),
		Width:       run.Width,
		Height:      run.Height,
		OriginX:     run.OriginX,
		OriginY:     run.OriginY,
		CellSizeX:   run.CellSizeX,
		CellSizeY:   run.CellSizeY,
		MaskHash:    run.MaskHash,
		SampleCount: uint32(len(run.Samples)),
		CellCount:   uint32(len(run.Cells)),
	}
	if err := binary.Write(enc, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("runfile: writing header: %w", err)
	}

	for _, s := range run.Samples {
		rec := sampleRecord{
			X:           s.X,
			Y:           s.Y,
			RadiusWorld: s.RadiusWorld,
			RadiusCells: s.RadiusCells,
			Row:         s.Row,
			Col:         s.Col,
			Status:      uint8(s.Status),
		}
		if err := binary.Write(enc, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("runfile: writing sample: %w", err)
		}
	}

	if len(run.Cells) > 0 {
		if _, err := enc.Write(run.Cells); err != nil {
			return fmt.Errorf("runfile: writing grid snapshot: %w", err)
		}
	}

	return enc.Close()
}

func SaveFile(path string, run Run) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("runfile: creating %s: %w", path, err)
	}
	defer f.Close()
	return Save(f, run)
}

package runfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
)

func Load(r io.Reader) (Run, error) {
	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return Run{}, fmt.Errorf("runfile: reading magic bytes: %w", err)
	}
	if !bytes.Equal(magic, magicBytes) {
		return Run{}, fmt.Errorf("runfile: bad magic bytes %q", magic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Run{}, fmt.Errorf("runfile: reading format version: %w", err)
	}
	if version != formatVersion {
		return Run{}, fmt.Errorf("runfile: unsupported format version %d", version)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return Run{}, fmt.Errorf("runfile: creating zstd reader: %w", err)
	}
	defer dec.Close()

	var header fileHeader
	if err := binary.Read(dec, binary.LittleEndian, &header); err != nil {
		return Run{}, fmt.Errorf("runfile: reading header: %w", err)
	}

	run := Run{
		ID:        header.ID,
		CreatedAt: time.Unix(header.CreatedUnix, 0).UTC(),
		Width:     header.Width,
		Height:    header.Height,
		OriginX:   header.OriginX,
		OriginY:   header.OriginY,
		CellSizeX: header.CellSizeX,
		CellSizeY: header.CellSizeY,
		MaskHash:  header.MaskHash,
		Samples:   make([]Sample, 0, header.SampleCount),
	}

	for i := uint32(0); i < header.SampleCount; i++ {
		var rec sampleRecord
		if err := binary.Read(dec, binary.LittleEndian, &rec); err != nil {
			return Run{}, fmt.Errorf("runfile: reading sample %d: %w", i, err)
		}
		run.Samples = append(run.Samples, Sample{
			X:           rec.X,
			Y:           rec.Y,
			RadiusWorld: rec.RadiusWorld,
			RadiusCells: rec.RadiusCells,
			Row:         rec.Row,
			Col:         rec.Col,
			Status:      Status(rec.Status),
		})
	}

	if header.CellCount > 0 {
		run.Cells = make([]byte, header.CellCount)
		if _, err := io.ReadFull(dec, run.Cells); err != nil {
			return Run{}, fmt.Errorf("runfile: reading grid snapshot: %w", err)
		}
	}

	return run, nil
}

func LoadFile(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("runfile: opening %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

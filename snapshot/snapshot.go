// Package snapshot persists a loaded batch and its metadata to a
// compact file format.
//
// A snapshot holds an uncompressed header (magic, format version, a
// generated id, capacities) followed by a zstd-compressed body: the slot
// table and the populated prefix of the pixel buffer. Restoring a
// snapshot reproduces slot dimensions, offsets, statuses, error codes
// and pixels exactly; the batch comes back ready for filtering or
// extraction.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/imgbatch"
)

// Snapshot errors.
var (
	// ErrBadMagic is returned when the stream does not start with a
	// snapshot header.
	ErrBadMagic = errors.New("snapshot: bad magic")

	// ErrVersion is returned for a snapshot written by an incompatible
	// format version.
	ErrVersion = errors.New("snapshot: unsupported version")

	// ErrCorrupt is returned when the body contradicts the header.
	ErrCorrupt = errors.New("snapshot: corrupt body")
)

var magic = [4]byte{'I', 'B', 'S', 'N'}

// formatVersion is bumped on any incompatible layout change.
const formatVersion = 1

// Plausibility bounds on header-declared sizes, checked before any
// allocation so a corrupt header cannot demand gigabytes up front.
const (
	// maxSlots caps the slot capacity a snapshot may declare.
	maxSlots = 1 << 24

	// maxPixelElems caps the pixel-element capacity (4 GiB of float32).
	maxPixelElems = 1 << 30
)

// Header is the uncompressed prefix of a snapshot file.
type Header struct {
	// ID uniquely identifies this snapshot. Generated at save time.
	ID uuid.UUID

	// Capacity is the batch's slot capacity.
	Capacity int

	// Count is the number of populated slots.
	Count int

	// PixelCapacity is the batch's pixel-element capacity.
	PixelCapacity int

	// PixelUsed is the number of pixel elements the populated slots
	// cover, and therefore the element count of the compressed block.
	PixelUsed int
}

// fileHeader is the on-disk header layout, little-endian.
type fileHeader struct {
	Magic         [4]byte
	Version       uint32
	ID            [16]byte
	Capacity      uint32
	Count         uint32
	PixelCapacity uint64
	PixelUsed     uint64
}

// slotRecord is the on-disk per-slot layout, little-endian.
type slotRecord struct {
	Width, Height, Offset int32
	Format                uint8
	SourceType            uint8
	Status                uint8
	ErrorCode             uint8
	Timestamp             float64
}

// Save writes a snapshot of the batch and its metadata to w and returns
// the generated snapshot id.
func Save(w io.Writer, b *imgbatch.Batch, meta *imgbatch.Metadata) (uuid.UUID, error) {
	id := uuid.New()

	used := 0
	if n := b.Count(); n > 0 {
		used = b.Offset(n-1) + b.Width(n-1)*b.Height(n-1)*4
	}

	hdr := fileHeader{
		Magic:         magic,
		Version:       formatVersion,
		ID:            [16]byte(id),
		Capacity:      uint32(b.Capacity()),
		Count:         uint32(b.Count()),
		PixelCapacity: uint64(b.PixelCapacity()),
		PixelUsed:     uint64(used),
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return uuid.Nil, fmt.Errorf("snapshot: write header: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return uuid.Nil, fmt.Errorf("snapshot: compressor: %w", err)
	}

	records := make([]slotRecord, b.Count())
	for i := range records {
		records[i] = slotRecord{
			Width:      int32(b.Width(i)),
			Height:     int32(b.Height(i)),
			Offset:     int32(b.Offset(i)),
			Format:     uint8(b.Format(i)),
			SourceType: uint8(meta.SourceTypes[i]),
			Status:     uint8(meta.Status[i]),
			ErrorCode:  uint8(meta.ErrorCodes[i]),
			Timestamp:  meta.Timestamps[i],
		}
	}
	if err := binary.Write(zw, binary.LittleEndian, records); err != nil {
		zw.Close()
		return uuid.Nil, fmt.Errorf("snapshot: write slots: %w", err)
	}

	if err := binary.Write(zw, binary.LittleEndian, b.Pixels()[:used]); err != nil {
		zw.Close()
		return uuid.Nil, fmt.Errorf("snapshot: write pixels: %w", err)
	}

	if err := zw.Close(); err != nil {
		return uuid.Nil, fmt.Errorf("snapshot: flush: %w", err)
	}
	return id, nil
}

// ReadHeader reads and validates only the uncompressed header, leaving r
// positioned at the compressed body. Useful for listing snapshots
// without inflating their pixels.
func ReadHeader(r io.Reader) (Header, error) {
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Header{}, fmt.Errorf("snapshot: read header: %w", err)
	}
	if hdr.Magic != magic {
		return Header{}, ErrBadMagic
	}
	if hdr.Version != formatVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, hdr.Version)
	}
	if hdr.Count > hdr.Capacity || hdr.PixelUsed > hdr.PixelCapacity {
		return Header{}, fmt.Errorf("%w: header counts out of range", ErrCorrupt)
	}
	if hdr.Capacity > maxSlots {
		return Header{}, fmt.Errorf("%w: %d slots exceeds limit %d", ErrCorrupt, hdr.Capacity, maxSlots)
	}
	if hdr.PixelCapacity > maxPixelElems {
		return Header{}, fmt.Errorf("%w: %d pixel elements exceeds limit %d",
			ErrCorrupt, hdr.PixelCapacity, maxPixelElems)
	}
	return Header{
		ID:            uuid.UUID(hdr.ID),
		Capacity:      int(hdr.Capacity),
		Count:         int(hdr.Count),
		PixelCapacity: int(hdr.PixelCapacity),
		PixelUsed:     int(hdr.PixelUsed),
	}, nil
}

// Load restores a batch and its metadata from a snapshot stream.
func Load(r io.Reader) (*imgbatch.Batch, *imgbatch.Metadata, Header, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, nil, Header{}, err
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, Header{}, fmt.Errorf("snapshot: decompressor: %w", err)
	}
	defer zr.Close()

	records := make([]slotRecord, hdr.Count)
	if err := binary.Read(zr, binary.LittleEndian, records); err != nil {
		return nil, nil, Header{}, fmt.Errorf("snapshot: read slots: %w", err)
	}

	b, err := imgbatch.New(hdr.Capacity, hdr.PixelCapacity)
	if err != nil {
		return nil, nil, Header{}, err
	}
	meta := imgbatch.NewMetadata(hdr.Capacity)

	// Replaying the recorded dimensions through Reserve reproduces the
	// recorded offsets, since slot ranges are contiguous by construction.
	dims := make([]imgbatch.Dim, hdr.Count)
	total := 0
	for i, rec := range records {
		if rec.Width < 0 || rec.Height < 0 {
			return nil, nil, Header{}, fmt.Errorf("%w: slot %d is %dx%d",
				ErrCorrupt, i, rec.Width, rec.Height)
		}
		dims[i] = imgbatch.Dim{Width: int(rec.Width), Height: int(rec.Height)}
		total += dims[i].Elems()
	}
	if total != hdr.PixelUsed {
		return nil, nil, Header{}, fmt.Errorf("%w: slots cover %d elements, header says %d",
			ErrCorrupt, total, hdr.PixelUsed)
	}
	b.Reserve(dims, 0)

	for i, rec := range records {
		if b.Offset(i) != int(rec.Offset) {
			return nil, nil, Header{}, fmt.Errorf("%w: slot %d offset %d, recorded %d",
				ErrCorrupt, i, b.Offset(i), rec.Offset)
		}
		meta.SourceTypes[i] = imgbatch.SourceType(rec.SourceType)
		meta.Status[i] = imgbatch.LoadStatus(rec.Status)
		meta.ErrorCodes[i] = imgbatch.ErrorCode(rec.ErrorCode)
		meta.Timestamps[i] = rec.Timestamp
	}

	if err := binary.Read(zr, binary.LittleEndian, b.Pixels()[:hdr.PixelUsed]); err != nil {
		return nil, nil, Header{}, fmt.Errorf("snapshot: read pixels: %w", err)
	}

	return b, meta, hdr, nil
}

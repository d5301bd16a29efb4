package imgbatch

import (
	"errors"
	"fmt"
)

// Common errors for batch operations.
var (
	// ErrInvalidCapacity is returned when a batch capacity is non-positive.
	ErrInvalidCapacity = errors.New("imgbatch: invalid capacity")

	// ErrSlotOutOfRange is returned when a slot index is outside the
	// populated range of a batch.
	ErrSlotOutOfRange = errors.New("imgbatch: slot index out of range")
)

// PixelFormat identifies the storage interpretation of a slot's pixels.
type PixelFormat uint8

const (
	// FormatRGBANorm is 4-channel RGBA stored as normalized float32
	// values in [0, 1]. This is the only format the loader produces.
	FormatRGBANorm PixelFormat = iota

	formatCount
)

// String returns a string representation of the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBANorm:
		return "RGBANorm"
	default:
		return "Unknown"
	}
}

// Dim is one image's dimensions, used for reserving batch space.
type Dim struct {
	Width  int
	Height int
}

// Elems returns the number of pixel-buffer elements the image occupies
// (4 channels per pixel).
func (d Dim) Elems() int {
	return d.Width * d.Height * 4
}

// Batch is a structure-of-arrays container holding per-image metadata and
// one contiguous normalized pixel buffer for all images.
//
// Every slot's pixels occupy a disjoint range of the shared buffer;
// offsets[i] is the element index of slot i's first channel value. For
// consecutive populated slots the ranges are contiguous:
//
//	offsets[i+1] == offsets[i] + widths[i]*heights[i]*4
//
// A Batch is created with a fixed slot capacity and a fixed pixel-element
// capacity and is never resized. Reset makes it logically empty for reuse
// without zeroing storage.
//
// Thread safety: a Batch is safe for concurrent readers of disjoint slots.
// Concurrent writers must target disjoint slot ranges; this is not
// enforced.
type Batch struct {
	widths  []int32
	heights []int32
	offsets []int32
	formats []PixelFormat
	pixels  []float32

	count    int
	capacity int
}

// PixelCapacityFor computes the pixel-element capacity needed for a batch
// of slots images, each at most maxWidth by maxHeight pixels.
func PixelCapacityFor(maxWidth, maxHeight, slots int) int {
	return maxWidth * maxHeight * 4 * slots
}

// New creates a batch with the given slot capacity and pixel-element
// capacity. The pixel capacity is explicit so that callers size the buffer
// for the images they actually intend to load, not for an assumed average
// footprint.
func New(capacity, pixelCapacity int) (*Batch, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if pixelCapacity <= 0 {
		return nil, fmt.Errorf("%w: pixel capacity %d", ErrInvalidCapacity, pixelCapacity)
	}

	return &Batch{
		widths:   make([]int32, capacity),
		heights:  make([]int32, capacity),
		offsets:  make([]int32, capacity),
		formats:  make([]PixelFormat, capacity),
		pixels:   make([]float32, pixelCapacity),
		capacity: capacity,
	}, nil
}

// Capacity returns the fixed slot capacity.
func (b *Batch) Capacity() int { return b.capacity }

// Count returns the number of slots currently populated (attempted, not
// necessarily successfully loaded — consult Metadata for per-slot status).
func (b *Batch) Count() int { return b.count }

// PixelCapacity returns the fixed pixel-element capacity.
func (b *Batch) PixelCapacity() int { return len(b.pixels) }

// Pixels returns the shared pixel buffer. Slot i's channels occupy
// Pixels()[Offset(i) : Offset(i)+Width(i)*Height(i)*4].
func (b *Batch) Pixels() []float32 { return b.pixels }

// Width returns the width of slot i. The result is unspecified for
// i >= Count().
func (b *Batch) Width(i int) int { return int(b.widths[i]) }

// Height returns the height of slot i.
func (b *Batch) Height(i int) int { return int(b.heights[i]) }

// Offset returns the pixel-buffer element offset of slot i.
func (b *Batch) Offset(i int) int { return int(b.offsets[i]) }

// Format returns the pixel format of slot i.
func (b *Batch) Format(i int) PixelFormat { return b.formats[i] }

// Slot returns the pixel range of slot i as a sub-slice of the shared
// buffer. Mutations through the returned slice affect the batch directly.
// Returns ErrSlotOutOfRange when i >= Count().
func (b *Batch) Slot(i int) ([]float32, error) {
	if i < 0 || i >= b.count {
		return nil, fmt.Errorf("%w: %d (count %d)", ErrSlotOutOfRange, i, b.count)
	}
	off := int(b.offsets[i])
	n := int(b.widths[i]) * int(b.heights[i]) * 4
	return b.pixels[off : off+n : off+n], nil
}

// Reserve computes contiguous, non-overlapping pixel ranges for len(dims)
// images starting at slot start, writing widths, heights and offsets into
// the batch arrays. When start is 0 the first offset is 0; otherwise the
// first new offset continues immediately after slot start-1's range.
// Count is raised to max(Count, start+len(dims)).
//
// Reserve has no error path. start+len(dims) must not exceed Capacity and
// the reserved ranges must fit in the pixel buffer; violating either is a
// programming error and panics.
func (b *Batch) Reserve(dims []Dim, start int) {
	if start < 0 || start+len(dims) > b.capacity {
		panic(fmt.Sprintf("imgbatch: Reserve slots [%d,%d) exceed capacity %d",
			start, start+len(dims), b.capacity))
	}

	next := int32(0)
	if start > 0 {
		next = b.offsets[start-1] + b.widths[start-1]*b.heights[start-1]*4
	}

	for i, d := range dims {
		n := int32(d.Elems())
		if int(next)+int(n) > len(b.pixels) {
			panic(fmt.Sprintf("imgbatch: Reserve needs %d pixel elements, capacity %d",
				int(next)+int(n), len(b.pixels)))
		}
		b.widths[start+i] = int32(d.Width)
		b.heights[start+i] = int32(d.Height)
		b.offsets[start+i] = next
		b.formats[start+i] = FormatRGBANorm
		next += n
	}

	if start+len(dims) > b.count {
		b.count = start + len(dims)
	}
}

// Reset logically empties the batch for reuse. Storage is not zeroed, only
// reinterpreted: stale slot data becomes unreachable through the API.
func (b *Batch) Reset() {
	b.count = 0
}

// offsetAfter returns the element offset immediately after slot i-1's
// range, which is where slot i's range begins. offsetAfter(0) is 0.
func (b *Batch) offsetAfter(i int) int {
	if i == 0 {
		return 0
	}
	return int(b.offsets[i-1] + b.widths[i-1]*b.heights[i-1]*4)
}

// commit raises count to cover slot i.
func (b *Batch) commit(i int) {
	if i+1 > b.count {
		b.count = i + 1
	}
}

// setSlot records a loaded image's geometry at slot i. The caller has
// already verified the pixel range fits.
func (b *Batch) setSlot(i, width, height, offset int) {
	b.widths[i] = int32(width)
	b.heights[i] = int32(height)
	b.offsets[i] = int32(offset)
	b.formats[i] = FormatRGBANorm
}

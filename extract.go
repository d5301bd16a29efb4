package imgbatch

import "fmt"

// Extract converts slot i of the batch back into a standalone 8-bit
// image. Normalized channel values round to the nearest integer, so a
// load-then-extract round trip reproduces the original bytes exactly.
//
// Returns ErrSlotOutOfRange when i is outside [0, Count()). A failed
// slot extracts as a 0x0 image.
func Extract(b *Batch, i int) (*Image, error) {
	if i < 0 || i >= b.Count() {
		return nil, fmt.Errorf("%w: extract %d (count %d)", ErrSlotOutOfRange, i, b.Count())
	}
	img := NewImage(b.Width(i), b.Height(i))
	src, err := b.Slot(i)
	if err != nil {
		return nil, err
	}
	denormalize(src, img.Data())
	return img, nil
}

// ExtractTo is Extract without the allocation: it writes slot i into
// dst, which must already have the slot's exact dimensions.
func ExtractTo(b *Batch, i int, dst *Image) error {
	if i < 0 || i >= b.Count() {
		return fmt.Errorf("%w: extract %d (count %d)", ErrSlotOutOfRange, i, b.Count())
	}
	if dst.Width() != b.Width(i) || dst.Height() != b.Height(i) {
		return fmt.Errorf("imgbatch: extract into %dx%d image, slot is %dx%d",
			dst.Width(), dst.Height(), b.Width(i), b.Height(i))
	}
	src, err := b.Slot(i)
	if err != nil {
		return err
	}
	denormalize(src, dst.Data())
	return nil
}

// denormalize converts normalized float32 channels back to 8-bit,
// rounding to nearest and clamping. len(dst) == len(src).
func denormalize(src []float32, dst []uint8) {
	for i, v := range src {
		s := v*255 + 0.5
		switch {
		case s <= 0:
			dst[i] = 0
		case s >= 255:
			dst[i] = 255
		default:
			dst[i] = uint8(s)
		}
	}
}

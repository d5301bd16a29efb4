// Package filter applies pixel filters to images and batches.
//
// A Filter mutates RGBA pixels in one of two storage forms: 8-bit bytes
// (standalone images) or normalized float32 (batch slots). The entry
// points cover three application modes: Copy returns a filtered copy,
// InPlace mutates the input buffer with zero allocations, and Batch
// filters every loaded slot of a batch through the float path.
//
// When a renderer backend is registered with the root package, byte-form
// application is offered to it first and falls back to the CPU
// implementation on any error.
package filter

import (
	"errors"
	"fmt"

	"github.com/gogpu/imgbatch"
)

// ErrUnknownFilter is returned by New for a descriptor whose operation
// has no registered construction.
var ErrUnknownFilter = errors.New("filter: unknown filter")

// Filter is one pixel effect. Implementations mutate the given channel
// slice in place; both forms visit pixels as RGBA quadruplets and leave
// alpha untouched unless documented otherwise.
type Filter interface {
	// Descriptor returns the renderer-facing description of the filter,
	// used to offer the operation to an accelerated backend.
	Descriptor() imgbatch.FilterDescriptor

	// ApplyBytes filters 8-bit RGBA channels in place. Results round to
	// the nearest integer.
	ApplyBytes(pix []uint8)

	// ApplyFloats filters normalized float32 RGBA channels in place.
	// No rounding occurs on this path.
	ApplyFloats(pix []float32)
}

// New constructs the filter described by desc. It is the loud-failure
// path for descriptors received from configuration or the wire: an
// operation without a construction returns ErrUnknownFilter.
func New(desc imgbatch.FilterDescriptor) (Filter, error) {
	switch desc.Op {
	case imgbatch.FilterGrayscale:
		return &Grayscale{Strength: desc.Strength}, nil
	case imgbatch.FilterInvert:
		return &Invert{Strength: desc.Strength}, nil
	case imgbatch.FilterBrightness:
		return &Brightness{Factor: desc.Amount, Strength: desc.Strength}, nil
	default:
		return nil, fmt.Errorf("%w: op %#x", ErrUnknownFilter, uint32(desc.Op))
	}
}

// clampStrength folds a blend strength into [0, 1].
func clampStrength(s float32) float32 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// blendByte mixes orig toward filtered by strength and rounds.
func blendByte(orig, filtered, strength float32) uint8 {
	v := orig + (filtered-orig)*strength + 0.5
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

package filter

import "github.com/gogpu/imgbatch"

// Invert flips each color channel (255 - v), leaving alpha untouched.
// Strength follows the Grayscale convention: 0 reads as full strength.
type Invert struct {
	Strength float32
}

// NewInvert returns a full-strength inversion filter.
func NewInvert() *Invert { return &Invert{Strength: 1} }

// Descriptor implements Filter.
func (f *Invert) Descriptor() imgbatch.FilterDescriptor {
	return imgbatch.FilterDescriptor{Op: imgbatch.FilterInvert, Strength: f.strength()}
}

func (f *Invert) strength() float32 {
	if f.Strength == 0 {
		return 1
	}
	return clampStrength(f.Strength)
}

// ApplyBytes implements Filter.
func (f *Invert) ApplyBytes(pix []uint8) {
	s := f.strength()
	for i := 0; i+3 < len(pix); i += 4 {
		for c := range 3 {
			v := float32(pix[i+c])
			pix[i+c] = blendByte(v, 255-v, s)
		}
	}
}

// ApplyFloats implements Filter.
func (f *Invert) ApplyFloats(pix []float32) {
	s := f.strength()
	for i := 0; i+3 < len(pix); i += 4 {
		for c := range 3 {
			v := pix[i+c]
			pix[i+c] = v + ((1-v)-v)*s
		}
	}
}

package filter

import "github.com/gogpu/imgbatch"

// Brightness scales each color channel by Factor, clamping to the valid
// range. Factor 1 is identity; the zero value is read as 1 so an empty
// struct is a no-op rather than blackness. Alpha is untouched.
type Brightness struct {
	Factor   float32
	Strength float32
}

// NewBrightness returns a full-strength brightness filter with the given
// scale factor.
func NewBrightness(factor float32) *Brightness {
	return &Brightness{Factor: factor, Strength: 1}
}

// Descriptor implements Filter.
func (f *Brightness) Descriptor() imgbatch.FilterDescriptor {
	return imgbatch.FilterDescriptor{
		Op:       imgbatch.FilterBrightness,
		Strength: f.strength(),
		Amount:   f.factor(),
	}
}

func (f *Brightness) factor() float32 {
	if f.Factor == 0 {
		return 1
	}
	return f.Factor
}

func (f *Brightness) strength() float32 {
	if f.Strength == 0 {
		return 1
	}
	return clampStrength(f.Strength)
}

// ApplyBytes implements Filter.
func (f *Brightness) ApplyBytes(pix []uint8) {
	s := f.strength()
	k := f.factor()
	for i := 0; i+3 < len(pix); i += 4 {
		for c := range 3 {
			v := float32(pix[i+c])
			pix[i+c] = blendByte(v, v*k, s)
		}
	}
}

// ApplyFloats implements Filter.
func (f *Brightness) ApplyFloats(pix []float32) {
	s := f.strength()
	k := f.factor()
	for i := 0; i+3 < len(pix); i += 4 {
		for c := range 3 {
			v := pix[i+c]
			out := v * k
			if out > 1 {
				out = 1
			}
			pix[i+c] = v + (out-v)*s
		}
	}
}

package filter

import "github.com/gogpu/imgbatch"

// Rec. 601 luma weights.
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

// Grayscale converts pixels to their luminance (0.299 R + 0.587 G +
// 0.114 B), leaving alpha untouched.
//
// Strength blends between the original pixel (0) and the fully gray
// pixel (1). The zero value applies the filter fully: a strength of
// exactly 0 is read as 1, since "no filter" is expressed by not
// applying one.
type Grayscale struct {
	Strength float32
}

// NewGrayscale returns a full-strength grayscale filter.
func NewGrayscale() *Grayscale { return &Grayscale{Strength: 1} }

// Descriptor implements Filter.
func (g *Grayscale) Descriptor() imgbatch.FilterDescriptor {
	return imgbatch.FilterDescriptor{Op: imgbatch.FilterGrayscale, Strength: g.strength()}
}

func (g *Grayscale) strength() float32 {
	if g.Strength == 0 {
		return 1
	}
	return clampStrength(g.Strength)
}

// ApplyBytes implements Filter.
func (g *Grayscale) ApplyBytes(pix []uint8) {
	s := g.strength()
	for i := 0; i+3 < len(pix); i += 4 {
		r := float32(pix[i])
		gr := float32(pix[i+1])
		b := float32(pix[i+2])
		lum := lumR*r + lumG*gr + lumB*b
		pix[i] = blendByte(r, lum, s)
		pix[i+1] = blendByte(gr, lum, s)
		pix[i+2] = blendByte(b, lum, s)
	}
}

// ApplyFloats implements Filter.
func (g *Grayscale) ApplyFloats(pix []float32) {
	s := g.strength()
	for i := 0; i+3 < len(pix); i += 4 {
		r, gr, b := pix[i], pix[i+1], pix[i+2]
		lum := lumR*r + lumG*gr + lumB*b
		pix[i] = r + (lum-r)*s
		pix[i+1] = gr + (lum-gr)*s
		pix[i+2] = b + (lum-b)*s
	}
}

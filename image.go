package imgbatch

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// Image represents a standalone rectangular pixel buffer in 8-bit RGBA
// format, 4 bytes per pixel. It is the form images take outside a Batch:
// what the decode collaborator produces, what Extract returns, and what
// the renderer boundary consumes.
type Image struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewImage creates a new image with the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// ImageFromData wraps an existing RGBA pixel slice without copying.
// len(data) must be at least width*height*4; the slice is truncated to
// exactly that length. Returns nil if data is too small.
func ImageFromData(width, height int, data []uint8) *Image {
	n := width * height * 4
	if width <= 0 || height <= 0 || len(data) < n {
		return nil
	}
	return &Image{
		width:  width,
		height: height,
		data:   data[:n],
	}
}

// Width returns the width of the image.
func (p *Image) Width() int {
	return p.width
}

// Height returns the height of the image.
func (p *Image) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Image) Data() []uint8 {
	return p.data
}

// Clone creates a deep copy of the image.
func (p *Image) Clone() *Image {
	data := make([]uint8, len(p.data))
	copy(data, p.data)
	return &Image{
		width:  p.width,
		height: p.height,
		data:   data,
	}
}

// SetPixel sets the color of a single pixel.
func (p *Image) SetPixel(x, y int, r, g, b, a uint8) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = r
	p.data[i+1] = g
	p.data[i+2] = b
	p.data[i+3] = a
}

// GetPixel returns the color of a single pixel.
// Out-of-bounds coordinates return transparent black.
func (p *Image) GetPixel(x, y int) (r, g, b, a uint8) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return 0, 0, 0, 0
	}
	i := (y*p.width + x) * 4
	return p.data[i+0], p.data[i+1], p.data[i+2], p.data[i+3]
}

// ToImage converts the image to an image.NRGBA.
func (p *Image) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// ImageFromStd creates an Image from a standard library image.Image.
func ImageFromStd(img image.Image) *Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := NewImage(width, height)

	// Fast path for NRGBA images (what PNG decoding typically yields).
	if nrgba, ok := img.(*image.NRGBA); ok {
		rowBytes := width * 4
		for y := 0; y < height; y++ {
			src := nrgba.Pix[y*nrgba.Stride:]
			copy(out.data[y*rowBytes:(y+1)*rowBytes], src[:rowBytes])
		}
		return out
	}

	// Generic slow path for any image type.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			out.SetPixel(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return out
}

// SavePNG saves the image to a PNG file.
func (p *Image) SavePNG(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, p.ToImage())
}

// At implements the image.Image interface.
func (p *Image) At(x, y int) color.Color {
	r, g, b, a := p.GetPixel(x, y)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Bounds implements the image.Image interface.
func (p *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Image) ColorModel() color.Model {
	return color.NRGBAModel
}

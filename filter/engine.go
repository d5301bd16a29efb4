package filter

import (
	"fmt"

	"github.com/gogpu/imgbatch"
	"github.com/gogpu/imgbatch/internal/bufpool"
)

// Copy applies the filters in order to a copy of img and returns it.
// img is left untouched. A nil img returns nil.
func Copy(img *imgbatch.Image, filters ...Filter) *imgbatch.Image {
	if img == nil {
		return nil
	}
	out := img.Clone()
	InPlace(out, filters...)
	return out
}

// InPlace applies the filters in order directly to img's pixel buffer.
// The chain allocates nothing; each filter mutates the same buffer.
//
// When a renderer backend is registered and reports support for a
// filter's operation, that filter is offered to the backend first. Any
// backend error falls back to the CPU implementation silently.
func InPlace(img *imgbatch.Image, filters ...Filter) {
	if img == nil {
		return
	}
	for _, f := range filters {
		if f == nil {
			continue
		}
		if applyAccelerated(img, f) {
			continue
		}
		f.ApplyBytes(img.Data())
	}
}

// applyAccelerated offers one filter application to the registered
// renderer. Reports whether the backend handled it.
func applyAccelerated(img *imgbatch.Image, f Filter) bool {
	r := imgbatch.ActiveRenderer()
	if r == nil {
		return false
	}
	desc := f.Descriptor()
	if !r.CanRender(desc.Op) {
		return false
	}
	if err := r.Render(img, desc); err != nil {
		imgbatch.Logger().Debug("filter: renderer fallback",
			"renderer", r.Name(), "error", err)
		return false
	}
	return true
}

// Images applies f to every image, returning one new filtered image per
// input. Output pixel buffers are drawn from the package buffer pool;
// pass them to Release when done to enable reuse. Nil inputs yield nil
// outputs.
func Images(imgs []*imgbatch.Image, f Filter) []*imgbatch.Image {
	out := make([]*imgbatch.Image, len(imgs))
	for i, img := range imgs {
		if img == nil {
			continue
		}
		buf := bufpool.GetDefault(len(img.Data()))
		copy(buf, img.Data())
		out[i] = imgbatch.ImageFromData(img.Width(), img.Height(), buf)
		InPlace(out[i], f)
	}
	return out
}

// Release returns the pixel buffers of images produced by Images to the
// buffer pool. The images must not be used afterwards.
func Release(imgs ...*imgbatch.Image) {
	for _, img := range imgs {
		if img != nil {
			bufpool.PutDefault(img.Data())
		}
	}
}

// Batch applies f in place to the normalized pixels of every loaded slot
// of b. Slots whose status is not StatusLoaded are skipped, so failed
// loads never feed garbage through a filter. This is the float path: no
// rounding occurs.
func Batch(b *imgbatch.Batch, meta *imgbatch.Metadata, f Filter) error {
	if f == nil {
		return fmt.Errorf("%w: nil filter", ErrUnknownFilter)
	}
	for i := 0; i < b.Count(); i++ {
		if meta.Status[i] != imgbatch.StatusLoaded {
			continue
		}
		pix, err := b.Slot(i)
		if err != nil {
			return err
		}
		f.ApplyFloats(pix)
	}
	return nil
}

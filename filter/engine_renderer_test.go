package filter

import (
	"testing"

	"github.com/gogpu/imgbatch"
)

// stubRenderer counts offers and either handles them or defers to CPU.
type stubRenderer struct {
	offered int
	handle  bool
	can     bool
}

func (s *stubRenderer) Name() string                     { return "stub" }
func (s *stubRenderer) Init() error                      { return nil }
func (s *stubRenderer) Close()                           {}
func (s *stubRenderer) CanRender(imgbatch.FilterOp) bool { return s.can }
func (s *stubRenderer) Render(img *imgbatch.Image, _ imgbatch.FilterDescriptor) error {
	s.offered++
	if !s.handle {
		return imgbatch.ErrFallbackToCPU
	}
	data := img.Data()
	for i := range data {
		data[i] = 7
	}
	return nil
}

// inertRenderer detaches the stub after a test; it accepts nothing.
func detachRenderer(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_ = imgbatch.RegisterRenderer(&stubRenderer{})
	})
}

func TestInPlace_RendererHandles(t *testing.T) {
	detachRenderer(t)
	stub := &stubRenderer{handle: true, can: true}
	if err := imgbatch.RegisterRenderer(stub); err != nil {
		t.Fatal(err)
	}

	img := redImage(2, 2)
	InPlace(img, NewGrayscale())

	if stub.offered != 1 {
		t.Errorf("renderer offered %d times, want 1", stub.offered)
	}
	for i, v := range img.Data() {
		if v != 7 {
			t.Fatalf("byte %d = %d, want renderer output 7", i, v)
		}
	}
}

func TestInPlace_RendererFallsBack(t *testing.T) {
	detachRenderer(t)
	stub := &stubRenderer{handle: false, can: true}
	if err := imgbatch.RegisterRenderer(stub); err != nil {
		t.Fatal(err)
	}

	img := redImage(1, 1)
	InPlace(img, NewGrayscale())

	if stub.offered != 1 {
		t.Errorf("renderer offered %d times, want 1", stub.offered)
	}
	r, _, _, _ := img.GetPixel(0, 0)
	if r != 76 {
		t.Errorf("fallback result = %d, want CPU grayscale 76", r)
	}
}

func TestInPlace_RendererUnsupportedOp(t *testing.T) {
	detachRenderer(t)
	stub := &stubRenderer{handle: true, can: false}
	if err := imgbatch.RegisterRenderer(stub); err != nil {
		t.Fatal(err)
	}

	img := redImage(1, 1)
	InPlace(img, NewGrayscale())

	if stub.offered != 0 {
		t.Errorf("unsupported op was still offered %d times", stub.offered)
	}
	r, _, _, _ := img.GetPixel(0, 0)
	if r != 76 {
		t.Errorf("result = %d, want CPU grayscale 76", r)
	}
}

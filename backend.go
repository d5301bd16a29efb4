package imgbatch

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the renderer backend cannot handle this
// operation. The caller should transparently fall back to the CPU path.
var ErrFallbackToCPU = errors.New("imgbatch: falling back to CPU filtering")

// FilterOp describes filter operation types for renderer capability
// checking.
type FilterOp uint32

const (
	// FilterGrayscale represents luminance grayscale conversion.
	FilterGrayscale FilterOp = 1 << iota

	// FilterInvert represents per-channel color inversion.
	FilterInvert

	// FilterBrightness represents uniform brightness scaling.
	FilterBrightness
)

// FilterDescriptor identifies a filter operation plus its parameters in a
// form a renderer backend can consume without knowing concrete filter
// types.
type FilterDescriptor struct {
	// Op selects the operation.
	Op FilterOp

	// Strength blends between the original (0) and fully filtered (1)
	// pixel. Values outside [0, 1] are clamped by the filter.
	Strength float32

	// Amount carries the op-specific scalar (brightness factor, etc.).
	// Unused ops ignore it.
	Amount float32
}

// Renderer is an optional filter-acceleration provider.
//
// When registered via RegisterRenderer, filter application tries the
// renderer first for supported operations. If the renderer returns
// ErrFallbackToCPU or any error, filtering transparently falls back to
// the CPU path.
//
// Implementations are provided by backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/imgbatch/backend/wgpu"
type Renderer interface {
	// Name returns the backend name (e.g., "wgpu").
	Name() string

	// Init initializes backend resources. Called once during registration.
	Init() error

	// Close releases backend resources.
	Close()

	// CanRender reports whether the backend supports the given operation.
	// This is a fast check used to skip the backend entirely for
	// unsupported operations.
	CanRender(op FilterOp) bool

	// Render applies the described filter to the image in place.
	// Returns ErrFallbackToCPU if the operation cannot be accelerated.
	Render(img *Image, desc FilterDescriptor) error
}

// DeviceProviderAware is an optional interface for renderers that can
// share GPU resources with an external provider (e.g., a gogpu window).
// When SetDeviceProvider is called, the renderer reuses the provided GPU
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	rendererMu sync.RWMutex
	renderer   Renderer
)

// RegisterRenderer registers a filter renderer backend.
//
// Only one renderer can be registered. Subsequent calls replace the
// previous one. The renderer's Init() method is called during
// registration; if Init() fails, the renderer is not registered and the
// error is returned.
//
// Typical usage via init in backend packages:
//
//	func init() {
//	    imgbatch.RegisterRenderer(wgpu.NewRenderer())
//	}
func RegisterRenderer(r Renderer) error {
	if r == nil {
		return errors.New("imgbatch: renderer must not be nil")
	}
	if err := r.Init(); err != nil {
		return err
	}
	propagateLogger(r, Logger())
	rendererMu.Lock()
	old := renderer
	renderer = r
	rendererMu.Unlock()
	if old != nil {
		old.Close()
	}
	Logger().Info("imgbatch: renderer registered", "name", r.Name())
	return nil
}

// ActiveRenderer returns the currently registered renderer, or nil.
func ActiveRenderer() Renderer {
	rendererMu.RLock()
	r := renderer
	rendererMu.RUnlock()
	return r
}

// SetRendererDeviceProvider passes a device provider to the registered
// renderer, enabling GPU device sharing. If no renderer is registered or
// it does not support device sharing, this is a no-op.
func SetRendererDeviceProvider(provider any) error {
	r := ActiveRenderer()
	if r == nil {
		return nil
	}
	if dpa, ok := r.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

package wgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imgbatch"
)

// FilterRenderer implements imgbatch.Renderer on top of WebGPU compute.
//
// GPU device initialization is deferred until the first Render call or
// until SetDeviceProvider is called, to avoid creating a standalone
// Vulkan device that may interfere with an external device provided
// later.
//
// Note: full GPU dispatch requires buffer binding which needs HAL API
// extensions. The renderer creates the real compute pipelines on the
// device and then applies the same per-pixel algorithm as the shader on
// the CPU, so results are identical either way.
type FilterRenderer struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipelines *filterPipelines

	gpuReady       bool
	initAttempted  bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

// Interface compliance checks.
var _ imgbatch.Renderer = (*FilterRenderer)(nil)
var _ imgbatch.DeviceProviderAware = (*FilterRenderer)(nil)

// NewFilterRenderer creates an unregistered renderer. Most users rely on
// the package's blank-import registration instead.
func NewFilterRenderer() *FilterRenderer { return &FilterRenderer{} }

func init() {
	// Registration never fails: Init is lazy.
	_ = imgbatch.RegisterRenderer(NewFilterRenderer())
}

// Name returns the renderer identifier.
func (r *FilterRenderer) Name() string { return "wgpu" }

// Init registers the renderer. GPU device initialization is deferred, so
// Init always succeeds.
func (r *FilterRenderer) Init() error { return nil }

// Close releases all GPU resources held by the renderer.
func (r *FilterRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pipelines != nil {
		r.pipelines.Destroy()
		r.pipelines = nil
	}

	if !r.externalDevice {
		if r.device != nil {
			r.device.Destroy()
			r.device = nil
		}
		if r.instance != nil {
			r.instance.Destroy()
			r.instance = nil
		}
	} else {
		// Don't destroy shared resources -- we don't own them.
		r.device = nil
		r.instance = nil
	}
	r.queue = nil
	r.gpuReady = false
	r.initAttempted = false
	r.externalDevice = false
}

// SetLogger sets the logger for the renderer and its internals.
// Called by imgbatch.SetLogger to propagate logging configuration.
func (r *FilterRenderer) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// CanRender reports whether the renderer supports the given operation.
func (r *FilterRenderer) CanRender(op imgbatch.FilterOp) bool {
	switch op {
	case imgbatch.FilterGrayscale, imgbatch.FilterInvert, imgbatch.FilterBrightness:
		return true
	default:
		return false
	}
}

// SetDeviceProvider switches the renderer to a shared GPU device.
//
// Two provider shapes are accepted: anything exposing HalDevice() any
// and HalQueue() any (the gogpu window convention), or a
// gpucontext.DeviceProvider whose concrete device and queue also carry
// the HAL types.
func (r *FilterRenderer) SetDeviceProvider(provider any) error {
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pipelines != nil {
		r.pipelines.Destroy()
		r.pipelines = nil
	}
	if !r.externalDevice && r.device != nil {
		r.device.Destroy()
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}

	r.device = device
	r.queue = queue
	r.externalDevice = true
	r.initAttempted = true

	pipelines, err := newFilterPipelines(device)
	if err != nil {
		slogger().Warn("wgpu: pipeline init failed, compute unavailable", "error", err)
		// Still mark gpuReady -- device is valid, just compute isn't.
		r.gpuReady = true
		return nil
	}
	r.pipelines = pipelines

	r.gpuReady = true
	slogger().Debug("wgpu: switched to shared GPU device")
	return nil
}

// halFromProvider extracts hal.Device and hal.Queue from a provider.
func halFromProvider(provider any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if hp, ok := provider.(halProvider); ok {
		device, ok := hp.HalDevice().(hal.Device)
		if !ok || device == nil {
			return nil, nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
		}
		queue, ok := hp.HalQueue().(hal.Queue)
		if !ok || queue == nil {
			return nil, nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
		}
		return device, queue, nil
	}

	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		device, ok := dp.Device().(hal.Device)
		if !ok || device == nil {
			return nil, nil, fmt.Errorf("wgpu: gpucontext device does not carry hal.Device")
		}
		queue, ok := dp.Queue().(hal.Queue)
		if !ok || queue == nil {
			return nil, nil, fmt.Errorf("wgpu: gpucontext queue does not carry hal.Queue")
		}
		return device, queue, nil
	}

	return nil, nil, fmt.Errorf("wgpu: provider does not expose HAL types")
}

// Render applies the described filter to the image in place.
//
// On hosts without a usable GPU the first call attempts device
// initialization once, then permanently reports ErrFallbackToCPU so the
// filter engine uses its own implementation.
func (r *FilterRenderer) Render(img *imgbatch.Image, desc imgbatch.FilterDescriptor) error {
	if img == nil {
		return fmt.Errorf("wgpu: nil image")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.gpuReady {
		if r.initAttempted {
			return imgbatch.ErrFallbackToCPU
		}
		if err := r.initGPU(); err != nil {
			slogger().Warn("wgpu: GPU unavailable, filters stay on CPU", "error", err)
			return imgbatch.ErrFallbackToCPU
		}
	}
	if r.pipelines == nil {
		return imgbatch.ErrFallbackToCPU
	}

	return r.applyMirror(img, desc)
}

// initGPU creates a standalone Vulkan device for compute-only use.
// Caller holds r.mu.
func (r *FilterRenderer) initGPU() error {
	r.initAttempted = true

	instance, device, queue, adapterName, err := openStandaloneDevice()
	if err != nil {
		return err
	}
	r.instance = instance
	r.device = device
	r.queue = queue

	pipelines, err := newFilterPipelines(device)
	if err != nil {
		slogger().Warn("wgpu: pipeline init failed, compute unavailable", "error", err)
		r.gpuReady = true
		return nil
	}
	r.pipelines = pipelines

	r.gpuReady = true
	slogger().Info("wgpu: GPU initialized (standalone)", "adapter", adapterName)
	return nil
}

// applyMirror runs the shader algorithm on the CPU. It mirrors
// filters.wgsl exactly: normalized arithmetic, alpha untouched, rounding
// only at the final byte store. Caller holds r.mu.
func (r *FilterRenderer) applyMirror(img *imgbatch.Image, desc imgbatch.FilterDescriptor) error {
	pix := img.Data()
	s := desc.Strength

	blend := func(orig, filtered float32) uint8 {
		v := (orig+(filtered-orig)*s)*255 + 0.5
		switch {
		case v <= 0:
			return 0
		case v >= 255:
			return 255
		default:
			return uint8(v)
		}
	}

	switch desc.Op {
	case imgbatch.FilterGrayscale:
		for i := 0; i+3 < len(pix); i += 4 {
			red := float32(pix[i]) / 255
			grn := float32(pix[i+1]) / 255
			blu := float32(pix[i+2]) / 255
			lum := 0.299*red + 0.587*grn + 0.114*blu
			pix[i] = blend(red, lum)
			pix[i+1] = blend(grn, lum)
			pix[i+2] = blend(blu, lum)
		}
	case imgbatch.FilterInvert:
		for i := 0; i+3 < len(pix); i += 4 {
			for c := range 3 {
				v := float32(pix[i+c]) / 255
				pix[i+c] = blend(v, 1-v)
			}
		}
	case imgbatch.FilterBrightness:
		for i := 0; i+3 < len(pix); i += 4 {
			for c := range 3 {
				v := float32(pix[i+c]) / 255
				out := v * desc.Amount
				if out > 1 {
					out = 1
				}
				pix[i+c] = blend(v, out)
			}
		}
	default:
		return imgbatch.ErrFallbackToCPU
	}
	return nil
}

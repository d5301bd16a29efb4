package wgpu

import (
	_ "embed"
	"fmt"

	types "github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/filters.wgsl
var filterShaderWGSL string

// paramsSize is the byte size of the Params uniform in filters.wgsl.
const paramsSize = 16

// filterPipelines holds the compiled compute pipelines for the filter
// shader, one per entry point.
//
// Note: full GPU dispatch requires buffer binding which needs HAL API
// extensions. Pipeline creation verifies the shader and GPU
// infrastructure; pixel application currently mirrors the shader
// algorithm on the CPU.
type filterPipelines struct {
	device hal.Device

	shaderModule hal.ShaderModule

	paramsBindLayout hal.BindGroupLayout
	pixelsBindLayout hal.BindGroupLayout
	pipelineLayout   hal.PipelineLayout

	grayscale  hal.ComputePipeline
	invert     hal.ComputePipeline
	brightness hal.ComputePipeline

	// Compiled SPIR-V (cached for verification)
	spirvCode []uint32
}

// newFilterPipelines compiles the filter shader and creates the compute
// pipelines on the device.
func newFilterPipelines(device hal.Device) (*filterPipelines, error) {
	p := &filterPipelines{device: device}
	if err := p.init(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *filterPipelines) init() error {
	// Compile WGSL to SPIR-V.
	spirvBytes, err := naga.Compile(filterShaderWGSL)
	if err != nil {
		return fmt.Errorf("wgpu: failed to compile filter shader: %w", err)
	}
	p.spirvCode = make([]uint32, len(spirvBytes)/4)
	for i := range p.spirvCode {
		p.spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	shaderModule, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: "filter_shader",
		Source: hal.ShaderSource{
			SPIRV: p.spirvCode,
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: failed to create shader module: %w", err)
	}
	p.shaderModule = shaderModule

	if err := p.createBindGroupLayouts(); err != nil {
		return err
	}
	if err := p.createPipelineLayout(); err != nil {
		return err
	}
	return p.createPipelines()
}

func (p *filterPipelines) createBindGroupLayouts() error {
	// Params uniform (group 0).
	paramsLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "filter_params_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type:           types.BufferBindingTypeUniform,
					MinBindingSize: paramsSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: failed to create params bind group layout: %w", err)
	}
	p.paramsBindLayout = paramsLayout

	// Pixel storage (group 1).
	pixelsLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "filter_pixels_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type: types.BufferBindingTypeStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: failed to create pixels bind group layout: %w", err)
	}
	p.pixelsBindLayout = pixelsLayout

	return nil
}

func (p *filterPipelines) createPipelineLayout() error {
	layout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "filter_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.paramsBindLayout, p.pixelsBindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: failed to create pipeline layout: %w", err)
	}
	p.pipelineLayout = layout
	return nil
}

func (p *filterPipelines) createPipelines() error {
	entries := []struct {
		name string
		dst  *hal.ComputePipeline
	}{
		{"cs_grayscale", &p.grayscale},
		{"cs_invert", &p.invert},
		{"cs_brightness", &p.brightness},
	}
	for _, e := range entries {
		pipeline, err := p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  "filter_" + e.name,
			Layout: p.pipelineLayout,
			Compute: hal.ComputeState{
				Module:     p.shaderModule,
				EntryPoint: e.name,
			},
		})
		if err != nil {
			return fmt.Errorf("wgpu: failed to create %s pipeline: %w", e.name, err)
		}
		*e.dst = pipeline
	}
	return nil
}

// Destroy releases all GPU resources.
func (p *filterPipelines) Destroy() {
	if p.device == nil {
		return
	}

	if p.grayscale != nil {
		p.device.DestroyComputePipeline(p.grayscale)
		p.grayscale = nil
	}
	if p.invert != nil {
		p.device.DestroyComputePipeline(p.invert)
		p.invert = nil
	}
	if p.brightness != nil {
		p.device.DestroyComputePipeline(p.brightness)
		p.brightness = nil
	}

	if p.pipelineLayout != nil {
		p.device.DestroyPipelineLayout(p.pipelineLayout)
		p.pipelineLayout = nil
	}
	if p.paramsBindLayout != nil {
		p.device.DestroyBindGroupLayout(p.paramsBindLayout)
		p.paramsBindLayout = nil
	}
	if p.pixelsBindLayout != nil {
		p.device.DestroyBindGroupLayout(p.pixelsBindLayout)
		p.pixelsBindLayout = nil
	}
	if p.shaderModule != nil {
		p.device.DestroyShaderModule(p.shaderModule)
		p.shaderModule = nil
	}
}

package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/wisp/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// instancedVariant is the baseline backend flavor: each group's instance
// records live in a vertex buffer whose step mode advances one record per
// instance, so the fixed-function vertex fetch delivers the five attributes.
// Runs within the WebGPU default device limits.
type instancedVariant struct{}

func (instancedVariant) name() string {
	return "wgpu-instanced"
}

func (instancedVariant) limits() wgpu.Limits {
	return wgpu.DefaultLimits()
}

func (instancedVariant) filters() (min, mag wgpu.FilterMode) {
	return wgpu.FilterModeLinear, wgpu.FilterModeLinear
}

func (v instancedVariant) buildPipeline(b *wgpuSpriteBackend) error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Instanced Sprite Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: instancedShaderSource,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create instanced shader module: %w", err)
	}
	defer module.Release()

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Instanced Sprite Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create instanced pipeline layout: %w", err)
	}
	defer layout.Release()

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Instanced Sprite Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(common.InstanceStride * 4),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32, Offset: 8, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32, Offset: 20, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32, Offset: 24, ShaderLocation: 4},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleStrip,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create instanced pipeline: %w", err)
	}

	b.pipeline = pipeline
	return nil
}

func (instancedVariant) registerGroup(b *wgpuSpriteBackend, records []float32, size int) (groupResources, error) {
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Sprite Instance Vertex Buffer",
		Size:  uint64(len(records) * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return groupResources{}, fmt.Errorf("failed to create instance vertex buffer: %w", err)
	}
	b.queue.WriteBuffer(buffer, 0, common.SliceToBytes(records))

	return groupResources{size: size, buffer: buffer}, nil
}

func (instancedVariant) drawGroup(b *wgpuSpriteBackend, g *groupResources) {
	b.framePass.SetVertexBuffer(0, g.buffer, 0, wgpu.WholeSize)
}

func (instancedVariant) release() {}

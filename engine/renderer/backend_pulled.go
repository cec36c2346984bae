package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/wisp/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// pulledVariant is the vertex-pulling backend flavor: each group's instance
// records live in a read-only storage buffer the vertex stage indexes by
// instance index, bypassing the fixed-function vertex fetch entirely. This
// needs storage buffer access from the vertex stage, which the instanced
// variant does not, so the device is requested with raised limits.
type pulledVariant struct {
	groupLayout *wgpu.BindGroupLayout
}

func (*pulledVariant) name() string {
	return "wgpu-pulled"
}

func (*pulledVariant) limits() wgpu.Limits {
	limits := wgpu.DefaultLimits()
	limits.MaxStorageBuffersPerShaderStage = 8
	limits.MaxStorageBufferBindingSize = 128 * 1024 * 1024
	return limits
}

func (*pulledVariant) filters() (min, mag wgpu.FilterMode) {
	return wgpu.FilterModeNearest, wgpu.FilterModeLinear
}

func (v *pulledVariant) buildPipeline(b *wgpuSpriteBackend) error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Pulled Sprite Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: pulledShaderSource,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create pulled shader module: %w", err)
	}
	defer module.Release()

	groupLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Pulled Sprite Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create pulled group layout: %w", err)
	}
	v.groupLayout = groupLayout

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Pulled Sprite Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, groupLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create pulled pipeline layout: %w", err)
	}
	defer layout.Release()

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Pulled Sprite Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
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
		return fmt.Errorf("failed to create pulled pipeline: %w", err)
	}

	b.pipeline = pipeline
	return nil
}

func (v *pulledVariant) registerGroup(b *wgpuSpriteBackend, records []float32, size int) (groupResources, error) {
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Sprite Instance Storage Buffer",
		Size:  uint64(len(records) * 4),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return groupResources{}, fmt.Errorf("failed to create instance storage buffer: %w", err)
	}
	b.queue.WriteBuffer(buffer, 0, common.SliceToBytes(records))

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Sprite Instance Bind Group",
		Layout: v.groupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buffer, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		buffer.Release()
		return groupResources{}, fmt.Errorf("failed to create instance bind group: %w", err)
	}

	return groupResources{size: size, buffer: buffer, bindGroup: bindGroup}, nil
}

func (*pulledVariant) drawGroup(b *wgpuSpriteBackend, g *groupResources) {
	b.framePass.SetBindGroup(1, g.bindGroup, nil)
}

func (v *pulledVariant) release() {
	if v.groupLayout != nil {
		v.groupLayout.Release()
		v.groupLayout = nil
	}
}

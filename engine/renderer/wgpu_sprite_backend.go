package renderer

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/wisp/common"
	"github.com/Carmen-Shannon/wisp/engine/image"
	"github.com/Carmen-Shannon/wisp/engine/sprite"
	"github.com/Carmen-Shannon/wisp/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// backendVariant captures what differs between the two backend flavors: the
// device limits they request, their sampler filter policy, how they build
// their pipeline, and how a group's instance records become GPU resources.
// Everything else lives in the shared wgpuSpriteBackend core.
type backendVariant interface {
	name() string
	limits() wgpu.Limits
	filters() (min, mag wgpu.FilterMode)
	buildPipeline(b *wgpuSpriteBackend) error
	registerGroup(b *wgpuSpriteBackend, records []float32, size int) (groupResources, error)
	drawGroup(b *wgpuSpriteBackend, g *groupResources)
	release()
}

// groupResources holds the per-group GPU state a variant creates: the
// instance buffer, plus a bind group for the pulled variant (nil for
// instanced).
type groupResources struct {
	size      int
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// wgpuSpriteBackend is the shared core of both backend variants. It owns the
// WebGPU context, the image registry and atlas, the registered sprite groups
// and the frame lifecycle; the embedded variant supplies the pipeline and
// per-group resources.
type wgpuSpriteBackend struct {
	mu      *sync.Mutex
	variant backendVariant

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width         uint32
	height        uint32

	clearColor wgpu.Color

	registry image.Registry

	atlasTexture *wgpu.Texture
	atlasView    *wgpu.TextureView
	atlasSampler *wgpu.Sampler

	screenBuffer   *wgpu.Buffer
	frameLayout    *wgpu.BindGroupLayout
	frameBindGroup *wgpu.BindGroup
	pipeline       *wgpu.RenderPipeline

	groups []groupResources

	finalized bool
	closed    bool

	// Frame state between StartDrawing and FinishDrawing.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ SpriteBackend = &wgpuSpriteBackend{}

// newWGPUSpriteBackend creates the WebGPU context for the given window and
// variant: instance, surface, adapter, device with the variant's limits, and
// the configured swapchain. The window's size fixes the surface size for the
// backend's whole lifetime.
func newWGPUSpriteBackend(win window.Window, variant backendVariant, forceFallbackAdapter bool, presentMode wgpu.PresentMode) (*wgpuSpriteBackend, error) {
	runtime.LockOSThread()

	b := &wgpuSpriteBackend{
		mu:          &sync.Mutex{},
		variant:     variant,
		instance:    wgpu.CreateInstance(nil),
		presentMode: presentMode,
		width:       uint32(win.Width()),
		height:      uint32(win.Height()),
		clearColor:  wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		registry:    image.NewRegistry(),
	}
	b.surface = b.instance.CreateSurface(win.SurfaceDescriptor())

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = adapter

	limits := variant.limits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: variant.name() + " Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	b.configureSurface()

	common.Logger().Info("render backend initialized",
		"variant", variant.name(),
		"width", b.width,
		"height", b.height,
	)

	return b, nil
}

// configureSurface configures the swapchain at the fixed window size.
func (b *wgpuSpriteBackend) configureSurface() {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (b *wgpuSpriteBackend) Name() string {
	return b.variant.name()
}

func (b *wgpuSpriteBackend) SetClearColor(r, g, bl, a float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = wgpu.Color{R: float64(r), G: float64(g), B: float64(bl), A: float64(a)}
}

func (b *wgpuSpriteBackend) LoadImage(filename string) (common.ImageHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	return b.registry.Register(filename)
}

func (b *wgpuSpriteBackend) ImageSize(h common.ImageHandle) (uint32, uint32, error) {
	return b.registry.Size(h)
}

func (b *wgpuSpriteBackend) FinalizeSetup() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.finalized {
		return nil
	}

	count := b.registry.Count()
	if count > 0 {
		if err := b.uploadAtlas(count); err != nil {
			return err
		}
		if err := b.initFrameResources(count); err != nil {
			return err
		}
		if err := b.variant.buildPipeline(b); err != nil {
			return err
		}
	}

	b.registry.Freeze()
	b.finalized = true

	maxW, maxH := b.registry.MaxSize()
	common.Logger().Info("setup finalized",
		"images", count,
		"atlasWidth", maxW,
		"atlasHeight", maxH,
	)
	return nil
}

// uploadAtlas decodes every registered image in parallel and writes each into
// its own layer of one RGBA8 2D-array texture sized to the registry's maximum
// dimensions. Smaller images occupy the top-left sub-rectangle of their
// layer; the padding is never sampled because the shaders scale UVs by
// halfSize/halfMax.
func (b *wgpuSpriteBackend) uploadAtlas(count int) error {
	maxW, maxH := b.registry.MaxSize()

	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Sprite Atlas",
		Size: wgpu.Extent3D{
			Width:              maxW,
			Height:             maxH,
			DepthOrArrayLayers: uint32(count),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create atlas texture: %w", err)
	}

	type decoded struct {
		pixels []byte
		width  uint32
		height uint32
		err    error
	}
	results := make([]decoded, count)

	// Decoding is the expensive part of setup; fan it out across a worker
	// pool and gate the upload on a WaitGroup.
	pool := worker.NewDynamicWorkerPool(max(runtime.NumCPU()-1, 1), 256, 1*time.Second)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		filename, err := b.registry.Filename(common.ImageHandle(i))
		if err != nil {
			texture.Release()
			return err
		}

		wg.Add(1)
		layer := i
		path := filename
		pool.SubmitTask(worker.Task{
			ID: layer,
			Do: func() (any, error) {
				defer wg.Done()
				pixels, w, h, decodeErr := b.registry.Decoder().Decode(path)
				results[layer] = decoded{pixels: pixels, width: w, height: h, err: decodeErr}
				return nil, decodeErr
			},
		})
	}
	wg.Wait()

	for layer, res := range results {
		if res.err != nil {
			texture.Release()
			return fmt.Errorf("failed to decode atlas layer %d: %w", layer, res.err)
		}
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  texture,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{Z: uint32(layer)},
				Aspect:   wgpu.TextureAspectAll,
			},
			res.pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  res.width * 4,
				RowsPerImage: res.height,
			},
			&wgpu.Extent3D{
				Width:              res.width,
				Height:             res.height,
				DepthOrArrayLayers: 1,
			},
		)
		common.Logger().Debug("atlas layer written",
			"layer", layer,
			"width", res.width,
			"height", res.height,
		)
	}

	view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Sprite Atlas View",
		Format:          wgpu.TextureFormatRGBA8Unorm,
		Dimension:       wgpu.TextureViewDimension2DArray,
		MipLevelCount:   1,
		ArrayLayerCount: uint32(count),
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		texture.Release()
		return fmt.Errorf("failed to create atlas view: %w", err)
	}

	minFilter, magFilter := b.variant.filters()
	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Sprite Atlas Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     magFilter,
		MinFilter:     minFilter,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		texture.Release()
		return fmt.Errorf("failed to create atlas sampler: %w", err)
	}

	b.atlasTexture = texture
	b.atlasView = view
	b.atlasSampler = sampler
	return nil
}

// initFrameResources creates the screen uniform and the shared bind group
// both shaders use at group 0: screen parameters, atlas texture, sampler.
func (b *wgpuSpriteBackend) initFrameResources(count int) error {
	maxW, maxH := b.registry.MaxSize()

	screen := []float32{
		float32(b.width) / 2,
		float32(b.height) / 2,
		float32(maxW) / 2,
		float32(maxH) / 2,
	}
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Screen Uniform Buffer",
		Size:  uint64(len(screen) * 4),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create screen uniform buffer: %w", err)
	}
	b.queue.WriteBuffer(buffer, 0, common.SliceToBytes(screen))

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Sprite Frame Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(len(screen) * 4),
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		buffer.Release()
		return fmt.Errorf("failed to create frame bind group layout: %w", err)
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Sprite Frame Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: b.atlasView},
			{Binding: 2, Sampler: b.atlasSampler},
		},
	})
	if err != nil {
		layout.Release()
		buffer.Release()
		return fmt.Errorf("failed to create frame bind group: %w", err)
	}

	b.screenBuffer = buffer
	b.frameLayout = layout
	b.frameBindGroup = bindGroup
	return nil
}

func (b *wgpuSpriteBackend) RegisterSpriteGroup(objectTypes []uint32, transforms []float32, size int) (common.GroupHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if !b.finalized {
		return 0, ErrNotReady
	}
	if b.pipeline == nil {
		return 0, fmt.Errorf("%w: no images registered", ErrNotReady)
	}

	records, err := sprite.BuildInstanceRecords(objectTypes, transforms, size, b.registry)
	if err != nil {
		return 0, err
	}

	// Empty groups get a handle but no GPU buffer; drawing them is a no-op.
	var resources groupResources
	if size > 0 {
		resources, err = b.variant.registerGroup(b, records, size)
		if err != nil {
			return 0, err
		}
	}

	handle := common.GroupHandle(len(b.groups))
	b.groups = append(b.groups, resources)

	common.Logger().Debug("sprite group registered",
		"handle", handle,
		"sprites", size,
		"bytes", len(records)*4,
	)
	return handle, nil
}

func (b *wgpuSpriteBackend) StartDrawing() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if !b.finalized {
		return ErrNotReady
	}
	if b.frameSurface != nil {
		return ErrFrameInProgress
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("failed to create surface view: %w", err)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("failed to create command encoder: %w", err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
	})

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuSpriteBackend) DrawSpriteGroup(handle common.GroupHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.framePass == nil {
		return ErrNoFrame
	}
	if handle < 0 || int(handle) >= len(b.groups) {
		return fmt.Errorf("%w: %d", ErrUnknownGroup, handle)
	}

	g := &b.groups[handle]
	if g.size == 0 {
		return nil
	}

	b.framePass.SetPipeline(b.pipeline)
	b.framePass.SetBindGroup(0, b.frameBindGroup, nil)
	b.variant.drawGroup(b, g)
	b.framePass.Draw(4, uint32(g.size), 0, 0)
	return nil
}

func (b *wgpuSpriteBackend) FinishDrawing() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return ErrNoFrame
	}

	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err == nil {
		b.queue.Submit(commandBuffer)
		commandBuffer.Release()
		b.surface.Present()
	}

	b.frameEncoder.Release()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameEncoder = nil
	b.framePass = nil
	b.frameView = nil
	b.frameSurface = nil

	if err != nil {
		return fmt.Errorf("failed to finish frame: %w", err)
	}
	return nil
}

func (b *wgpuSpriteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	if b.framePass != nil {
		b.framePass.End()
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameView = nil
		b.frameSurface = nil
	}

	for i := range b.groups {
		if b.groups[i].bindGroup != nil {
			b.groups[i].bindGroup.Release()
		}
		if b.groups[i].buffer != nil {
			b.groups[i].buffer.Release()
		}
	}
	b.groups = nil

	b.variant.release()
	if b.pipeline != nil {
		b.pipeline.Release()
	}
	if b.frameBindGroup != nil {
		b.frameBindGroup.Release()
	}
	if b.frameLayout != nil {
		b.frameLayout.Release()
	}
	if b.screenBuffer != nil {
		b.screenBuffer.Release()
	}
	if b.atlasSampler != nil {
		b.atlasSampler.Release()
	}
	if b.atlasView != nil {
		b.atlasView.Release()
	}
	if b.atlasTexture != nil {
		b.atlasTexture.Release()
	}
	if b.device != nil {
		b.device.Release()
	}

	b.closed = true
	return nil
}

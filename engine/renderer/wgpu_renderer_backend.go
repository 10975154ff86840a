package renderer

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/geometry"
	"github.com/Carmen-Shannon/oxy-terrain/engine/light"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/terrain.wgsl
var terrainShaderSource string

//go:embed assets/overlay.wgsl
var overlayShaderSource string

const (
	pipelineTerrainSolid     = "terrain-solid"
	pipelineTerrainWireframe = "terrain-wireframe"
	pipelineOverlay          = "overlay"

	// cameraSlotStride is the dynamic offset step between per-pass camera uniforms.
	// Matches the default minUniformBufferOffsetAlignment.
	cameraSlotStride = 256

	// objectUniformSize is the size of ObjectUniform: model (mat4x4<f32>) + color (vec4<f32>).
	objectUniformSize = 80

	// overlayVertexStride is position (2×f32) + uv (2×f32).
	overlayVertexStride = 16

	// resourceTTL is the number of frames GPU resources of an object that is no longer drawn are kept.
	resourceTTL = 120
)

// objectResources holds the GPU resources of one drawn GameObject.
type objectResources struct {
	geometry geometry.Geometry

	vertexBuffer *wgpu.Buffer
	vertexSize   uint64
	indexBuffer  *wgpu.Buffer
	indexCount   uint32
	wireBuffer   *wgpu.Buffer
	wireCount    uint32

	uniformBuffer *wgpu.Buffer
	sampler       *wgpu.Sampler

	colorMap       material.Texture
	textureVersion uint64
	texture        *wgpu.Texture
	textureView    *wgpu.TextureView
	bindGroup      *wgpu.BindGroup

	lastFrame uint64
}

func (o *objectResources) release() {
	for _, buf := range []*wgpu.Buffer{o.vertexBuffer, o.indexBuffer, o.wireBuffer, o.uniformBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	if o.sampler != nil {
		o.sampler.Release()
	}
	o.releaseTexture()
}

func (o *objectResources) releaseTexture() {
	if o.bindGroup != nil {
		o.bindGroup.Release()
		o.bindGroup = nil
	}
	if o.textureView != nil {
		o.textureView.Release()
		o.textureView = nil
	}
	if o.texture != nil {
		o.texture.Release()
		o.texture = nil
	}
}

// overlayResources holds the GPU resources of one overlay element.
type overlayResources struct {
	version      uint64
	size         image.Point
	texture      *wgpu.Texture
	textureView  *wgpu.TextureView
	bindGroup    *wgpu.BindGroup
	vertexBuffer *wgpu.Buffer
	lastFrame    uint64
}

func (o *overlayResources) release() {
	if o.bindGroup != nil {
		o.bindGroup.Release()
	}
	if o.textureView != nil {
		o.textureView.Release()
	}
	if o.texture != nil {
		o.texture.Release()
	}
	if o.vertexBuffer != nil {
		o.vertexBuffer.Release()
	}
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    *wgpu.TextureFormat
	width, height    int
	msaaTexture      *wgpu.Texture
	msaaTextureView  *wgpu.TextureView
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	presentMode wgpu.PresentMode // defaults to PresentModeFifo (VSync)
	sampleCount MSAASampleCount

	pipelines        map[string]pipeline.Pipeline
	bindGroupLayouts map[string]*wgpu.BindGroupLayout

	// Shared per-frame resources, created with the pipelines.
	cameraBuffer    *wgpu.Buffer
	cameraBindGroup *wgpu.BindGroup
	lightBuffer     *wgpu.Buffer
	lightBindGroup  *wgpu.BindGroup
	whiteTexture    *wgpu.Texture
	whiteView       *wgpu.TextureView
	overlaySampler  *wgpu.Sampler

	objects  map[uint64]*objectResources
	overlays map[string]*overlayResources
	frame    uint64

	// Frame state for batched rendering across multiple passes
	frameEncoder *wgpu.CommandEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) RendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:               &sync.Mutex{},
		instance:         wgpu.CreateInstance(nil),
		presentMode:      wgpu.PresentModeFifo,
		sampleCount:      sampleCount,
		pipelines:        make(map[string]pipeline.Pipeline),
		bindGroupLayouts: make(map[string]*wgpu.BindGroupLayout),
		objects:          make(map[uint64]*objectResources),
		overlays:         make(map[string]*overlayResources),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to request adapter: %v", err))
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(fmt.Sprintf("failed to request device: %v", err))
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]
	b.width, b.height = width, height

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseAttachmentsLocked()
	count := uint32(b.sampleCount)

	if count > 1 {
		// Passes draw into the MSAA texture and resolve into the swapchain view.
		tex, view, err := b.createAttachmentLocked("MSAA Texture", *b.surfaceFormat, count)
		if err != nil {
			panic(err)
		}
		b.msaaTexture, b.msaaTextureView = tex, view
	}

	// Depth texture sample count must match the color attachment.
	tex, view, err := b.createAttachmentLocked("Depth Texture", wgpu.TextureFormatDepth24Plus, count)
	if err != nil {
		panic(err)
	}
	b.depthTexture, b.depthTextureView = tex, view
}

func (b *wgpuRendererBackendImpl) createAttachmentLocked(label string, format wgpu.TextureFormat, sampleCount uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(b.width),
			Height:             uint32(b.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) releaseAttachmentsLocked() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTexture.Release()
		b.msaaTextureView, b.msaaTexture = nil, nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

// ensurePipelinesLocked creates the built-in pipelines and the resources shared between passes.
// Pipelines depend on the surface format, so this runs on the first pass after ConfigureSurface.
func (b *wgpuRendererBackendImpl) ensurePipelinesLocked() error {
	if len(b.pipelines) > 0 {
		return nil
	}
	if b.surfaceFormat == nil {
		return errors.New("surface is not configured")
	}

	sceneSource, err := shader.NewPreProcessor().Process(terrainShaderSource)
	if err != nil {
		return fmt.Errorf("failed to pre-process terrain shader: %w", err)
	}
	sceneLayouts := sceneBindGroupLayouts()
	sceneVertices := geometryVertexLayout()

	pipelines := []pipeline.Pipeline{
		pipeline.NewPipeline(pipelineTerrainSolid, sceneSource,
			pipeline.WithVertexLayouts(sceneVertices),
			pipeline.WithBindGroupLayouts(sceneLayouts...),
		),
		pipeline.NewPipeline(pipelineTerrainWireframe, sceneSource,
			pipeline.WithVertexLayouts(sceneVertices),
			pipeline.WithBindGroupLayouts(sceneLayouts...),
			pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
		),
		pipeline.NewPipeline(pipelineOverlay, overlayShaderSource,
			pipeline.WithVertexLayouts(overlayVertexLayout()),
			pipeline.WithBindGroupLayouts(overlayBindGroupLayout()),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithBlendEnabled(true),
		),
	}
	for _, p := range pipelines {
		if err := b.registerRenderPipelineLocked(p); err != nil {
			return fmt.Errorf("failed to register pipeline %q: %w", p.PipelineKey(), err)
		}
	}

	if err := b.createSharedResourcesLocked(); err != nil {
		return err
	}
	for _, p := range pipelines {
		b.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (b *wgpuRendererBackendImpl) createSharedResourcesLocked() error {
	var err error
	b.cameraBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform Buffer",
		Size:  cameraSlotStride * MaxPassesPerFrame,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create camera buffer: %w", err)
	}
	b.lightBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Light Uniform Buffer",
		Size:  uint64(light.LightBufferSize),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create light buffer: %w", err)
	}

	cameraUniform := camera.GPUCameraUniform{}
	b.cameraBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Camera Bind Group",
		Layout: b.bindGroupLayouts["Camera Bind Group Layout"],
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.cameraBuffer, Offset: 0, Size: uint64(cameraUniform.Size())},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create camera bind group: %w", err)
	}
	b.lightBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Light Bind Group",
		Layout: b.bindGroupLayouts["Light Bind Group Layout"],
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.lightBuffer, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create light bind group: %w", err)
	}

	white, _ := material.White().Data()
	b.whiteTexture, b.whiteView, err = b.createTextureLocked("White Texture", white)
	if err != nil {
		return err
	}
	b.overlaySampler, err = b.createSamplerLocked("Overlay Sampler", common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
	})
	return err
}

// bindGroupLayoutLocked creates a bind group layout, reusing an earlier one with the same label.
// Pipelines sharing a label share the layout object, so bind groups are interchangeable between them.
func (b *wgpuRendererBackendImpl) bindGroupLayoutLocked(desc wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	if layout, ok := b.bindGroupLayouts[desc.Label]; ok && desc.Label != "" {
		return layout, nil
	}
	layout, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, err
	}
	if desc.Label != "" {
		b.bindGroupLayouts[desc.Label] = layout
	}
	return layout, nil
}

func (b *wgpuRendererBackendImpl) registerRenderPipelineLocked(p pipeline.Pipeline) error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.PipelineKey(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Source(),
		},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	descriptors := p.BindGroupLayoutDescriptors()
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, len(descriptors))
	for g, desc := range descriptors {
		layout, layoutErr := b.bindGroupLayoutLocked(desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	target := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created, bindGroupLayouts)
	return nil
}

func (b *wgpuRendererBackendImpl) createTextureLocked(label string, stagingData common.TextureStagingData) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create texture %s: %w", label, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create texture view %s: %w", label, err)
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) createSamplerLocked(label string, samplerStagingData common.SamplerStagingData) (*wgpu.Sampler, error) {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %s: %w", label, err)
	}
	return samp, nil
}

func (b *wgpuRendererBackendImpl) createBufferLocked(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frame++
	return nil
}

// beginPassLocked starts a render pass on the frame encoder with the pass's load ops, viewport and scissor.
// Attachments are always stored so later passes of the same frame can load them.
func (b *wgpuRendererBackendImpl) beginPassLocked(pass PassState) *wgpu.RenderPassEncoder {
	loadOp := wgpu.LoadOpLoad
	if pass.Clear {
		loadOp = wgpu.LoadOpClear
	}

	color := wgpu.RenderPassColorAttachment{
		View:    b.frameView,
		LoadOp:  loadOp,
		StoreOp: wgpu.StoreOpStore,
		ClearValue: wgpu.Color{
			R: pass.ClearColor[0], G: pass.ClearColor[1], B: pass.ClearColor[2], A: pass.ClearColor[3],
		},
	}
	if b.sampleCount > 1 {
		color.View = b.msaaTextureView
		color.ResolveTarget = b.frameView
	}

	rp := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	if !pass.Viewport.Empty() {
		v := pass.Viewport
		rp.SetViewport(float32(v.X), float32(v.Y), float32(v.Width), float32(v.Height), 0, 1)
	}
	s := pass.Scissor
	rp.SetScissorRect(uint32(s.X), uint32(s.Y), uint32(s.Width), uint32(s.Height))
	return rp
}

func (b *wgpuRendererBackendImpl) endPass(rp *wgpu.RenderPassEncoder) {
	rp.End()
	rp.Release()
}

func (b *wgpuRendererBackendImpl) ClearPass(pass PassState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("no frame encoder, BeginFrame was not called")
	}
	b.endPass(b.beginPassLocked(pass))
	return nil
}

func (b *wgpuRendererBackendImpl) DrawScene(pass PassState, s scene.Scene, cam camera.Camera) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("no frame encoder, BeginFrame was not called")
	}
	if err := b.ensurePipelinesLocked(); err != nil {
		return err
	}

	cameraUniform := camera.NewGPUCameraUniform(cam)
	cameraOffset := uint32(pass.Index * cameraSlotStride)
	b.queue.WriteBuffer(b.cameraBuffer, uint64(cameraOffset), cameraUniform.Marshal())
	b.queue.WriteBuffer(b.lightBuffer, 0, light.MarshalLightBuffer(s.Lights(), s.AmbientColor()))

	rp := b.beginPassLocked(pass)
	defer b.endPass(rp)
	if pass.Viewport.Empty() {
		return nil
	}

	for _, d := range s.Drawables() {
		obj := d.Object
		geom, mat := obj.Geometry(), obj.Material()
		if geom == nil || mat == nil {
			continue
		}

		res, err := b.syncObjectLocked(obj.ID(), geom, mat, d.MatrixWorld)
		if err != nil {
			return fmt.Errorf("object %d: %w", obj.ID(), err)
		}

		p := b.pipelines[pipelineTerrainSolid]
		indexBuffer, indexCount := res.indexBuffer, res.indexCount
		if mat.Wireframe() {
			p = b.pipelines[pipelineTerrainWireframe]
			indexBuffer, indexCount = res.wireBuffer, res.wireCount
		}

		rp.SetPipeline(p.RenderPipeline())
		rp.SetBindGroup(0, b.cameraBindGroup, []uint32{cameraOffset})
		rp.SetBindGroup(1, b.lightBindGroup, nil)
		rp.SetBindGroup(2, res.bindGroup, nil)
		rp.SetVertexBuffer(0, res.vertexBuffer, 0, wgpu.WholeSize)
		rp.SetIndexBuffer(indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		rp.DrawIndexed(indexCount, 1, 0, 0, 0)
	}
	return nil
}

// syncObjectLocked creates or refreshes the GPU resources of one object: vertex data when the geometry is
// dirty, the object uniform every pass, and the texture binding when the color map becomes ready.
func (b *wgpuRendererBackendImpl) syncObjectLocked(id uint64, geom geometry.Geometry, mat material.Material, model mgl32.Mat4) (*objectResources, error) {
	res := b.objects[id]
	if res != nil && res.geometry != geom {
		res.release()
		res = nil
	}

	if res == nil {
		var err error
		res, err = b.createObjectLocked(id, geom, mat)
		if err != nil {
			return nil, err
		}
		b.objects[id] = res
	} else if geom.NeedsUpdate() {
		data := geom.MarshalVertices()
		if uint64(len(data)) != res.vertexSize {
			res.vertexBuffer.Release()
			buf, err := b.createBufferLocked(fmt.Sprintf("Object %d Vertex Buffer", id), wgpu.BufferUsageVertex, data)
			if err != nil {
				return nil, err
			}
			res.vertexBuffer, res.vertexSize = buf, uint64(len(data))
		} else {
			b.queue.WriteBuffer(res.vertexBuffer, 0, data)
		}
		geom.SetNeedsUpdate(false)
	}

	b.queue.WriteBuffer(res.uniformBuffer, 0, marshalObjectUniform(model, mat.BaseColor()))

	colorMap := mat.ColorMap()
	var version uint64
	var data common.TextureStagingData
	if colorMap != nil {
		if d, ok := colorMap.Data(); ok {
			data, version = d, colorMap.Version()
		}
	}
	if res.bindGroup == nil || colorMap != res.colorMap || version != res.textureVersion {
		if err := b.bindTextureLocked(id, res, data, version); err != nil {
			return nil, err
		}
		res.colorMap = colorMap
	}

	res.lastFrame = b.frame
	return res, nil
}

func (b *wgpuRendererBackendImpl) createObjectLocked(id uint64, geom geometry.Geometry, mat material.Material) (*objectResources, error) {
	res := &objectResources{geometry: geom}
	label := fmt.Sprintf("Object %d", id)

	vertices := geom.MarshalVertices()
	var err error
	if res.vertexBuffer, err = b.createBufferLocked(label+" Vertex Buffer", wgpu.BufferUsageVertex, vertices); err != nil {
		return nil, err
	}
	res.vertexSize = uint64(len(vertices))

	indices := geom.Indices()
	if res.indexBuffer, err = b.createBufferLocked(label+" Index Buffer", wgpu.BufferUsageIndex, geometry.MarshalIndices(indices)); err != nil {
		res.release()
		return nil, err
	}
	res.indexCount = uint32(len(indices))

	edges := geom.WireframeIndices()
	if res.wireBuffer, err = b.createBufferLocked(label+" Wireframe Index Buffer", wgpu.BufferUsageIndex, geometry.MarshalIndices(edges)); err != nil {
		res.release()
		return nil, err
	}
	res.wireCount = uint32(len(edges))

	if res.uniformBuffer, err = b.createBufferLocked(label+" Uniform Buffer", wgpu.BufferUsageUniform, make([]byte, objectUniformSize)); err != nil {
		res.release()
		return nil, err
	}
	if res.sampler, err = b.createSamplerLocked(label+" Sampler", mat.Sampler()); err != nil {
		res.release()
		return nil, err
	}

	geom.SetNeedsUpdate(false)
	return res, nil
}

// bindTextureLocked rebuilds the object bind group. A version of 0 binds the shared white texture.
func (b *wgpuRendererBackendImpl) bindTextureLocked(id uint64, res *objectResources, data common.TextureStagingData, version uint64) error {
	res.releaseTexture()

	view := b.whiteView
	if version != 0 {
		tex, texView, err := b.createTextureLocked(fmt.Sprintf("Object %d Texture", id), data)
		if err != nil {
			return err
		}
		res.texture, res.textureView = tex, texView
		view = texView
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  fmt.Sprintf("Object %d Bind Group", id),
		Layout: b.pipelines[pipelineTerrainSolid].BindGroupLayout(2),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: res.uniformBuffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: view},
			{Binding: 2, Sampler: res.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create object bind group: %w", err)
	}
	res.bindGroup = bindGroup
	res.textureVersion = version
	return nil
}

func (b *wgpuRendererBackendImpl) DrawOverlay(pass PassState, elements []OverlayElement) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errors.New("no frame encoder, BeginFrame was not called")
	}
	if err := b.ensurePipelinesLocked(); err != nil {
		return err
	}

	rp := b.beginPassLocked(pass)
	defer b.endPass(rp)

	p := b.pipelines[pipelineOverlay]
	for _, el := range elements {
		if !el.Visible() {
			continue
		}
		bounds := el.Bounds(b.width, b.height)
		if bounds.Empty() {
			continue
		}
		res, err := b.syncOverlayLocked(el, bounds)
		if err != nil {
			return fmt.Errorf("overlay %s: %w", el.Key(), err)
		}

		rp.SetPipeline(p.RenderPipeline())
		rp.SetBindGroup(0, res.bindGroup, nil)
		rp.SetVertexBuffer(0, res.vertexBuffer, 0, wgpu.WholeSize)
		rp.Draw(6, 1, 0, 0)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) syncOverlayLocked(el OverlayElement, bounds image.Rectangle) (*overlayResources, error) {
	res := b.overlays[el.Key()]
	if res == nil {
		buf, err := b.createBufferLocked(el.Key()+" Overlay Vertex Buffer", wgpu.BufferUsageVertex, make([]byte, 6*overlayVertexStride))
		if err != nil {
			return nil, err
		}
		res = &overlayResources{vertexBuffer: buf}
		b.overlays[el.Key()] = res
	}

	if res.bindGroup == nil || res.version != el.Version() {
		img := el.Image()
		data := common.RGBAStagingData(img)
		size := img.Bounds().Size()

		if res.texture == nil || res.size != size {
			if res.bindGroup != nil {
				res.bindGroup.Release()
				res.textureView.Release()
				res.texture.Release()
			}
			tex, view, err := b.createTextureLocked(el.Key()+" Overlay Texture", data)
			if err != nil {
				return nil, err
			}
			bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  el.Key() + " Overlay Bind Group",
				Layout: b.pipelines[pipelineOverlay].BindGroupLayout(0),
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, TextureView: view},
					{Binding: 1, Sampler: b.overlaySampler},
				},
			})
			if err != nil {
				view.Release()
				tex.Release()
				return nil, fmt.Errorf("failed to create overlay bind group: %w", err)
			}
			res.texture, res.textureView, res.bindGroup, res.size = tex, view, bindGroup, size
		} else {
			b.queue.WriteTexture(
				&wgpu.ImageCopyTexture{Texture: res.texture, Aspect: wgpu.TextureAspectAll},
				data.Pixels,
				&wgpu.TextureDataLayout{BytesPerRow: data.Width * 4, RowsPerImage: data.Height},
				&wgpu.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1},
			)
		}
		res.version = el.Version()
	}

	b.queue.WriteBuffer(res.vertexBuffer, 0, overlayQuad(bounds, b.width, b.height))
	res.lastFrame = b.frame
	return res, nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil

	b.evictLocked()
}

// evictLocked releases resources of objects and overlay elements not drawn for resourceTTL frames.
func (b *wgpuRendererBackendImpl) evictLocked() {
	if b.frame < resourceTTL {
		return
	}
	cutoff := b.frame - resourceTTL
	for id, res := range b.objects {
		if res.lastFrame < cutoff {
			res.release()
			delete(b.objects, id)
		}
	}
	for key, res := range b.overlays {
		if res.lastFrame < cutoff {
			res.release()
			delete(b.overlays, key)
		}
	}
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

// sceneBindGroupLayouts describes groups 0 (camera, dynamic offset per pass), 1 (lights) and 2 (object).
func sceneBindGroupLayouts() []wgpu.BindGroupLayoutDescriptor {
	cameraEntry := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment}
	cameraEntry.Buffer.Type = wgpu.BufferBindingTypeUniform
	cameraEntry.Buffer.HasDynamicOffset = true
	cameraEntry.Buffer.MinBindingSize = uint64((&camera.GPUCameraUniform{}).Size())

	lightEntry := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageFragment}
	lightEntry.Buffer.Type = wgpu.BufferBindingTypeUniform
	lightEntry.Buffer.MinBindingSize = uint64(light.LightBufferSize)

	objectEntry := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment}
	objectEntry.Buffer.Type = wgpu.BufferBindingTypeUniform
	objectEntry.Buffer.MinBindingSize = objectUniformSize

	return []wgpu.BindGroupLayoutDescriptor{
		{Label: "Camera Bind Group Layout", Entries: []wgpu.BindGroupLayoutEntry{cameraEntry}},
		{Label: "Light Bind Group Layout", Entries: []wgpu.BindGroupLayoutEntry{lightEntry}},
		{Label: "Object Bind Group Layout", Entries: []wgpu.BindGroupLayoutEntry{objectEntry, textureEntry(1), samplerEntry(2)}},
	}
}

func overlayBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label:   "Overlay Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{textureEntry(0), samplerEntry(1)},
	}
}

func textureEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: wgpu.ShaderStageFragment}
	entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
	entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	return entry
}

func samplerEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: wgpu.ShaderStageFragment}
	entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	return entry
}

// geometryVertexLayout matches geometry.VertexStride: position, normal, uv.
func geometryVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: geometry.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

func overlayVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: overlayVertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}
}

// marshalObjectUniform serializes the ObjectUniform struct: model matrix then RGBA color.
func marshalObjectUniform(model mgl32.Mat4, color [4]float32) []byte {
	buf := make([]byte, objectUniformSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(model[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(color[i]))
	}
	return buf
}

// overlayQuad builds two triangles covering bounds, converting top-left-origin pixels into NDC.
func overlayQuad(bounds image.Rectangle, width, height int) []byte {
	w, h := float32(max(width, 1)), float32(max(height, 1))
	x0 := 2*float32(bounds.Min.X)/w - 1
	x1 := 2*float32(bounds.Max.X)/w - 1
	y0 := 1 - 2*float32(bounds.Min.Y)/h
	y1 := 1 - 2*float32(bounds.Max.Y)/h

	vertices := [6][4]float32{
		{x0, y0, 0, 0},
		{x0, y1, 0, 1},
		{x1, y1, 1, 1},
		{x0, y0, 0, 0},
		{x1, y1, 1, 1},
		{x1, y0, 1, 0},
	}
	buf := make([]byte, 6*overlayVertexStride)
	for i, v := range vertices {
		for j, f := range v {
			binary.LittleEndian.PutUint32(buf[i*overlayVertexStride+j*4:], math.Float32bits(f))
		}
	}
	return buf
}

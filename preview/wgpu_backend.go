package preview

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/shaderview-go/preview/geometry"
	"github.com/Carmen-Shannon/shaderview-go/preview/program"
)

// copyPitchAlignment is the required row alignment for texture-to-buffer
// copies in WebGPU (and DX12).
const copyPitchAlignment = 256

// meshState is the GPU-side vertex/index buffer set attached to a program as
// its mesh handle.
type meshState struct {
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// uniformState is the GPU-side uniform buffer and bind group attached to a
// program as its uniform handle. Nil for programs declaring no uniforms.
type uniformState struct {
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// wgpuBackend is the WebGPU implementation of the Backend interface.
// All methods run on the render loop goroutine, which is pinned to an OS
// thread before AcquireContext is called.
type wgpuBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat *wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	width         int
	height        int

	// msaaTextureView is the multisampled color target resolved into the
	// swapchain view each frame. Nil when MSAA is off.
	msaaTextureView *wgpu.TextureView

	depthTextureView *wgpu.TextureView

	// renderPassDescriptor is rebuilt on every surface (re)configuration and
	// reused across frames; only the swapchain view slot changes per frame.
	renderPassDescriptor *wgpu.RenderPassDescriptor

	// captureTexture receives a copy of every presented frame so CaptureFrame
	// can read back the most recent visuals without holding the swapchain.
	captureTexture *wgpu.Texture
	frameCaptured  bool

	// Per-frame state between BeginFrame and Present.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Backend = &wgpuBackend{}

// newWGPUBackend creates an unacquired WebGPU backend with the given
// presentation mode and sample count.
func newWGPUBackend(mode PresentMode, samples MSAASampleCount) Backend {
	b := &wgpuBackend{
		sampleCount: samples,
		presentMode: wgpu.PresentModeFifo,
	}
	b.SetPresentMode(mode)
	return b
}

func (b *wgpuBackend) AcquireContext(descriptor *wgpu.SurfaceDescriptor) error {
	if descriptor == nil {
		return fmt.Errorf("%w: no surface descriptor", ErrContextUnavailable)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(descriptor)
	if b.surface == nil {
		return fmt.Errorf("%w: surface creation failed", ErrContextUnavailable)
	}

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
	})
	if err != nil {
		return fmt.Errorf("%w: no compatible adapter: %v", ErrContextUnavailable, err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Preview Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: device request failed: %v", ErrContextUnavailable, err)
	}
	b.device = device
	b.queue = device.GetQueue()

	return nil
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuBackend) SurfaceSize() (int, int) {
	return b.width, b.height
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.width = width
	b.height = height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	// CopySrc lets every frame be mirrored into the capture texture.
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result is
		// written to the swapchain view as the ResolveTarget.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	} else {
		// No MSAA — the render pass draws directly to the swapchain view.
		b.msaaTextureView = nil
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	if b.captureTexture != nil {
		b.captureTexture.Release()
	}
	b.captureTexture, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Capture Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        *b.surfaceFormat,
		Usage:         wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		panic(err)
	}
	b.frameCaptured = false

	// Build the cached render pass descriptor for the main render target.
	// When MSAA is enabled, View is the MSAA texture and ResolveTarget is
	// set per-frame to the swapchain view. When disabled, View is set
	// per-frame to the swapchain view and ResolveTarget remains nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard // Don't store MSAA data, just resolve
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView, // nil when MSAA is off; set in BeginFrame
				ResolveTarget: nil,               // set per-frame when MSAA is on
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.1, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView, // Persistent until resize
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard, // Depth not needed after resolving
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuBackend) LinkProgram(p program.Program, geom *geometry.Descriptor) error {
	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Vertex().Source(),
		},
	})
	if err != nil {
		return err
	}
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Fragment().Source(),
		},
	})
	if err != nil {
		vs.Release()
		return err
	}
	defer vs.Release()
	defer fs.Release()

	refl := p.Reflection()
	table := refl.Uniforms

	var bindGroupLayouts []*wgpu.BindGroupLayout
	var us *uniformState
	if table.Size() > 0 {
		layout, layoutErr := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: "Uniform Bind Group Layout",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type: wgpu.BufferBindingTypeUniform,
					},
				},
			},
		})
		if layoutErr != nil {
			return layoutErr
		}
		bindGroupLayouts = append(bindGroupLayouts, layout)

		buf, bufErr := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Uniform Buffer",
			Size:  table.Size(),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if bufErr != nil {
			return bufErr
		}
		bindGroup, bgErr := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "Uniform Bind Group",
			Layout: layout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding: 0,
					Buffer:  buf,
					Size:    table.Size(),
				},
			},
		})
		if bgErr != nil {
			buf.Release()
			return bgErr
		}
		us = &uniformState{buffer: buf, bindGroup: bindGroup}
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Preview Pipeline Layout",
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		releaseUniformState(us)
		return err
	}

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Preview Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: refl.VertexEntry,
			Buffers:    b.vertexLayouts(refl.HasPosition, refl.HasTexCoord, geom),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: refl.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		releaseUniformState(us)
		return err
	}

	mesh, err := b.createMeshBuffers(geom)
	if err != nil {
		pipeline.Release()
		releaseUniformState(us)
		return err
	}

	p.SetPipelineHandle(pipeline)
	p.SetMeshHandle(mesh)
	if us != nil {
		p.SetUniformHandle(us)
	}
	return nil
}

// vertexLayouts derives the pipeline's vertex buffer layout from the geometry
// descriptor and the attribute locations the program consumes. Locations the
// program does not declare are skipped; a program consuming nothing gets no
// vertex buffer at all.
func (b *wgpuBackend) vertexLayouts(hasPosition, hasTexCoord bool, geom *geometry.Descriptor) []wgpu.VertexBufferLayout {
	var attributes []wgpu.VertexAttribute
	if hasPosition {
		format := wgpu.VertexFormatFloat32x2
		if geom.PositionComponents() == 3 {
			format = wgpu.VertexFormatFloat32x3
		}
		attributes = append(attributes, wgpu.VertexAttribute{
			ShaderLocation: 0,
			Offset:         0,
			Format:         format,
		})
	}
	if hasTexCoord {
		attributes = append(attributes, wgpu.VertexAttribute{
			ShaderLocation: 1,
			Offset:         geom.TexCoordOffset(),
			Format:         wgpu.VertexFormatFloat32x2,
		})
	}
	if len(attributes) == 0 {
		return nil
	}
	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: geom.Stride(),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attributes,
		},
	}
}

// createMeshBuffers uploads the geometry's vertex and index data.
func (b *wgpuBackend) createMeshBuffers(geom *geometry.Descriptor) (*meshState, error) {
	vertexBuffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: geom.Type().String() + " Vertex Buffer",
		Size:  uint64(len(geom.Vertices()) * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(vertexBuffer, 0, float32Bytes(geom.Vertices()))

	indexBuffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: geom.Type().String() + " Index Buffer",
		Size:  uint64(len(geom.Indices()) * 4),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vertexBuffer.Release()
		return nil, err
	}
	b.queue.WriteBuffer(indexBuffer, 0, uint32Bytes(geom.Indices()))

	return &meshState{
		vertexBuffer: vertexBuffer,
		indexBuffer:  indexBuffer,
		indexCount:   geom.IndexCount(),
	}, nil
}

func (b *wgpuBackend) RebindGeometry(p program.Program, geom *geometry.Descriptor) error {
	// The vertex layout is baked into the pipeline, so switching geometry
	// relinks from the already validated sources. The old handles are only
	// released once the relink has succeeded.
	oldPipeline := p.PipelineHandle()
	oldMesh := p.MeshHandle()
	oldUniforms := p.UniformHandle()
	p.SetPipelineHandle(nil)
	p.SetMeshHandle(nil)
	p.SetUniformHandle(nil)

	if err := b.LinkProgram(p, geom); err != nil {
		p.SetPipelineHandle(oldPipeline)
		p.SetMeshHandle(oldMesh)
		p.SetUniformHandle(oldUniforms)
		return err
	}

	releaseProgramHandles(oldPipeline, oldMesh, oldUniforms)
	return nil
}

func (b *wgpuBackend) DestroyProgram(p program.Program) {
	releaseProgramHandles(p.PipelineHandle(), p.MeshHandle(), p.UniformHandle())
	p.SetPipelineHandle(nil)
	p.SetMeshHandle(nil)
	p.SetUniformHandle(nil)
}

func releaseProgramHandles(pipelineHandle, meshHandle, uniformHandle any) {
	if pipeline, ok := pipelineHandle.(*wgpu.RenderPipeline); ok && pipeline != nil {
		pipeline.Release()
	}
	if mesh, ok := meshHandle.(*meshState); ok && mesh != nil {
		if mesh.vertexBuffer != nil {
			mesh.vertexBuffer.Release()
		}
		if mesh.indexBuffer != nil {
			mesh.indexBuffer.Release()
		}
	}
	if us, ok := uniformHandle.(*uniformState); ok {
		releaseUniformState(us)
	}
}

func releaseUniformState(us *uniformState) {
	if us == nil {
		return
	}
	if us.bindGroup != nil {
		us.bindGroup.Release()
	}
	if us.buffer != nil {
		us.buffer.Release()
	}
}

func (b *wgpuBackend) WriteUniform(p program.Program, offset uint64, data []byte) {
	us, ok := p.UniformHandle().(*uniformState)
	if !ok || us == nil {
		return
	}
	b.queue.WriteBuffer(us.buffer, offset, data)
}

func (b *wgpuBackend) BeginFrame() error {
	// The swapchain allows one acquired image at a time; a held frame surface
	// means the previous frame was never presented.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
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

	// When MSAA is enabled, the MSAA texture is the color attachment View and
	// the swapchain view is the ResolveTarget. When MSAA is off, the swapchain
	// view is the color attachment View directly and ResolveTarget is nil.
	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuBackend) DrawCall(p program.Program, indexCount int) {
	pipeline, ok := p.PipelineHandle().(*wgpu.RenderPipeline)
	if !ok || pipeline == nil {
		return
	}
	mesh, ok := p.MeshHandle().(*meshState)
	if !ok || mesh == nil {
		return
	}

	b.framePass.SetPipeline(pipeline)
	if us, ok := p.UniformHandle().(*uniformState); ok && us != nil {
		b.framePass.SetBindGroup(0, us.bindGroup, nil)
	}
	b.framePass.SetVertexBuffer(0, mesh.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(mesh.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(indexCount), 1, 0, 0, 0)
}

func (b *wgpuBackend) EndFrame() {
	b.framePass.End()

	// Mirror the frame into the capture texture before the swapchain image is
	// handed back, so CaptureFrame always sees the most recent visuals.
	if b.captureTexture != nil {
		b.frameEncoder.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{Texture: b.frameSurface},
			&wgpu.ImageCopyTexture{Texture: b.captureTexture},
			&wgpu.Extent3D{
				Width:              uint32(b.width),
				Height:             uint32(b.height),
				DepthOrArrayLayers: 1,
			},
		)
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)
	b.frameCaptured = true

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuBackend) Present() {
	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuBackend) CaptureImage() (*image.RGBA, error) {
	if !b.frameCaptured {
		return nil, fmt.Errorf("no frame has been rendered yet")
	}

	width, height := b.width, b.height
	bytesPerRow := width * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(height)

	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Capture Staging Buffer",
		Size:  stagingSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: b.captureTexture},
		&wgpu.ImageCopyBuffer{
			Buffer: staging,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(alignedBytesPerRow),
				RowsPerImage: uint32(height),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return nil, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	var mapErr error
	done := false
	err = staging.MapAsync(wgpu.MapModeRead, 0, stagingSize, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("staging buffer map failed: %v", status)
		}
		done = true
	})
	if err != nil {
		return nil, err
	}
	for !done {
		b.device.Poll(true, nil)
	}
	if mapErr != nil {
		return nil, mapErr
	}
	defer staging.Unmap()

	mapped := staging.GetMappedRange(0, uint(stagingSize))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bgra := b.surfaceFormat != nil &&
		(*b.surfaceFormat == wgpu.TextureFormatBGRA8Unorm || *b.surfaceFormat == wgpu.TextureFormatBGRA8UnormSrgb)
	for row := 0; row < height; row++ {
		src := mapped[row*alignedBytesPerRow : row*alignedBytesPerRow+bytesPerRow]
		dst := img.Pix[row*img.Stride : row*img.Stride+bytesPerRow]
		if bgra {
			for i := 0; i < bytesPerRow; i += 4 {
				dst[i] = src[i+2]
				dst[i+1] = src[i+1]
				dst[i+2] = src[i]
				dst[i+3] = src[i+3]
			}
		} else {
			copy(dst, src)
		}
	}
	return img, nil
}

func (b *wgpuBackend) ReleaseContext() {
	if b.captureTexture != nil {
		b.captureTexture.Release()
		b.captureTexture = nil
	}
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
		b.queue = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// float32Bytes packs a float32 slice into little-endian bytes for buffer uploads.
func float32Bytes(vals []float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// uint32Bytes packs a uint32 slice into little-endian bytes for buffer uploads.
func uint32Bytes(vals []uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

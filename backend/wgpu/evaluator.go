// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv"
)

// fenceTimeout is the maximum time Synchronize waits for the device.
const fenceTimeout = 5 * time.Second

// pipelineSet holds the GPU objects of one compiled kernel.
type pipelineSet struct {
	module   hal.ShaderModule
	bgLayout hal.BindGroupLayout
	pLayout  hal.PipelineLayout
	pipeline hal.ComputePipeline
}

func (p *pipelineSet) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pLayout != nil {
		device.DestroyPipelineLayout(p.pLayout)
		p.pLayout = nil
	}
	if p.bgLayout != nil {
		device.DestroyBindGroupLayout(p.bgLayout)
		p.bgLayout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// pendingDispatch tracks the per-dispatch resources freed once the
// fence covering the dispatch has signaled.
type pendingDispatch struct {
	bindGroup hal.BindGroup
	cmdBuf    hal.CommandBuffer
	uniform   hal.Buffer
	coords    hal.Buffer
}

// Evaluator dispatches stencil and patch kernels on the device.
//
// Compile builds one compute pipeline pair for the descriptor shape.
// EvalStencils and EvalPatches encode and submit a dispatch without
// waiting; Synchronize blocks until the device has drained every
// dispatch submitted before it and frees the transient resources they
// held. Destination buffers must not be read back between an Eval
// call and the Synchronize that covers it.
//
// Methods are safe for concurrent use.
type Evaluator struct {
	ctx *DeviceContext

	mu       sync.Mutex
	shape    subdiv.KernelShape
	compiled bool
	stencil  pipelineSet
	patch    pipelineSet

	// dummy is bound to absent derivative outputs.
	dummy hal.Buffer

	fence      hal.Fence
	fenceValue uint64
	pending    []pendingDispatch
}

// NewEvaluator creates an evaluator on the device context. Compile
// must be called before dispatching.
func NewEvaluator(ctx *DeviceContext) *Evaluator {
	return &Evaluator{ctx: ctx}
}

func uniformEntry() gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageRO(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
	}
}

func storageRW(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
	}
}

// stencilLayoutEntries matches the bindings of eval_stencils.wgsl.
func stencilLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(),
		storageRO(1), // src
		storageRW(2), // dst
		storageRO(3), // sizes
		storageRO(4), // offsets
		storageRO(5), // indices
		storageRO(6), // weights
	}
}

// patchLayoutEntries matches the bindings of eval_patches.wgsl.
func patchLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(),
		storageRO(1), // src
		storageRW(2), // dst
		storageRW(3), // du
		storageRW(4), // dv
		storageRO(5), // patch arrays
		storageRO(6), // patch indices
		storageRO(7), // patch params
		storageRO(8), // patch coords
	}
}

// buildPipeline compiles a specialized shader and assembles its
// pipeline objects.
func (e *Evaluator) buildPipeline(label, source string, entries []gputypes.BindGroupLayoutEntry) (pipelineSet, error) {
	var p pipelineSet

	module, err := compileShaderModule(e.ctx, label, source)
	if err != nil {
		return p, err
	}
	p.module = module

	bgLayout, err := e.ctx.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bgl",
		Entries: entries,
	})
	if err != nil {
		p.destroy(e.ctx.device)
		return pipelineSet{}, fmt.Errorf("wgpu: create bind group layout %s: %w", label, err)
	}
	p.bgLayout = bgLayout

	pLayout, err := e.ctx.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		p.destroy(e.ctx.device)
		return pipelineSet{}, fmt.Errorf("wgpu: create pipeline layout %s: %w", label, err)
	}
	p.pLayout = pLayout

	pipeline, err := e.ctx.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: pLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		p.destroy(e.ctx.device)
		return pipelineSet{}, fmt.Errorf("wgpu: create compute pipeline %s: %w", label, err)
	}
	p.pipeline = pipeline
	return p, nil
}

// Compile validates the descriptor set and builds the stencil and
// patch pipelines for its shape. Recompiling with a new shape drains
// outstanding work first.
func (e *Evaluator) Compile(srcDesc, dstDesc, duDesc, dvDesc subdiv.BufferDescriptor) error {
	if err := subdiv.ValidateDescriptors(srcDesc, dstDesc, duDesc, dvDesc); err != nil {
		return err
	}
	shape := subdiv.ShapeOf(srcDesc, dstDesc, duDesc, dvDesc)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.compiled {
		if err := e.synchronizeLocked(); err != nil {
			return err
		}
		e.stencil.destroy(e.ctx.device)
		e.patch.destroy(e.ctx.device)
		e.compiled = false
	}

	stencil, err := e.buildPipeline("subdiv_eval_stencils",
		specializeStencilShader(shape), stencilLayoutEntries())
	if err != nil {
		return err
	}
	patch, err := e.buildPipeline("subdiv_eval_patches",
		specializePatchShader(shape), patchLayoutEntries())
	if err != nil {
		stencil.destroy(e.ctx.device)
		return err
	}

	if e.fence == nil {
		fence, err := e.ctx.device.CreateFence()
		if err != nil {
			stencil.destroy(e.ctx.device)
			patch.destroy(e.ctx.device)
			return fmt.Errorf("wgpu: create fence: %w", err)
		}
		e.fence = fence
	}
	if e.dummy == nil {
		dummy, err := createStorageBuffer(e.ctx, "subdiv_dummy", 4,
			gputypes.BufferUsageStorage, nil)
		if err != nil {
			stencil.destroy(e.ctx.device)
			patch.destroy(e.ctx.device)
			return err
		}
		e.dummy = dummy
	}

	e.stencil = stencil
	e.patch = patch
	e.shape = shape
	e.compiled = true
	subdiv.Logger().Debug("wgpu: compiled evaluator", "shape", fmt.Sprintf("%+v", shape))
	return nil
}

// Shape returns the compiled kernel shape.
func (e *Evaluator) Shape() subdiv.KernelShape {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shape
}

func bufferEntry(binding uint32, buf hal.Buffer) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding: binding,
		Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   0, // entire buffer
		},
	}
}

// encodeAndSubmit creates the bind group, records one compute pass
// and submits it with the next fence value. Caller holds e.mu.
func (e *Evaluator) encodeAndSubmit(label string, p *pipelineSet,
	entries []gputypes.BindGroupEntry, workgroups uint32,
	uniform, coords hal.Buffer) error {

	bg, err := e.ctx.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label + "_bg",
		Layout:  p.bgLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group %s: %w", label, err)
	}

	encoder, err := e.ctx.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		e.ctx.device.DestroyBindGroup(bg)
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		e.ctx.device.DestroyBindGroup(bg)
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(workgroups, 1, 1)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		e.ctx.device.DestroyBindGroup(bg)
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}

	e.fenceValue++
	if err := e.ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}, e.fence, e.fenceValue); err != nil {
		e.ctx.device.FreeCommandBuffer(cmdBuf)
		e.ctx.device.DestroyBindGroup(bg)
		return fmt.Errorf("wgpu: submit %s: %w", label, err)
	}

	e.pending = append(e.pending, pendingDispatch{
		bindGroup: bg,
		cmdBuf:    cmdBuf,
		uniform:   uniform,
		coords:    coords,
	})
	subdiv.Logger().Debug("wgpu: dispatched", "kernel", label,
		"workgroups", workgroups, "fence_value", e.fenceValue)
	return nil
}

// EvalStencils submits stencils [start,end) of table for evaluation
// and returns without waiting. Stencil i writes destination element i.
func (e *Evaluator) EvalStencils(src *Buffer, srcDesc subdiv.BufferDescriptor,
	dst *Buffer, dstDesc subdiv.BufferDescriptor,
	table *StencilTable, start, end int) error {

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.compiled {
		return subdiv.ErrNotCompiled
	}
	if start < 0 || end < start || end > table.NumStencils() {
		return fmt.Errorf("%w: stencils [%d,%d) of %d",
			subdiv.ErrOutOfRange, start, end, table.NumStencils())
	}
	if start == end {
		return nil
	}

	uniform, err := createStorageBuffer(e.ctx, "subdiv_stencil_params", 16,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst,
		uint32Bytes([]uint32{
			uint32(srcDesc.Offset), uint32(dstDesc.Offset),
			uint32(start), uint32(end),
		}))
	if err != nil {
		return err
	}

	entries := []gputypes.BindGroupEntry{
		bufferEntry(0, uniform),
		bufferEntry(1, src.buf),
		bufferEntry(2, dst.buf),
		bufferEntry(3, table.sizes),
		bufferEntry(4, table.offsets),
		bufferEntry(5, table.indices),
		bufferEntry(6, table.weights),
	}
	if err := e.encodeAndSubmit("subdiv_eval_stencils", &e.stencil,
		entries, workgroupCount(end-start), uniform, nil); err != nil {
		e.ctx.device.DestroyBuffer(uniform)
		return err
	}
	return nil
}

// EvalPatches submits limit-point evaluation of coords and returns
// without waiting. Coordinate i writes destination element i.
func (e *Evaluator) EvalPatches(src *Buffer, srcDesc subdiv.BufferDescriptor,
	dst *Buffer, dstDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *PatchTable) error {

	return e.evalPatches(src, srcDesc, dst, dstDesc,
		nil, subdiv.BufferDescriptor{}, nil, subdiv.BufferDescriptor{}, coords, table)
}

// EvalPatchesWithDerivatives submits evaluation of limit points and
// first derivatives. The evaluator must have been compiled with
// derivative descriptors; du and dv receive the partials with respect
// to the coarse face parameterization.
func (e *Evaluator) EvalPatchesWithDerivatives(src *Buffer, srcDesc subdiv.BufferDescriptor,
	dst *Buffer, dstDesc subdiv.BufferDescriptor,
	du *Buffer, duDesc subdiv.BufferDescriptor,
	dv *Buffer, dvDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *PatchTable) error {

	return e.evalPatches(src, srcDesc, dst, dstDesc, du, duDesc, dv, dvDesc, coords, table)
}

func (e *Evaluator) evalPatches(src *Buffer, srcDesc subdiv.BufferDescriptor,
	dst *Buffer, dstDesc subdiv.BufferDescriptor,
	du *Buffer, duDesc subdiv.BufferDescriptor,
	dv *Buffer, dvDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *PatchTable) error {

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.compiled {
		return subdiv.ErrNotCompiled
	}
	if len(coords) == 0 {
		return nil
	}

	uniform, err := createStorageBuffer(e.ctx, "subdiv_patch_params_ub", 32,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst,
		uint32Bytes([]uint32{
			uint32(srcDesc.Offset), uint32(dstDesc.Offset),
			uint32(duDesc.Offset), uint32(dvDesc.Offset),
			uint32(len(coords)), 0, 0, 0,
		}))
	if err != nil {
		return err
	}
	coordBuf, err := createStorageBuffer(e.ctx, "subdiv_patch_coords",
		uint64(len(coords))*subdiv.PatchCoordWords*4,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst,
		coordBytes(coords))
	if err != nil {
		e.ctx.device.DestroyBuffer(uniform)
		return err
	}

	duBuf, dvBuf := e.dummy, e.dummy
	if du != nil {
		duBuf = du.buf
	}
	if dv != nil {
		dvBuf = dv.buf
	}

	entries := []gputypes.BindGroupEntry{
		bufferEntry(0, uniform),
		bufferEntry(1, src.buf),
		bufferEntry(2, dst.buf),
		bufferEntry(3, duBuf),
		bufferEntry(4, dvBuf),
		bufferEntry(5, table.arrays),
		bufferEntry(6, table.indices),
		bufferEntry(7, table.params),
		bufferEntry(8, coordBuf),
	}
	if err := e.encodeAndSubmit("subdiv_eval_patches", &e.patch,
		entries, workgroupCount(len(coords)), uniform, coordBuf); err != nil {
		e.ctx.device.DestroyBuffer(coordBuf)
		e.ctx.device.DestroyBuffer(uniform)
		return err
	}
	return nil
}

// synchronizeLocked waits for the last submitted fence value and
// frees the transient resources of completed dispatches.
func (e *Evaluator) synchronizeLocked() error {
	if e.fenceValue == 0 {
		return nil
	}
	ok, err := e.ctx.device.Wait(e.fence, e.fenceValue, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("wgpu: GPU timeout after %v", fenceTimeout)
	}
	for _, p := range e.pending {
		if p.cmdBuf != nil {
			e.ctx.device.FreeCommandBuffer(p.cmdBuf)
		}
		if p.bindGroup != nil {
			e.ctx.device.DestroyBindGroup(p.bindGroup)
		}
		if p.uniform != nil {
			e.ctx.device.DestroyBuffer(p.uniform)
		}
		if p.coords != nil {
			e.ctx.device.DestroyBuffer(p.coords)
		}
	}
	e.pending = e.pending[:0]
	return nil
}

// Synchronize blocks until every dispatch submitted before it has
// finished on the device. Destination buffers are safe to read back
// after it returns.
func (e *Evaluator) Synchronize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.synchronizeLocked()
}

// Destroy drains outstanding work and releases all GPU resources.
// The evaluator must not be used afterwards. Idempotent.
func (e *Evaluator) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.synchronizeLocked(); err != nil {
		subdiv.Logger().Warn("wgpu: destroy without drain", "error", err)
	}
	e.stencil.destroy(e.ctx.device)
	e.patch.destroy(e.ctx.device)
	if e.dummy != nil {
		e.ctx.device.DestroyBuffer(e.dummy)
		e.dummy = nil
	}
	if e.fence != nil {
		e.ctx.device.DestroyFence(e.fence)
		e.fence = nil
	}
	e.compiled = false
}

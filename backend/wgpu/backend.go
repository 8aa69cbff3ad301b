// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/backend"
)

func init() {
	backend.Register(backend.BackendWGPU, func() backend.Backend {
		return NewBackend()
	})
}

// WGPUBackend evaluates on a wgpu compute device. It implements the
// portable backend interface over host slices: inputs are uploaded,
// the kernel dispatched and the destination read back before
// returning. Applications wanting to keep data resident on the
// device should use Evaluator and Buffer directly.
type WGPUBackend struct {
	mu    sync.Mutex
	ctx   *DeviceContext
	cache *EvaluatorCache
}

// NewBackend creates an uninitialized wgpu backend. Init acquires
// the device.
func NewBackend() *WGPUBackend {
	return &WGPUBackend{}
}

// Name returns the registry name of the backend.
func (b *WGPUBackend) Name() string { return backend.BackendWGPU }

// Init acquires a compute-capable device. It returns
// ErrBackendNotAvailable wrapped when no adapter is usable.
func (b *WGPUBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx != nil {
		return nil
	}
	ctx, err := NewDeviceContext()
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrBackendNotAvailable, err)
	}
	b.ctx = ctx
	b.cache = NewEvaluatorCache(ctx, 0)
	return nil
}

// Close destroys cached evaluators and releases the device.
func (b *WGPUBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cache != nil {
		b.cache.Clear()
		b.cache = nil
	}
	if b.ctx != nil {
		b.ctx.Close()
		b.ctx = nil
	}
}

func (b *WGPUBackend) state() (*DeviceContext, *EvaluatorCache, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil, nil, backend.ErrNotInitialized
	}
	return b.ctx, b.cache, nil
}

// ApplyStencils uploads src and the stencil table, evaluates every
// stencil on the device and reads the result back into dst.
func (b *WGPUBackend) ApplyStencils(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor, table *subdiv.StencilTable) error {

	ctx, evals, err := b.state()
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}
	eval, err := evals.Get(srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
	if err != nil {
		return err
	}

	devTable, err := NewStencilTable(ctx, table)
	if err != nil {
		return err
	}
	defer devTable.Destroy()

	srcBuf, err := NewBufferFrom(ctx, src)
	if err != nil {
		return err
	}
	defer srcBuf.Destroy()
	dstBuf, err := NewBufferFrom(ctx, dst)
	if err != nil {
		return err
	}
	defer dstBuf.Destroy()

	if err := eval.EvalStencils(srcBuf, srcDesc, dstBuf, dstDesc,
		devTable, 0, table.NumStencils()); err != nil {
		return err
	}
	if err := eval.Synchronize(); err != nil {
		return err
	}
	return dstBuf.Read(dst)
}

// EvalPatches uploads src, the patch table and the coordinates,
// evaluates limit points on the device and reads the result back
// into dst.
func (b *WGPUBackend) EvalPatches(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {

	ctx, evals, err := b.state()
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}
	eval, err := evals.Get(srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
	if err != nil {
		return err
	}

	devTable, err := NewPatchTable(ctx, table)
	if err != nil {
		return err
	}
	defer devTable.Destroy()

	srcBuf, err := NewBufferFrom(ctx, src)
	if err != nil {
		return err
	}
	defer srcBuf.Destroy()
	dstBuf, err := NewBufferFrom(ctx, dst)
	if err != nil {
		return err
	}
	defer dstBuf.Destroy()

	if err := eval.EvalPatches(srcBuf, srcDesc, dstBuf, dstDesc, coords, devTable); err != nil {
		return err
	}
	if err := eval.Synchronize(); err != nil {
		return err
	}
	return dstBuf.Read(dst)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/subdiv"
)

// newTestContext creates a device context backed by the noop HAL
// backend. Dispatches complete immediately and buffers hold no data,
// so tests cover object lifecycle and validation, not kernel output.
func newTestContext(t *testing.T) *DeviceContext {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("no noop adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return NewDeviceContextFrom(openDev.Device, openDev.Queue)
}

func testDescriptors(withDerivs bool) (src, dst, du, dv subdiv.BufferDescriptor) {
	src = subdiv.BufferDescriptor{Offset: 0, Length: 3, Stride: 3}
	dst = subdiv.BufferDescriptor{Offset: 0, Length: 3, Stride: 3}
	if withDerivs {
		dst = subdiv.BufferDescriptor{Offset: 0, Length: 3, Stride: 9}
		du = subdiv.BufferDescriptor{Offset: 3, Length: 3, Stride: 9}
		dv = subdiv.BufferDescriptor{Offset: 6, Length: 3, Stride: 9}
	}
	return src, dst, du, dv
}

func TestEvaluatorCompileAndDestroy(t *testing.T) {
	ctx := newTestContext(t)
	e := NewEvaluator(ctx)
	src, dst, du, dv := testDescriptors(true)
	if err := e.Compile(src, dst, du, dv); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	shape := e.Shape()
	if !shape.HasDerivatives() {
		t.Error("compiled shape should carry derivatives")
	}

	// Recompile with a different shape.
	src2, dst2, du2, dv2 := testDescriptors(false)
	if err := e.Compile(src2, dst2, du2, dv2); err != nil {
		t.Fatalf("recompile: %v", err)
	}
	if e.Shape().HasDerivatives() {
		t.Error("recompiled shape should not carry derivatives")
	}

	e.Destroy()
	e.Destroy() // idempotent
}

func TestEvaluatorCompileRejectsBadDescriptors(t *testing.T) {
	ctx := newTestContext(t)
	e := NewEvaluator(ctx)
	defer e.Destroy()

	bad := subdiv.BufferDescriptor{Offset: 0, Length: 4, Stride: 3}
	good := subdiv.BufferDescriptor{Offset: 0, Length: 3, Stride: 3}
	err := e.Compile(bad, good, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
	if !errors.Is(err, subdiv.ErrInvalidDescriptor) {
		t.Fatalf("Compile error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestEvaluatorDispatchBeforeCompile(t *testing.T) {
	ctx := newTestContext(t)
	e := NewEvaluator(ctx)
	defer e.Destroy()

	src, dst, _, _ := testDescriptors(false)
	err := e.EvalStencils(nil, src, nil, dst, &StencilTable{}, 0, 0)
	if !errors.Is(err, subdiv.ErrNotCompiled) {
		t.Errorf("EvalStencils error = %v, want ErrNotCompiled", err)
	}
	err = e.EvalPatches(nil, src, nil, dst, []subdiv.PatchCoord{{}}, &PatchTable{})
	if !errors.Is(err, subdiv.ErrNotCompiled) {
		t.Errorf("EvalPatches error = %v, want ErrNotCompiled", err)
	}
}

func TestEvaluatorStencilRangeChecked(t *testing.T) {
	ctx := newTestContext(t)
	e := NewEvaluator(ctx)
	defer e.Destroy()

	src, dst, du, dv := testDescriptors(false)
	if err := e.Compile(src, dst, du, dv); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	host, err := subdiv.NewStencilTable([]subdiv.Stencil{
		{Indices: []int32{0}, Weights: []float32{1}},
		{Indices: []int32{1}, Weights: []float32{1}},
	})
	if err != nil {
		t.Fatalf("NewStencilTable: %v", err)
	}
	table, err := NewStencilTable(ctx, host)
	if err != nil {
		t.Fatalf("device StencilTable: %v", err)
	}
	defer table.Destroy()

	srcBuf, err := NewBuffer(ctx, 6)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer srcBuf.Destroy()
	dstBuf, err := NewBuffer(ctx, 6)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer dstBuf.Destroy()

	if err := e.EvalStencils(srcBuf, src, dstBuf, dst, table, 0, 3); !errors.Is(err, subdiv.ErrOutOfRange) {
		t.Errorf("end beyond table: error = %v, want ErrOutOfRange", err)
	}
	if err := e.EvalStencils(srcBuf, src, dstBuf, dst, table, -1, 2); !errors.Is(err, subdiv.ErrOutOfRange) {
		t.Errorf("negative start: error = %v, want ErrOutOfRange", err)
	}
	// Empty range is a no-op, not an error.
	if err := e.EvalStencils(srcBuf, src, dstBuf, dst, table, 1, 1); err != nil {
		t.Errorf("empty range: %v", err)
	}
}

func TestNewCompiled(t *testing.T) {
	ctx := newTestContext(t)
	src, dst, du, dv := testDescriptors(true)
	e, err := NewCompiled(ctx, src, dst, du, dv)
	if err != nil {
		t.Fatalf("NewCompiled: %v", err)
	}
	defer e.Destroy()
	if !e.Shape().HasDerivatives() {
		t.Error("compiled shape should carry derivatives")
	}

	bad := subdiv.BufferDescriptor{Length: 4, Stride: 3}
	good := subdiv.BufferDescriptor{Length: 3, Stride: 3}
	if _, err := NewCompiled(ctx, bad, good, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{}); !errors.Is(err, subdiv.ErrInvalidDescriptor) {
		t.Fatalf("error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestEvaluatorEmptyPatchDispatch(t *testing.T) {
	ctx := newTestContext(t)
	e := NewEvaluator(ctx)
	defer e.Destroy()

	src, dst, du, dv := testDescriptors(false)
	if err := e.Compile(src, dst, du, dv); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := e.EvalPatches(nil, src, nil, dst, nil, &PatchTable{}); err != nil {
		t.Errorf("empty coords: %v", err)
	}
	if err := e.Synchronize(); err != nil {
		t.Errorf("Synchronize with nothing pending: %v", err)
	}
}

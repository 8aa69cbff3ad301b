// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "github.com/gogpu/subdiv"

// NewCompiled creates an evaluator on ctx and compiles it for the
// descriptor set in one step.
func NewCompiled(ctx *DeviceContext, srcDesc, dstDesc, duDesc, dvDesc subdiv.BufferDescriptor) (*Evaluator, error) {
	e := NewEvaluator(ctx)
	if err := e.Compile(srcDesc, dstDesc, duDesc, dvDesc); err != nil {
		e.Destroy()
		return nil, err
	}
	return e, nil
}

// EvalStencils evaluates every stencil of table through eval. A nil
// eval compiles a throwaway evaluator on ctx for the call, which is
// convenient but expensive in a hot loop; the call then blocks until
// the dispatch has drained. With a non-nil eval the dispatch is
// submitted asynchronously like the method form.
func EvalStencils(eval *Evaluator, ctx *DeviceContext,
	src *Buffer, srcDesc subdiv.BufferDescriptor,
	dst *Buffer, dstDesc subdiv.BufferDescriptor, table *StencilTable) error {

	if eval == nil {
		e, err := NewCompiled(ctx, srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
		if err != nil {
			return err
		}
		defer e.Destroy()
		if err := e.EvalStencils(src, srcDesc, dst, dstDesc, table, 0, table.NumStencils()); err != nil {
			return err
		}
		return e.Synchronize()
	}
	return eval.EvalStencils(src, srcDesc, dst, dstDesc, table, 0, table.NumStencils())
}

// EvalPatches evaluates limit points at coords through eval. A nil
// eval compiles a throwaway evaluator on ctx and blocks until the
// dispatch has drained.
func EvalPatches(eval *Evaluator, ctx *DeviceContext,
	src *Buffer, srcDesc subdiv.BufferDescriptor,
	dst *Buffer, dstDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *PatchTable) error {

	if eval == nil {
		e, err := NewCompiled(ctx, srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
		if err != nil {
			return err
		}
		defer e.Destroy()
		if err := e.EvalPatches(src, srcDesc, dst, dstDesc, coords, table); err != nil {
			return err
		}
		return e.Synchronize()
	}
	return eval.EvalPatches(src, srcDesc, dst, dstDesc, coords, table)
}

// EvalPatchesWithDerivatives evaluates limit points and first
// derivatives at coords through eval. A nil eval compiles a throwaway
// evaluator on ctx and blocks until the dispatch has drained.
func EvalPatchesWithDerivatives(eval *Evaluator, ctx *DeviceContext,
	src *Buffer, srcDesc subdiv.BufferDescriptor,
	dst *Buffer, dstDesc subdiv.BufferDescriptor,
	du *Buffer, duDesc subdiv.BufferDescriptor,
	dv *Buffer, dvDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *PatchTable) error {

	if eval == nil {
		e, err := NewCompiled(ctx, srcDesc, dstDesc, duDesc, dvDesc)
		if err != nil {
			return err
		}
		defer e.Destroy()
		if err := e.EvalPatchesWithDerivatives(src, srcDesc, dst, dstDesc,
			du, duDesc, dv, dvDesc, coords, table); err != nil {
			return err
		}
		return e.Synchronize()
	}
	return eval.EvalPatchesWithDerivatives(src, srcDesc, dst, dstDesc,
		du, duDesc, dv, dvDesc, coords, table)
}

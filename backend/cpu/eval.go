package cpu

import "github.com/gogpu/subdiv"

// NewCompiled creates an evaluator and compiles it for the descriptor
// set in one step.
func NewCompiled(srcDesc, dstDesc, duDesc, dvDesc subdiv.BufferDescriptor, opts ...Option) (*Evaluator, error) {
	e := NewEvaluator(opts...)
	if err := e.Compile(srcDesc, dstDesc, duDesc, dvDesc); err != nil {
		e.Destroy()
		return nil, err
	}
	return e, nil
}

// EvalStencils evaluates every stencil of table through eval. A nil
// eval compiles a throwaway evaluator for the call, which is
// convenient but expensive in a hot loop; the call then blocks until
// the result is complete. With a non-nil eval the dispatch is queued
// asynchronously like the method form.
func EvalStencils(eval *Evaluator, src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor, table *subdiv.StencilTable) error {

	if eval == nil {
		e, err := NewCompiled(srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
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
// eval compiles a throwaway evaluator and blocks until complete.
func EvalPatches(eval *Evaluator, src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {

	if eval == nil {
		e, err := NewCompiled(srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
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
// evaluator and blocks until complete.
func EvalPatchesWithDerivatives(eval *Evaluator, src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	du []float32, duDesc subdiv.BufferDescriptor,
	dv []float32, dvDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {

	if eval == nil {
		e, err := NewCompiled(srcDesc, dstDesc, duDesc, dvDesc)
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

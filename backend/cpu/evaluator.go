package cpu

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/internal/kernel"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWorkers sets the number of goroutines an evaluation is split
// across. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Evaluator runs stencil and patch kernels on host slices.
//
// Compile fixes the descriptor shape before dispatch. EvalStencils and
// EvalPatches enqueue work on the evaluator's command stream and
// return without waiting; Synchronize blocks until all queued work has
// finished. The caller must not read destination slices or mutate
// sources between an Eval call and the Synchronize that covers it.
//
// Methods are safe for concurrent use; queued evaluations run in
// submission order.
type Evaluator struct {
	stream  *stream
	workers int

	mu       sync.Mutex
	shape    subdiv.KernelShape
	compiled bool
}

// NewEvaluator creates an evaluator with an idle command stream.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		stream:  newStream(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile validates the descriptor set and fixes the evaluator's
// kernel shape. Subsequent dispatches trust their descriptors to
// match; only Compile checks them. May be called again to re-shape
// the evaluator once outstanding work has been synchronized.
func (e *Evaluator) Compile(srcDesc, dstDesc, duDesc, dvDesc subdiv.BufferDescriptor) error {
	if err := subdiv.ValidateDescriptors(srcDesc, dstDesc, duDesc, dvDesc); err != nil {
		return err
	}
	shape := subdiv.ShapeOf(srcDesc, dstDesc, duDesc, dvDesc)

	e.mu.Lock()
	e.shape = shape
	e.compiled = true
	e.mu.Unlock()

	subdiv.Logger().Debug("cpu: compiled evaluator",
		"shape", fmt.Sprintf("%+v", shape), "workers", e.workers)
	return nil
}

// Shape returns the compiled kernel shape.
func (e *Evaluator) Shape() subdiv.KernelShape {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shape
}

// EvalStencils queues stencils [start,end) of table for evaluation
// and returns immediately. Stencil i writes destination element i.
func (e *Evaluator) EvalStencils(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	table *subdiv.StencilTable, start, end int) error {

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
	return e.submit(start, end, func(lo, hi int) {
		kernel.ApplyStencils(src, srcDesc, dst, dstDesc, table, lo, hi)
	})
}

// EvalPatches queues limit-point evaluation of coords and returns
// immediately. Coordinate i writes destination element i.
func (e *Evaluator) EvalPatches(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {

	return e.evalPatches(src, srcDesc, dst, dstDesc,
		nil, subdiv.BufferDescriptor{}, nil, subdiv.BufferDescriptor{}, coords, table)
}

// EvalPatchesWithDerivatives queues evaluation of limit points and
// first derivatives. The derivative outputs are the partials with
// respect to the coarse face parameterization.
func (e *Evaluator) EvalPatchesWithDerivatives(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	du []float32, duDesc subdiv.BufferDescriptor,
	dv []float32, dvDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {

	return e.evalPatches(src, srcDesc, dst, dstDesc, du, duDesc, dv, dvDesc, coords, table)
}

func (e *Evaluator) evalPatches(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	du []float32, duDesc subdiv.BufferDescriptor,
	dv []float32, dvDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.compiled {
		return subdiv.ErrNotCompiled
	}
	if len(coords) == 0 {
		return nil
	}
	return e.submit(0, len(coords), func(lo, hi int) {
		kernel.EvalPatches(src, srcDesc, dst, dstDesc, du, duDesc, dv, dvDesc,
			coords, table, lo, hi)
	})
}

// submit enqueues one command that splits [start,end) across the
// worker pool. Disjoint destination ranges per worker, so no
// synchronization is needed beyond the group wait.
func (e *Evaluator) submit(start, end int, run func(lo, hi int)) error {
	workers := e.workers
	ok := e.stream.enqueue(func() {
		n := end - start
		if workers > n {
			workers = n
		}
		chunk := (n + workers - 1) / workers
		var g errgroup.Group
		for lo := start; lo < end; lo += chunk {
			hi := lo + chunk
			if hi > end {
				hi = end
			}
			g.Go(func() error {
				run(lo, hi)
				return nil
			})
		}
		_ = g.Wait()
	})
	if !ok {
		return fmt.Errorf("%w: command stream closed", subdiv.ErrDestroyed)
	}
	return nil
}

// Synchronize blocks until every evaluation queued before it has
// finished. Destination slices are safe to read after it returns.
func (e *Evaluator) Synchronize() error {
	e.stream.synchronize()
	return nil
}

// Destroy drains outstanding work and stops the command stream. The
// evaluator must not be used afterwards.
func (e *Evaluator) Destroy() {
	e.stream.close()
}

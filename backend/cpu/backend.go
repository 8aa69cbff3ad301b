package cpu

import (
	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/backend"
	"github.com/gogpu/subdiv/cache"
)

func init() {
	backend.Register(backend.BackendCPU, func() backend.Backend {
		return New()
	})
}

// CPUBackend implements backend.Backend with a cache of compiled
// evaluator instances keyed by kernel shape.
type CPUBackend struct {
	evaluators *cache.ShardedCache[subdiv.KernelShape, *Evaluator]
}

// New creates the cpu backend.
func New() *CPUBackend {
	return &CPUBackend{
		evaluators: cache.NewShardedWithEvict(16, subdiv.KernelShape.Hash,
			func(_ subdiv.KernelShape, e *Evaluator) { e.Destroy() }),
	}
}

// Name returns "cpu".
func (b *CPUBackend) Name() string { return backend.BackendCPU }

// Init is a no-op; the cpu backend has no device to acquire.
func (b *CPUBackend) Init() error {
	subdiv.Logger().Debug("cpu: backend initialized")
	return nil
}

// Close destroys all cached evaluator instances.
func (b *CPUBackend) Close() {
	b.evaluators.Clear()
}

// instance returns a compiled evaluator for the descriptor set,
// compiling one on first use.
func (b *CPUBackend) instance(srcDesc, dstDesc, duDesc, dvDesc subdiv.BufferDescriptor) (*Evaluator, error) {
	key := subdiv.ShapeOf(srcDesc, dstDesc, duDesc, dvDesc)
	return b.evaluators.GetOrCreate(key, func() (*Evaluator, error) {
		e := NewEvaluator()
		if err := e.Compile(srcDesc, dstDesc, duDesc, dvDesc); err != nil {
			e.Destroy()
			return nil, err
		}
		return e, nil
	})
}

// ApplyStencils computes every stencil in table and blocks until the
// destination is written.
func (b *CPUBackend) ApplyStencils(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	table *subdiv.StencilTable) error {

	if err := table.Validate(); err != nil {
		return err
	}
	e, err := b.instance(srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
	if err != nil {
		return err
	}
	if err := e.EvalStencils(src, srcDesc, dst, dstDesc, table, 0, table.NumStencils()); err != nil {
		return err
	}
	return e.Synchronize()
}

// EvalPatches evaluates every coordinate against table and blocks
// until the destination is written.
func (b *CPUBackend) EvalPatches(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable) error {

	if err := table.Validate(); err != nil {
		return err
	}
	e, err := b.instance(srcDesc, dstDesc, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{})
	if err != nil {
		return err
	}
	if err := e.EvalPatches(src, srcDesc, dst, dstDesc, coords, table); err != nil {
		return err
	}
	return e.Synchronize()
}

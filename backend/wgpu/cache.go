// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/cache"
)

// EvaluatorCache hands out compiled evaluators keyed by kernel shape.
// A shape seen for the first time triggers a Compile; evicted
// evaluators are drained and destroyed.
type EvaluatorCache struct {
	ctx        *DeviceContext
	evaluators *cache.ShardedCache[subdiv.KernelShape, *Evaluator]
}

// NewEvaluatorCache creates a cache holding up to capacity compiled
// evaluators. capacity <= 0 uses the cache default.
func NewEvaluatorCache(ctx *DeviceContext, capacity int) *EvaluatorCache {
	c := &EvaluatorCache{ctx: ctx}
	c.evaluators = cache.NewShardedWithEvict(capacity, subdiv.KernelShape.Hash,
		func(_ subdiv.KernelShape, e *Evaluator) { e.Destroy() })
	return c
}

// Get returns the evaluator compiled for the descriptor set,
// compiling one on first use.
func (c *EvaluatorCache) Get(srcDesc, dstDesc, duDesc, dvDesc subdiv.BufferDescriptor) (*Evaluator, error) {
	if err := subdiv.ValidateDescriptors(srcDesc, dstDesc, duDesc, dvDesc); err != nil {
		return nil, err
	}
	shape := subdiv.ShapeOf(srcDesc, dstDesc, duDesc, dvDesc)
	return c.evaluators.GetOrCreate(shape, func() (*Evaluator, error) {
		e := NewEvaluator(c.ctx)
		if err := e.Compile(srcDesc, dstDesc, duDesc, dvDesc); err != nil {
			return nil, err
		}
		return e, nil
	})
}

// Len reports the number of compiled evaluators held.
func (c *EvaluatorCache) Len() int { return c.evaluators.Len() }

// Clear destroys every cached evaluator.
func (c *EvaluatorCache) Clear() { c.evaluators.Clear() }

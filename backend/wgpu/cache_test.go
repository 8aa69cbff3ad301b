// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/subdiv"
)

func TestEvaluatorCacheReuse(t *testing.T) {
	ctx := newTestContext(t)
	c := NewEvaluatorCache(ctx, 0)
	defer c.Clear()

	src, dst, du, dv := testDescriptors(false)
	e1, err := c.Get(src, dst, du, dv)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	e2, err := c.Get(src, dst, du, dv)
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if e1 != e2 {
		t.Error("same shape should reuse the compiled evaluator")
	}

	// Offsets are not part of the shape.
	shifted := src
	shifted.Offset = 100
	e3, err := c.Get(shifted, dst, du, dv)
	if err != nil {
		t.Fatalf("Get shifted: %v", err)
	}
	if e3 != e1 {
		t.Error("offset change should not trigger a recompile")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	// A different stride is a new kernel.
	wide := dst
	wide.Stride = 16
	e4, err := c.Get(src, wide, du, dv)
	if err != nil {
		t.Fatalf("Get wide: %v", err)
	}
	if e4 == e1 {
		t.Error("stride change should compile a distinct evaluator")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestEvaluatorCacheRejectsBadDescriptors(t *testing.T) {
	ctx := newTestContext(t)
	c := NewEvaluatorCache(ctx, 0)
	defer c.Clear()

	bad := subdiv.BufferDescriptor{Offset: -1, Length: 3, Stride: 3}
	good := subdiv.BufferDescriptor{Offset: 0, Length: 3, Stride: 3}
	if _, err := c.Get(bad, good, subdiv.BufferDescriptor{}, subdiv.BufferDescriptor{}); !errors.Is(err, subdiv.ErrInvalidDescriptor) {
		t.Fatalf("error = %v, want ErrInvalidDescriptor", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed Get should cache nothing, Len = %d", c.Len())
	}
}

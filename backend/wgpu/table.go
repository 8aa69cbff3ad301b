// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv"
)

// tableUsage is the usage of read-only table buffers.
const tableUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst

// StencilTable is the device-resident form of a stencil table: the
// four flat arrays uploaded into storage buffers. Immutable after
// upload; shareable across evaluators on the same device.
type StencilTable struct {
	ctx         *DeviceContext
	sizes       hal.Buffer
	offsets     hal.Buffer
	indices     hal.Buffer
	weights     hal.Buffer
	numStencils int
}

// NewStencilTable validates table and uploads it to the device.
func NewStencilTable(ctx *DeviceContext, table *subdiv.StencilTable) (*StencilTable, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	t := &StencilTable{ctx: ctx, numStencils: table.NumStencils()}
	specs := []struct {
		target *hal.Buffer
		label  string
		data   []byte
	}{
		{&t.sizes, "subdiv_stencil_sizes", int32Bytes(table.Sizes)},
		{&t.offsets, "subdiv_stencil_offsets", int32Bytes(table.Offsets)},
		{&t.indices, "subdiv_stencil_indices", int32Bytes(table.Indices)},
		{&t.weights, "subdiv_stencil_weights", float32Bytes(table.Weights)},
	}
	for _, s := range specs {
		buf, err := createStorageBuffer(ctx, s.label, uint64(len(s.data)), tableUsage, s.data)
		if err != nil {
			t.Destroy()
			return nil, err
		}
		*s.target = buf
	}
	return t, nil
}

// NumStencils returns the stencil count.
func (t *StencilTable) NumStencils() int { return t.numStencils }

// Destroy releases the table's device buffers. Idempotent.
func (t *StencilTable) Destroy() {
	for _, buf := range []*hal.Buffer{&t.sizes, &t.offsets, &t.indices, &t.weights} {
		if *buf != nil {
			t.ctx.device.DestroyBuffer(*buf)
			*buf = nil
		}
	}
}

// PatchTable is the device-resident form of a patch table: run
// descriptors, control-point indices and packed patch params in
// storage buffers. Immutable after upload.
type PatchTable struct {
	ctx        *DeviceContext
	arrays     hal.Buffer
	indices    hal.Buffer
	params     hal.Buffer
	numPatches int
}

// NewPatchTable validates table and uploads it to the device.
func NewPatchTable(ctx *DeviceContext, table *subdiv.PatchTable) (*PatchTable, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	arrayWords := make([]int32, 0, len(table.Arrays)*subdiv.PatchArrayWords)
	for _, a := range table.Arrays {
		arrayWords = append(arrayWords,
			int32(a.Basis), a.NumControlVertices, a.IndexBase, a.PrimitiveIDBase, a.NumPatches)
	}
	paramWords := make([]uint32, 0, len(table.Params)*2)
	for _, p := range table.Params {
		paramWords = append(paramWords, p.Field0, p.Field1)
	}

	t := &PatchTable{ctx: ctx, numPatches: table.NumPatches()}
	specs := []struct {
		target *hal.Buffer
		label  string
		data   []byte
	}{
		{&t.arrays, "subdiv_patch_arrays", int32Bytes(arrayWords)},
		{&t.indices, "subdiv_patch_indices", int32Bytes(table.Indices)},
		{&t.params, "subdiv_patch_params", uint32Bytes(paramWords)},
	}
	for _, s := range specs {
		buf, err := createStorageBuffer(ctx, s.label, uint64(len(s.data)), tableUsage, s.data)
		if err != nil {
			t.Destroy()
			return nil, err
		}
		*s.target = buf
	}
	return t, nil
}

// NumPatches returns the total patch count.
func (t *PatchTable) NumPatches() int { return t.numPatches }

// Destroy releases the table's device buffers. Idempotent.
func (t *PatchTable) Destroy() {
	for _, buf := range []*hal.Buffer{&t.arrays, &t.indices, &t.params} {
		if *buf != nil {
			t.ctx.device.DestroyBuffer(*buf)
			*buf = nil
		}
	}
}

// coordBytes packs patch coordinates in the device layout: two i32
// words (array index, patch index) then two f32 words (s, t).
func coordBytes(coords []subdiv.PatchCoord) []byte {
	buf := make([]byte, 0, len(coords)*subdiv.PatchCoordWords*4)
	for _, c := range coords {
		buf = append(buf, int32Bytes([]int32{c.ArrayIndex, c.PatchIndex})...)
		buf = append(buf, float32Bytes([]float32{c.S, c.T})...)
	}
	return buf
}

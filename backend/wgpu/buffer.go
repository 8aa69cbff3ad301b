// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv"
)

// readbackTimeout is the maximum time to wait for a staging copy.
const readbackTimeout = 5 * time.Second

func float32Bytes(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func int32Bytes(data []int32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

func uint32Bytes(data []uint32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// createStorageBuffer creates a device buffer and uploads data into
// it. A nil data slice leaves the buffer zeroed.
func createStorageBuffer(ctx *DeviceContext, label string, size uint64, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	const minBufSize = 4
	if size < minBufSize {
		size = minBufSize
	}
	buf, err := ctx.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s buffer: %w", label, err)
	}
	if len(data) > 0 {
		ctx.queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// Buffer is a device-resident primvar buffer of 32-bit floats, usable
// as the source or destination of an evaluation.
type Buffer struct {
	ctx *DeviceContext
	buf hal.Buffer
	n   int
}

// NewBuffer allocates a device buffer of n floats.
func NewBuffer(ctx *DeviceContext, n int) (*Buffer, error) {
	buf, err := createStorageBuffer(ctx, "subdiv_primvar", uint64(n)*4,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst|gputypes.BufferUsageCopySrc, nil)
	if err != nil {
		return nil, err
	}
	return &Buffer{ctx: ctx, buf: buf, n: n}, nil
}

// NewBufferFrom allocates a device buffer holding a copy of data.
func NewBufferFrom(ctx *DeviceContext, data []float32) (*Buffer, error) {
	b, err := NewBuffer(ctx, len(data))
	if err != nil {
		return nil, err
	}
	b.Upload(data)
	return b, nil
}

// Len returns the buffer size in floats.
func (b *Buffer) Len() int { return b.n }

// Upload copies data into the buffer starting at element 0.
func (b *Buffer) Upload(data []float32) {
	b.ctx.queue.WriteBuffer(b.buf, 0, float32Bytes(data))
}

// Read blocks until all prior submissions affecting the buffer have
// drained, then copies its contents into dst. It goes through a
// staging buffer so the storage buffer itself never needs map access.
func (b *Buffer) Read(dst []float32) error {
	if len(dst) > b.n {
		return fmt.Errorf("%w: read %d floats from buffer of %d",
			subdiv.ErrOutOfRange, len(dst), b.n)
	}
	size := uint64(len(dst)) * 4

	staging, err := b.ctx.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "subdiv_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer b.ctx.device.DestroyBuffer(staging)

	encoder, err := b.ctx.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "subdiv_readback",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("subdiv_readback"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.ctx.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.ctx.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.ctx.device.DestroyFence(fence)

	if err := b.ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit readback: %w", err)
	}
	ok, err := b.ctx.device.Wait(fence, 1, readbackTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for readback: %w", err)
	}
	if !ok {
		return fmt.Errorf("wgpu: readback timeout after %v", readbackTimeout)
	}

	raw := make([]byte, size)
	if err := b.ctx.queue.ReadBuffer(staging, 0, raw); err != nil {
		return fmt.Errorf("wgpu: read staging buffer: %w", err)
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return nil
}

// Destroy releases the device buffer. Idempotent.
func (b *Buffer) Destroy() {
	if b.buf != nil {
		b.ctx.device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}

package subdiv

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// KernelShape is the part of a descriptor set a compiled kernel
// depends on: element lengths and strides, and whether derivative
// outputs exist. Buffer offsets and evaluation ranges are dispatch
// arguments, so descriptor sets differing only in Offset share one
// compiled kernel. Used as the evaluator instance cache key.
type KernelShape struct {
	SrcLength, SrcStride int
	DstLength, DstStride int
	DuLength, DuStride   int
	DvLength, DvStride   int
}

// ShapeOf extracts the kernel shape of a descriptor set. Zero-valued
// derivative descriptors contribute zero fields, meaning no
// derivative kernel.
func ShapeOf(srcDesc, dstDesc, duDesc, dvDesc BufferDescriptor) KernelShape {
	return KernelShape{
		SrcLength: srcDesc.Length, SrcStride: srcDesc.Stride,
		DstLength: dstDesc.Length, DstStride: dstDesc.Stride,
		DuLength: duDesc.Length, DuStride: duDesc.Stride,
		DvLength: dvDesc.Length, DvStride: dvDesc.Stride,
	}
}

// HasDerivatives reports whether the shape includes derivative outputs.
func (s KernelShape) HasDerivatives() bool {
	return s.DuLength > 0 || s.DvLength > 0
}

// Hash computes an FNV-1a hash of the shape for cache shard selection.
func (s KernelShape) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range [...]int{
		s.SrcLength, s.SrcStride, s.DstLength, s.DstStride,
		s.DuLength, s.DuStride, s.DvLength, s.DvStride,
	} {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// ValidateDescriptors checks a descriptor set the way Compile does:
// src and dst must be valid and agree on element length; derivative
// descriptors must each be zero (absent) or valid with the dst length.
func ValidateDescriptors(srcDesc, dstDesc, duDesc, dvDesc BufferDescriptor) error {
	if !srcDesc.Valid() {
		return fmt.Errorf("%w: src %v", ErrInvalidDescriptor, srcDesc)
	}
	if !dstDesc.Valid() {
		return fmt.Errorf("%w: dst %v", ErrInvalidDescriptor, dstDesc)
	}
	if srcDesc.Length != dstDesc.Length {
		return fmt.Errorf("%w: src length %d != dst length %d",
			ErrInvalidDescriptor, srcDesc.Length, dstDesc.Length)
	}
	for _, d := range []struct {
		name string
		desc BufferDescriptor
	}{{"du", duDesc}, {"dv", dvDesc}} {
		if d.desc.IsZero() {
			continue
		}
		if !d.desc.Valid() {
			return fmt.Errorf("%w: %s %v", ErrInvalidDescriptor, d.name, d.desc)
		}
		if d.desc.Length != dstDesc.Length {
			return fmt.Errorf("%w: %s length %d != dst length %d",
				ErrInvalidDescriptor, d.name, d.desc.Length, dstDesc.Length)
		}
	}
	return nil
}

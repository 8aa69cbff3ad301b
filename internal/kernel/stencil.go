// Package kernel holds the scalar evaluation kernels shared by the
// cpu backend and mirrored by the wgpu backend's compute shaders.
package kernel

import "github.com/gogpu/subdiv"

// ApplyStencils computes refined points [start,end) as weighted sums
// of control points. Stencil i writes destination element i; the
// element width is dstDesc.Length.
func ApplyStencils(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	table *subdiv.StencilTable, start, end int) {

	length := dstDesc.Length
	for i := start; i < end; i++ {
		off := int(table.Offsets[i])
		size := int(table.Sizes[i])
		dstBase := dstDesc.Offset + i*dstDesc.Stride
		out := dst[dstBase : dstBase+length]
		for c := range out {
			out[c] = 0
		}
		for j := 0; j < size; j++ {
			w := table.Weights[off+j]
			srcBase := srcDesc.Offset + int(table.Indices[off+j])*srcDesc.Stride
			in := src[srcBase : srcBase+length]
			for c := range out {
				out[c] += w * in[c]
			}
		}
	}
}

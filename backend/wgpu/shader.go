// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv"
)

//go:embed shaders/eval_stencils.wgsl
var stencilShaderTemplate string

//go:embed shaders/eval_patches.wgsl
var patchShaderTemplate string

// wgSize is the workgroup size of both kernels. Matches the
// @workgroup_size attribute in the WGSL sources.
const wgSize = 64

// workgroupCount is the 1D dispatch size for n elements.
func workgroupCount(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32((n + wgSize - 1) / wgSize)
}

// specializeStencilShader substitutes the kernel shape into the
// stencil kernel template.
func specializeStencilShader(shape subdiv.KernelShape) string {
	r := strings.NewReplacer(
		"{{LENGTH}}", strconv.Itoa(shape.DstLength),
		"{{SRC_STRIDE}}", strconv.Itoa(shape.SrcStride),
		"{{DST_STRIDE}}", strconv.Itoa(shape.DstStride),
	)
	return r.Replace(stencilShaderTemplate)
}

// specializePatchShader substitutes the kernel shape into the patch
// kernel template. Absent derivative outputs get stride 1 so the
// unreached addressing still validates against the dummy binding.
func specializePatchShader(shape subdiv.KernelShape) string {
	writeDu, duStride := 0, 1
	if shape.DuLength > 0 {
		writeDu, duStride = 1, shape.DuStride
	}
	writeDv, dvStride := 0, 1
	if shape.DvLength > 0 {
		writeDv, dvStride = 1, shape.DvStride
	}
	r := strings.NewReplacer(
		"{{LENGTH}}", strconv.Itoa(shape.DstLength),
		"{{SRC_STRIDE}}", strconv.Itoa(shape.SrcStride),
		"{{DST_STRIDE}}", strconv.Itoa(shape.DstStride),
		"{{DU_STRIDE}}", strconv.Itoa(duStride),
		"{{DV_STRIDE}}", strconv.Itoa(dvStride),
		"{{WRITE_DU}}", strconv.Itoa(writeDu),
		"{{WRITE_DV}}", strconv.Itoa(writeDv),
	)
	return r.Replace(patchShaderTemplate)
}

// compileShaderModule compiles WGSL to SPIR-V via naga and creates a
// HAL shader module from it.
func compileShaderModule(ctx *DeviceContext, label, wgslSource string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile %s: %w", label, err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := ctx.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirvCode,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %s: %w", label, err)
	}
	return module, nil
}

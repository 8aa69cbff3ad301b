// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements GPU evaluation via gogpu/wgpu compute
// shaders.
//
// Tables and primvar data live in device buffers. An Evaluator
// compiles one compute pipeline per kernel shape (element length,
// strides, derivative outputs); EvalStencils and EvalPatches encode
// and submit a dispatch without waiting, and Synchronize blocks until
// the device has drained everything submitted before it.
//
// Importing the package registers the "wgpu" backend:
//
//	import _ "github.com/gogpu/subdiv/backend/wgpu"
package wgpu

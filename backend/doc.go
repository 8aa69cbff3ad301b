// Package backend provides a pluggable evaluation backend abstraction.
//
// The backend package allows the subdiv library to support multiple
// evaluation implementations. The cpu backend is always available; the
// wgpu backend dispatches the same kernels as GPU compute shaders.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// Importing a backend package registers it:
//
//	import _ "github.com/gogpu/subdiv/backend/cpu"
//	import _ "github.com/gogpu/subdiv/backend/wgpu"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	b := backend.Default()
//
//	// Or request a specific backend
//	b := backend.Get("cpu")
//
// # Usage
//
// The Backend interface works on host slices and blocks until results
// land:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	err = b.ApplyStencils(src, srcDesc, dst, dstDesc, table)
//
// Callers that need device-resident tables, compiled evaluators and
// asynchronous dispatch use the typed APIs of the individual backend
// packages directly.
//
// # Available Backends
//
// - "cpu": scalar host evaluation (always available)
// - "wgpu": GPU compute via gogpu/wgpu
package backend

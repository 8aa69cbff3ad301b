package backend

import (
	"errors"

	"github.com/gogpu/subdiv"
)

// Backend name constants used with Register and Get.
const (
	// BackendCPU is the scalar host backend. Always available.
	BackendCPU = "cpu"

	// BackendWGPU is the GPU compute backend via gogpu/wgpu.
	BackendWGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend is the portable surface of an evaluation backend. It works
// on host slices and blocks until results land, hiding buffer upload,
// kernel dispatch and readback behind one call.
//
// The full typed APIs (device tables, compiled evaluators, async
// dispatch) live in the individual backend packages; this interface
// exists for callers that want results without choosing a device.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "cpu", "wgpu").
	Name() string

	// Init acquires the backend's device resources.
	// This should be called before any evaluation operations.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// ApplyStencils computes every stencil in table, writing refined
	// point i to destination element i. Descriptors must be valid and
	// agree on element length.
	ApplyStencils(src []float32, srcDesc subdiv.BufferDescriptor,
		dst []float32, dstDesc subdiv.BufferDescriptor,
		table *subdiv.StencilTable) error

	// EvalPatches evaluates every coordinate against the patch table,
	// writing limit point i to destination element i.
	EvalPatches(src []float32, srcDesc subdiv.BufferDescriptor,
		dst []float32, dstDesc subdiv.BufferDescriptor,
		coords []subdiv.PatchCoord, table *subdiv.PatchTable) error
}

// Package subdiv provides GPU-oriented evaluation of subdivision
// surfaces: applying precomputed stencil tables to vertex attribute
// data, and sampling limit-surface patches at arbitrary parametric
// locations, including first derivatives.
//
// The package itself holds only the shared value types: buffer
// descriptors, host-side stencil and patch tables, and patch
// coordinates/parameters. The actual evaluators live in backend
// packages selected through backend.Register:
//
//   - backend/cpu evaluates on the host with an asynchronous command
//     stream and parallel work partitioning. It is always available.
//   - backend/wgpu evaluates on a compute device through gogpu/wgpu,
//     with WGSL kernels specialized per descriptor shape.
//
// Both backends share the same model: tables are uploaded once per
// topology and shared read-only across evaluators; Eval calls enqueue
// work and return immediately; Synchronize is the only blocking
// operation. See the backend package documentation for details.
package subdiv

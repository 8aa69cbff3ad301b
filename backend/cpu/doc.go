// Package cpu implements scalar host evaluation.
//
// The cpu backend keeps tables and primvar data in ordinary slices,
// so there is no upload or readback step. Dispatch is still
// asynchronous: evaluations are queued on a per-evaluator command
// stream and run on a pool of workers, and Synchronize blocks until
// everything queued before it has finished. This mirrors the
// execution model of the wgpu backend, letting callers switch
// backends without restructuring their submission code.
//
// Importing the package registers the "cpu" backend:
//
//	import _ "github.com/gogpu/subdiv/backend/cpu"
package cpu

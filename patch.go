package subdiv

import "fmt"

// PatchBasis identifies the tensor-product basis of a patch run.
type PatchBasis int32

const (
	// BasisBilinear is the four-point interpolatory bilinear basis.
	BasisBilinear PatchBasis = iota

	// BasisBezier is the 16-point cubic Bezier basis. Interpolatory at
	// the patch corners.
	BasisBezier

	// BasisBSpline is the 16-point uniform cubic B-spline basis used
	// for regular interior patches.
	BasisBSpline
)

// String returns the basis name.
func (b PatchBasis) String() string {
	switch b {
	case BasisBilinear:
		return "bilinear"
	case BasisBezier:
		return "bezier"
	case BasisBSpline:
		return "bspline"
	default:
		return fmt.Sprintf("PatchBasis(%d)", int32(b))
	}
}

// NumControlVertices returns the control-point count of the basis.
func (b PatchBasis) NumControlVertices() int {
	switch b {
	case BasisBilinear:
		return 4
	case BasisBezier, BasisBSpline:
		return 16
	default:
		return 0
	}
}

// PatchCoord locates one evaluation point: a patch handle (the patch
// array it belongs to plus its global patch index) and a parametric
// location in the [0,1]^2 domain of the coarse face.
//
// The device layout is four 32-bit words per coordinate:
// arrayIndex, patchIndex, s, t.
type PatchCoord struct {
	ArrayIndex int32
	PatchIndex int32
	S, T       float32
}

// PatchCoordWords is the flat device arity of one PatchCoord.
const PatchCoordWords = 4

// PatchParam carries the per-patch metadata needed to map a parametric
// location on the coarse face into the patch-local domain, packed into
// two 32-bit words for direct device upload:
//
//	Field0  bits 0..27  face id
//	        bits 28..31 transition edge mask
//	Field1  bits 0..3   subdivision depth
//	        bit  4      set if the patch descends from a non-quad face
//	        bits 5..8   boundary edge mask
//	        bits 12..21 v origin at the patch's depth
//	        bits 22..31 u origin at the patch's depth
type PatchParam struct {
	Field0 uint32
	Field1 uint32
}

// MakePatchParam packs patch metadata. u and v are the patch origin in
// the (1<<depth) x (1<<depth) grid of the coarse face.
func MakePatchParam(faceID int32, u, v uint16, depth uint8, nonQuad bool, boundary, transition uint8) PatchParam {
	var p PatchParam
	p.Field0 = uint32(faceID)&0x0fffffff | uint32(transition&0xf)<<28
	nq := uint32(0)
	if nonQuad {
		nq = 1
	}
	p.Field1 = uint32(depth&0xf) |
		nq<<4 |
		uint32(boundary&0xf)<<5 |
		uint32(v&0x3ff)<<12 |
		uint32(u&0x3ff)<<22
	return p
}

// FaceID returns the coarse face the patch was cut from.
func (p PatchParam) FaceID() int32 { return int32(p.Field0 & 0x0fffffff) }

// Transition returns the transition edge mask.
func (p PatchParam) Transition() uint8 { return uint8(p.Field0 >> 28) }

// Depth returns the subdivision depth of the patch.
func (p PatchParam) Depth() uint8 { return uint8(p.Field1 & 0xf) }

// NonQuadRoot reports whether the patch descends from a non-quad face,
// which carries one implicit level of subdivision.
func (p PatchParam) NonQuadRoot() bool { return p.Field1&0x10 != 0 }

// Boundary returns the boundary edge mask.
func (p PatchParam) Boundary() uint8 { return uint8(p.Field1>>5) & 0xf }

// U returns the u origin of the patch at its depth.
func (p PatchParam) U() uint16 { return uint16(p.Field1>>22) & 0x3ff }

// V returns the v origin of the patch at its depth.
func (p PatchParam) V() uint16 { return uint16(p.Field1>>12) & 0x3ff }

// Fraction returns the parametric extent of the patch within the
// coarse face domain.
func (p PatchParam) Fraction() float32 {
	depth := int(p.Depth())
	if p.NonQuadRoot() && depth > 0 {
		depth--
	}
	return 1.0 / float32(int32(1)<<depth)
}

// Normalize maps (s, t) from the coarse face domain into the
// patch-local [0,1]^2 domain, undoing the depth/quadrant offset.
func (p PatchParam) Normalize(s, t float32) (float32, float32) {
	frac := p.Fraction()
	return s/frac - float32(p.U()), t/frac - float32(p.V())
}

// PatchArray describes one run of same-typed patches inside a
// PatchTable. The device layout is five 32-bit words per array:
// basis, numControlVertices, indexBase, primitiveIDBase, numPatches.
type PatchArray struct {
	// Basis is the tensor-product basis of every patch in the run.
	Basis PatchBasis

	// NumControlVertices is the control-point count per patch.
	NumControlVertices int32

	// IndexBase is the offset of the run's first control-point index
	// in the table's flat Indices array.
	IndexBase int32

	// PrimitiveIDBase is the global patch index of the run's first
	// patch; PatchCoord.PatchIndex is global, so a patch's position
	// within its run is PatchIndex - PrimitiveIDBase.
	PrimitiveIDBase int32

	// NumPatches is the number of patches in the run.
	NumPatches int32
}

// PatchArrayWords is the flat device arity of one PatchArray.
const PatchArrayWords = 5

// PatchTable is the host-side patch representation: array-run
// descriptors, flattened control-point indices and per-patch packed
// parameters, indexed by global patch order. Construction belongs to
// the patch-building subsystem; this type only carries the flat data
// to the device tables.
//
// Immutable after construction; shareable across evaluators.
type PatchTable struct {
	Arrays  []PatchArray
	Indices []int32
	Params  []PatchParam
}

// NumPatches returns the total patch count across all runs.
func (t *PatchTable) NumPatches() int {
	n := 0
	for _, a := range t.Arrays {
		n += int(a.NumPatches)
	}
	return n
}

// Validate checks the run descriptors against the flat arrays: index
// ranges must lie inside Indices and every patch must have a param.
func (t *PatchTable) Validate() error {
	patches := 0
	for i, a := range t.Arrays {
		if a.NumControlVertices <= 0 || a.NumPatches < 0 {
			return fmt.Errorf("%w: patch array %d has %d control vertices, %d patches",
				ErrMalformedTable, i, a.NumControlVertices, a.NumPatches)
		}
		end := int(a.IndexBase) + int(a.NumPatches)*int(a.NumControlVertices)
		if a.IndexBase < 0 || end > len(t.Indices) {
			return fmt.Errorf("%w: patch array %d indices [%d,%d) exceed table of %d",
				ErrMalformedTable, i, a.IndexBase, end, len(t.Indices))
		}
		patches += int(a.NumPatches)
	}
	if patches != len(t.Params) {
		return fmt.Errorf("%w: %d patches but %d params",
			ErrMalformedTable, patches, len(t.Params))
	}
	return nil
}

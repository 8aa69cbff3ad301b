package subdiv

import (
	"errors"
	"fmt"
)

// ErrMalformedTable is returned when a table's flat arrays violate
// their structural invariants.
var ErrMalformedTable = errors.New("subdiv: malformed table")

// Stencil is one weighted-sum rule: the output vertex is the linear
// combination of the control vertices named by Indices with the
// matching Weights. Used only as construction input; evaluation always
// runs against the flattened StencilTable arrays.
type Stencil struct {
	Indices []int32
	Weights []float32
}

// StencilTable is the host-side flattening of an ordered stencil
// collection into four parallel arrays, the layout consumed directly
// by every evaluation kernel:
//
//	Sizes[i]             number of (index, weight) pairs of stencil i
//	Offsets[i]           start of stencil i in Indices/Weights
//	Indices[Offsets[i]+k] control-vertex index of pair k
//	Weights[Offsets[i]+k] weight of pair k
//
// Offsets is the exclusive prefix sum of Sizes, so Offsets[0] == 0 and
// the totals of Sizes, Indices and Weights agree.
//
// A StencilTable is immutable after construction and safe to share,
// without locking, across any number of evaluators.
type StencilTable struct {
	Sizes   []int32
	Offsets []int32
	Indices []int32
	Weights []float32
}

// NewStencilTable flattens an ordered stencil list, computing the
// offset prefix sum. Stencils with mismatched index/weight lists are
// rejected.
func NewStencilTable(stencils []Stencil) (*StencilTable, error) {
	total := 0
	for i, s := range stencils {
		if len(s.Indices) != len(s.Weights) {
			return nil, fmt.Errorf("%w: stencil %d has %d indices but %d weights",
				ErrMalformedTable, i, len(s.Indices), len(s.Weights))
		}
		total += len(s.Indices)
	}

	t := &StencilTable{
		Sizes:   make([]int32, len(stencils)),
		Offsets: make([]int32, len(stencils)),
		Indices: make([]int32, 0, total),
		Weights: make([]float32, 0, total),
	}

	offset := int32(0)
	for i, s := range stencils {
		t.Sizes[i] = int32(len(s.Indices))
		t.Offsets[i] = offset
		t.Indices = append(t.Indices, s.Indices...)
		t.Weights = append(t.Weights, s.Weights...)
		offset += int32(len(s.Indices))
	}

	return t, nil
}

// NumStencils returns the number of stencils in the table.
func (t *StencilTable) NumStencils() int { return len(t.Sizes) }

// Validate checks the structural invariants of the flat arrays:
// Offsets must be the exclusive prefix sum of Sizes, and the Sizes
// total must match the Indices and Weights lengths.
func (t *StencilTable) Validate() error {
	if len(t.Offsets) != len(t.Sizes) {
		return fmt.Errorf("%w: %d offsets for %d sizes",
			ErrMalformedTable, len(t.Offsets), len(t.Sizes))
	}
	sum := int32(0)
	for i, sz := range t.Sizes {
		if sz < 0 {
			return fmt.Errorf("%w: negative size at stencil %d", ErrMalformedTable, i)
		}
		if t.Offsets[i] != sum {
			return fmt.Errorf("%w: offset[%d] = %d, want %d",
				ErrMalformedTable, i, t.Offsets[i], sum)
		}
		sum += sz
	}
	if int(sum) != len(t.Indices) || int(sum) != len(t.Weights) {
		return fmt.Errorf("%w: sizes total %d, indices %d, weights %d",
			ErrMalformedTable, sum, len(t.Indices), len(t.Weights))
	}
	return nil
}

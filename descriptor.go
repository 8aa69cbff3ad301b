package subdiv

import "fmt"

// BufferDescriptor describes the layout of one vertex attribute inside
// an interleaved buffer of float32 channels.
//
// Element e, channel c of the attribute lives at
//
//	buffer[e*Stride + Offset + c]
//
// so a buffer holding interleaved position (3 floats) and color
// (4 floats) per vertex would describe the color attribute as
// {Offset: 3, Length: 4, Stride: 7}.
//
// Evaluators are specialized against the shape of a descriptor
// (Length and Stride); the Offset is applied at dispatch time.
type BufferDescriptor struct {
	// Offset is the index of the attribute's first channel within an
	// element stride.
	Offset int

	// Length is the number of channels in the attribute.
	Length int

	// Stride is the number of channels between consecutive elements.
	Stride int
}

// Valid reports whether the descriptor satisfies the layout
// constraints: Offset >= 0, Length >= 1 and Stride >= Length.
func (d BufferDescriptor) Valid() bool {
	return d.Offset >= 0 && d.Length >= 1 && d.Stride >= d.Length
}

// IsZero reports whether the descriptor is the zero value. A zero
// descriptor passed as a derivative output means the derivative is
// not requested and must not be computed or written.
func (d BufferDescriptor) IsZero() bool {
	return d == BufferDescriptor{}
}

// String returns the compact offset/length/stride form used in logs.
func (d BufferDescriptor) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Offset, d.Length, d.Stride)
}

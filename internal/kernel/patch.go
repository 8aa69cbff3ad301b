package kernel

import "github.com/gogpu/subdiv"

// MaxControlVertices is the widest basis footprint any kernel handles.
const MaxControlVertices = 16

// PatchWeights holds the tensor-product weights for one evaluation
// point: positional weights plus the two first-derivative rows, all
// sized for the widest basis.
type PatchWeights struct {
	W, Du, Dv [MaxControlVertices]float32
	N         int
}

func bilinear1D(t float32) (w, d [2]float32) {
	w[0] = 1 - t
	w[1] = t
	d[0] = -1
	d[1] = 1
	return
}

func cubicBezier1D(t float32) (w, d [4]float32) {
	s := 1 - t
	w[0] = s * s * s
	w[1] = 3 * t * s * s
	w[2] = 3 * t * t * s
	w[3] = t * t * t
	d[0] = -3 * s * s
	d[1] = 3*s*s - 6*t*s
	d[2] = 6*t*s - 3*t*t
	d[3] = 3 * t * t
	return
}

func cubicBSpline1D(t float32) (w, d [4]float32) {
	s := 1 - t
	w[0] = s * s * s / 6
	w[1] = (3*t*t*t - 6*t*t + 4) / 6
	w[2] = (-3*t*t*t + 3*t*t + 3*t + 1) / 6
	w[3] = t * t * t / 6
	d[0] = -s * s / 2
	d[1] = (3*t*t - 4*t) / 2
	d[2] = (-3*t*t + 2*t + 1) / 2
	d[3] = t * t / 2
	return
}

// EvalBasis fills the tensor-product weights of basis at the
// patch-local location (s, t). dScale rescales the derivative rows
// from patch-local to coarse-face parameterization.
func EvalBasis(basis subdiv.PatchBasis, s, t, dScale float32, pw *PatchWeights) {
	switch basis {
	case subdiv.BasisBilinear:
		ws, ds := bilinear1D(s)
		wt, dt := bilinear1D(t)
		// Counterclockwise corner order: (0,0), (1,0), (1,1), (0,1).
		pw.W[0] = ws[0] * wt[0]
		pw.W[1] = ws[1] * wt[0]
		pw.W[2] = ws[1] * wt[1]
		pw.W[3] = ws[0] * wt[1]
		pw.Du[0] = ds[0] * wt[0] * dScale
		pw.Du[1] = ds[1] * wt[0] * dScale
		pw.Du[2] = ds[1] * wt[1] * dScale
		pw.Du[3] = ds[0] * wt[1] * dScale
		pw.Dv[0] = ws[0] * dt[0] * dScale
		pw.Dv[1] = ws[1] * dt[0] * dScale
		pw.Dv[2] = ws[1] * dt[1] * dScale
		pw.Dv[3] = ws[0] * dt[1] * dScale
		pw.N = 4
	case subdiv.BasisBezier:
		ws, ds := cubicBezier1D(s)
		wt, dt := cubicBezier1D(t)
		tensor16(ws, ds, wt, dt, dScale, pw)
	case subdiv.BasisBSpline:
		ws, ds := cubicBSpline1D(s)
		wt, dt := cubicBSpline1D(t)
		tensor16(ws, ds, wt, dt, dScale, pw)
	default:
		pw.N = 0
	}
}

func tensor16(ws, ds, wt, dt [4]float32, dScale float32, pw *PatchWeights) {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			k := 4*row + col
			pw.W[k] = ws[col] * wt[row]
			pw.Du[k] = ds[col] * wt[row] * dScale
			pw.Dv[k] = ws[col] * dt[row] * dScale
		}
	}
}

// EvalPatches evaluates coords [start,end) against the patch table.
// Coord i writes destination element i. du and dv may be nil to skip
// the derivative outputs; when present they receive the partials with
// respect to the coarse face parameterization.
func EvalPatches(src []float32, srcDesc subdiv.BufferDescriptor,
	dst []float32, dstDesc subdiv.BufferDescriptor,
	du []float32, duDesc subdiv.BufferDescriptor,
	dv []float32, dvDesc subdiv.BufferDescriptor,
	coords []subdiv.PatchCoord, table *subdiv.PatchTable, start, end int) {

	length := dstDesc.Length
	var pw PatchWeights
	for i := start; i < end; i++ {
		coord := coords[i]
		arr := table.Arrays[coord.ArrayIndex]
		param := table.Params[coord.PatchIndex]
		s, t := param.Normalize(coord.S, coord.T)
		EvalBasis(arr.Basis, s, t, 1/param.Fraction(), &pw)

		local := coord.PatchIndex - arr.PrimitiveIDBase
		indices := table.Indices[int(arr.IndexBase)+int(local)*int(arr.NumControlVertices):]

		out := dst[dstDesc.Offset+i*dstDesc.Stride:][:length]
		for c := range out {
			out[c] = 0
		}
		var outDu, outDv []float32
		if du != nil {
			outDu = du[duDesc.Offset+i*duDesc.Stride:][:length]
			for c := range outDu {
				outDu[c] = 0
			}
		}
		if dv != nil {
			outDv = dv[dvDesc.Offset+i*dvDesc.Stride:][:length]
			for c := range outDv {
				outDv[c] = 0
			}
		}

		for j := 0; j < pw.N; j++ {
			in := src[srcDesc.Offset+int(indices[j])*srcDesc.Stride:][:length]
			for c := range out {
				out[c] += pw.W[j] * in[c]
			}
			if outDu != nil {
				for c := range outDu {
					outDu[c] += pw.Du[j] * in[c]
				}
			}
			if outDv != nil {
				for c := range outDv {
					outDv[c] += pw.Dv[j] * in[c]
				}
			}
		}
	}
}

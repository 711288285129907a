package spectro

// PropMat holds the seven independent coefficients of the 4×4 Stokes
// propagation matrix, m⁻¹:
//
//	| A  B  C  D |
//	| B  A  U  V |
//	| C -U  A  W |
//	| D -V -W  A |
type PropMat struct {
	A, B, C, D float64
	U, V, W    float64
}

// Add returns k + o.
func (k PropMat) Add(o PropMat) PropMat {
	return PropMat{
		A: k.A + o.A, B: k.B + o.B, C: k.C + o.C, D: k.D + o.D,
		U: k.U + o.U, V: k.V + o.V, W: k.W + o.W,
	}
}

// Sub returns k - o.
func (k PropMat) Sub(o PropMat) PropMat { return k.Add(o.Scale(-1)) }

// Scale returns s·k.
func (k PropMat) Scale(s float64) PropMat {
	return PropMat{
		A: s * k.A, B: s * k.B, C: s * k.C, D: s * k.D,
		U: s * k.U, V: s * k.V, W: s * k.W,
	}
}

// Full returns the 4×4 matrix in row-major order.
func (k PropMat) Full() [16]float64 {
	return [16]float64{
		k.A, k.B, k.C, k.D,
		k.B, k.A, k.U, k.V,
		k.C, -k.U, k.A, k.W,
		k.D, -k.V, -k.W, k.A,
	}
}

// addPolarized accumulates a line contribution with absorptive profile phi,
// dispersive profile psi and Stokes weights w.
func (k *PropMat) addPolarized(w [4]float64, phi, psi float64) {
	k.A += w[0] * phi
	k.B += w[1] * phi
	k.C += w[2] * phi
	k.D += w[3] * phi
	k.U += w[3] * psi
	k.V -= w[2] * psi
	k.W += w[1] * psi
}

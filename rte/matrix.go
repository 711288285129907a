package rte

import (
	"gonum.org/v1/gonum/mat"

	"github.com/signalsfoundry/limb-sounder/spectro"
)

// propDense returns the top-left n×n block of the 4×4 propagation matrix
// scaled by s.
func propDense(k spectro.PropMat, n int, s float64) *mat.Dense {
	full := k.Full()
	m := mat.NewDense(n, n, nil)
	for i := range n {
		for j := range n {
			m.Set(i, j, s*full[4*i+j])
		}
	}
	return m
}

// expm returns exp(m).
func expm(m *mat.Dense) *mat.Dense {
	var e mat.Dense
	e.Exp(m)
	return &e
}

// expFrechet returns the directional derivative of exp at m along dm, read
// off the upper-right block of exp([[m, dm], [0, m]]).
func expFrechet(m, dm *mat.Dense) *mat.Dense {
	n, _ := m.Dims()
	blk := mat.NewDense(2*n, 2*n, nil)
	blk.Slice(0, n, 0, n).(*mat.Dense).Copy(m)
	blk.Slice(0, n, n, 2*n).(*mat.Dense).Copy(dm)
	blk.Slice(n, 2*n, n, 2*n).(*mat.Dense).Copy(m)

	var e mat.Dense
	e.Exp(blk)
	return mat.DenseCopyOf(e.Slice(0, n, n, 2*n))
}

// emitColumn returns e1 - T·e1, the weight of a unit source in the segment
// update.
func emitColumn(t *mat.Dense) *mat.VecDense {
	n, _ := t.Dims()
	v := mat.NewVecDense(n, nil)
	for i := range n {
		v.SetVec(i, -t.At(i, 0))
	}
	v.SetVec(0, v.AtVec(0)+1)
	return v
}

package rte

import (
	"gonum.org/v1/gonum/mat"

	"github.com/soniakeys/unit"

	"github.com/signalsfoundry/limb-sounder/model"
	"github.com/signalsfoundry/limb-sounder/spectro"
)

// pointState is what one path point contributes at one frequency.
type pointState struct {
	k    spectro.PropMat
	b    float64
	dbdt float64
	// dk holds ∂K/∂x for every target at this point.
	dk []spectro.PropMat
}

// jacobianAccumulator holds ∂I/∂x for every target and path point while
// the walk moves towards the sensor. Each frequency has its own.
type jacobianAccumulator struct {
	d [][]*mat.VecDense // [target][point]
}

func newJacobianAccumulator(targets, points, n int) *jacobianAccumulator {
	acc := &jacobianAccumulator{d: make([][]*mat.VecDense, targets)}
	for t := range acc.d {
		acc.d[t] = make([]*mat.VecDense, points)
		for p := range acc.d[t] {
			acc.d[t][p] = mat.NewVecDense(n, nil)
		}
	}
	return acc
}

// propagate multiplies the derivatives of points from onwards by the
// segment transmission.
func (acc *jacobianAccumulator) propagate(trans *mat.Dense, from int) {
	var tmp mat.VecDense
	for t := range acc.d {
		for p := from; p < len(acc.d[t]); p++ {
			tmp.MulVec(trans, acc.d[t][p])
			acc.d[t][p].CopyVec(&tmp)
		}
	}
}

func (in *Integrator) evaluatePoint(f float64, atm model.AtmPoint, g spectro.Geometry, targets []Target) pointState {
	ps := pointState{k: in.absorber.PropMat(f, atm, g)}
	ps.b, ps.dbdt = in.source.Emission(f, atm.Temperature)
	if len(targets) == 0 {
		return ps
	}

	ps.dk = make([]spectro.PropMat, len(targets))
	for i, t := range targets {
		switch t.Kind {
		case TargetVMR:
			ps.dk[i] = in.absorber.SpeciesPropMat(t.Species, f, atm, g)
		case TargetTemperature:
			ps.dk[i] = in.centralDiff(f, g, atm, in.tempStep, func(a *model.AtmPoint, h float64) { a.Temperature += h })
		case TargetFieldU:
			ps.dk[i] = in.centralDiff(f, g, atm, in.fieldStep, func(a *model.AtmPoint, h float64) { a.Field.U += h })
		case TargetFieldV:
			ps.dk[i] = in.centralDiff(f, g, atm, in.fieldStep, func(a *model.AtmPoint, h float64) { a.Field.V += h })
		case TargetFieldW:
			ps.dk[i] = in.centralDiff(f, g, atm, in.fieldStep, func(a *model.AtmPoint, h float64) { a.Field.W += h })
		}
	}
	return ps
}

// centralDiff returns (K(x+h) - K(x-h)) / 2h where perturb shifts x by h.
// Only scalar fields are perturbed so the VMR map is shared safely.
func (in *Integrator) centralDiff(f float64, g spectro.Geometry, atm model.AtmPoint, h float64, perturb func(*model.AtmPoint, float64)) spectro.PropMat {
	plus, minus := atm, atm
	perturb(&plus, h)
	perturb(&minus, -h)
	kp := in.absorber.PropMat(f, plus, g)
	km := in.absorber.PropMat(f, minus, g)
	return kp.Sub(km).Scale(1 / (2 * h))
}

// integrateFrequency runs the backward walk for frequency index fi and
// writes radiance and Jacobian slots owned by fi.
//
// Each segment (i, i+1) uses the averaged propagation matrix and source:
//
//	T   = exp(-(K_i + K_i+1)/2 · ds)
//	I_i = T·I_i+1 + (e1 - T·e1)·(B_i + B_i+1)/2
//
// and the derivative of that update with respect to the state at i and i+1
// uses the Fréchet derivative of the exponential.
func (in *Integrator) integrateFrequency(input Input, res *Results, fi int) {
	n := int(in.dim)
	path := input.Path
	points := path.Len()
	far := points - 1
	f := input.Frequencies[fi]
	targets := input.Targets

	if points == 1 {
		return
	}

	states := make([]pointState, points)
	for p := range states {
		los := path.Points[p].LocalLos()
		g := spectro.Geometry{Za: unit.AngleFromDeg(los.Za), Aa: unit.AngleFromDeg(los.Aa)}
		states[p] = in.evaluatePoint(f, input.Atmosphere[p], g, targets)
	}

	acc := newJacobianAccumulator(len(targets), points, n)
	cur := mat.NewVecDense(n, append([]float64(nil), res.radiance[far][fi]...))

	for i := far - 1; i >= 0; i-- {
		ds := path.SegmentLength(i)
		lo, hi := states[i], states[i+1]
		m := propDense(lo.k.Add(hi.k), n, -0.5*ds)
		trans := expm(m)
		bbar := 0.5 * (lo.b + hi.b)
		emit := emitColumn(trans)

		// Residual I_i+1 - e1·B̄ feeds every transmission derivative.
		resid := mat.VecDenseCopyOf(cur)
		resid.SetVec(0, resid.AtVec(0)-bbar)

		acc.propagate(trans, i+1)
		for t, target := range targets {
			for _, j := range [2]int{i, i + 1} {
				st := states[j]
				dm := propDense(st.dk[t], n, -0.5*ds)
				var local mat.VecDense
				local.MulVec(expFrechet(m, dm), resid)
				if target.Kind == TargetTemperature {
					local.AddScaledVec(&local, 0.5*st.dbdt, emit)
				}
				acc.d[t][j].AddVec(acc.d[t][j], &local)
			}
		}

		var next mat.VecDense
		next.MulVec(trans, cur)
		next.AddScaledVec(&next, bbar, emit)
		cur = &next
		copy(res.radiance[i][fi], cur.RawVector().Data)
	}

	for t := range targets {
		for p := range points {
			copy(res.jacobian[t][p][fi], acc.d[t][p].RawVector().Data)
		}
	}
}

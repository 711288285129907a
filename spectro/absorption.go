package spectro

import (
	"github.com/soniakeys/unit"

	"github.com/signalsfoundry/limb-sounder/model"
	"github.com/signalsfoundry/limb-sounder/zeeman"
)

// Geometry is the line of sight at the evaluation point, needed to orient
// the magnetic field for Zeeman bands.
type Geometry struct {
	Za, Aa unit.Angle
}

// PropMat returns the propagation matrix of every band covering f at
// atmospheric state atm. Frequencies outside all bands give a zero matrix.
func (c *Catalog) PropMat(f float64, atm model.AtmPoint, g Geometry) PropMat {
	var k PropMat
	for _, b := range c.Bands() {
		if !b.Covers(f) {
			continue
		}
		vmr := atm.VMR[b.Species]
		if vmr == 0 {
			continue
		}
		k = k.Add(bandPropMat(b, f, atm, g, vmr))
	}
	return k
}

// SpeciesPropMat returns the propagation matrix of the bands of one species
// at unit volume mixing ratio, which is the derivative of PropMat with
// respect to that species' VMR.
func (c *Catalog) SpeciesPropMat(species string, f float64, atm model.AtmPoint, g Geometry) PropMat {
	var k PropMat
	for _, b := range c.Bands() {
		if b.Species != species || !b.Covers(f) {
			continue
		}
		k = k.Add(bandPropMat(b, f, atm, g, 1))
	}
	return k
}

func bandPropMat(b Band, f float64, atm model.AtmPoint, g Geometry, vmr float64) PropMat {
	var k PropMat
	n := vmr * NumberDensity(atm.Pressure, atm.Temperature)

	if !b.Zeeman {
		for _, l := range b.Lines {
			phi, _ := Lorentz(f-l.F0, l.HalfWidth(atm.Pressure, atm.Temperature))
			k.A += n * l.Strength(atm.Temperature) * phi
		}
		return k
	}

	ang := zeeman.FieldAngles(atm.Field, g.Za, g.Aa)
	bmag := atm.Field.Strength()
	var weights [3][4]float64
	for i, p := range zeeman.Classes {
		weights[i] = zeeman.PolarizationVector(p, ang.Theta, ang.Eta)
	}

	for _, l := range b.Lines {
		s := n * l.Strength(atm.Temperature)
		gamma := l.HalfWidth(atm.Pressure, atm.Temperature)
		for i, p := range zeeman.Classes {
			for sub := range zeeman.Count(l.Ju, l.Jl, p) {
				shift := zeeman.SplittingCoefficient(l.Gu, l.Gl, l.Ju, l.Jl, p, sub) * bmag
				phi, psi := Lorentz(f-(l.F0+shift), gamma)
				rel := s * zeeman.RelativeStrength(l.Ju, l.Jl, p, sub)
				k.addPolarized(weights[i], rel*phi, rel*psi)
			}
		}
	}
	return k
}

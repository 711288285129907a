// Package spectro holds absorption line data and evaluates the Stokes
// propagation matrix of a gas at a frequency.
package spectro

import (
	"fmt"
	"math"
)

const (
	// Boltzmann is the Boltzmann constant, J/K.
	Boltzmann = 1.380649e-23
	// ReferenceTemperature is the temperature line parameters are given at, K.
	ReferenceTemperature = 296.0
)

// Line is a single rotational transition.
type Line struct {
	F0 float64 // line centre, Hz
	// S0 is the line intensity at ReferenceTemperature, m²·Hz per molecule.
	S0 float64
	// Gamma0 is the pressure-broadened half width at ReferenceTemperature,
	// Hz/Pa; TempExp its temperature exponent.
	Gamma0  float64
	TempExp float64
	// Elow is the lower-state energy, J.
	Elow float64
	// Ju, Jl are the upper and lower angular momenta; Gu, Gl the Landé
	// factors. They only matter for Zeeman bands.
	Ju, Jl float64
	Gu, Gl float64
}

// Band is a group of lines of one species valid over [FMin, FMax].
type Band struct {
	ID      string
	Species string
	FMin    float64
	FMax    float64
	Zeeman  bool
	Lines   []Line
}

// Covers reports whether f lies within the band.
func (b Band) Covers(f float64) bool { return f >= b.FMin && f <= b.FMax }

func (b Band) validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: empty band ID", ErrBadBand)
	}
	if b.Species == "" {
		return fmt.Errorf("%w: band %q has no species", ErrBadBand, b.ID)
	}
	if !(b.FMin <= b.FMax) {
		return fmt.Errorf("%w: band %q range [%g, %g]", ErrBadBand, b.ID, b.FMin, b.FMax)
	}
	for i, l := range b.Lines {
		if !(l.F0 > 0) || l.S0 < 0 || l.Gamma0 < 0 {
			return fmt.Errorf("%w: band %q line %d", ErrBadBand, b.ID, i)
		}
	}
	return nil
}

// Strength returns the line intensity at temperature t.
func (l Line) Strength(t float64) float64 {
	r := ReferenceTemperature / t
	return l.S0 * math.Pow(r, 1.5) * math.Exp(-l.Elow/Boltzmann*(1/t-1/ReferenceTemperature))
}

// HalfWidth returns the Lorentz half width at pressure p and temperature t.
func (l Line) HalfWidth(p, t float64) float64 {
	return l.Gamma0 * p * math.Pow(ReferenceTemperature/t, l.TempExp)
}

// Lorentz returns the absorptive (phi) and dispersive (psi) parts of a
// normalised Lorentz profile with half width gamma at detuning df.
func Lorentz(df, gamma float64) (phi, psi float64) {
	d := math.Pi * (df*df + gamma*gamma)
	if d == 0 {
		return 0, 0
	}
	return gamma / d, df / d
}

// NumberDensity returns the total number density at pressure p and
// temperature t, m⁻³.
func NumberDensity(p, t float64) float64 {
	return p / (Boltzmann * t)
}

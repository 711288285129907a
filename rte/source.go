package rte

import "math"

const (
	planck       = 6.62607015e-34 // J·s
	boltzmann    = 1.380649e-23   // J/K
	speedOfLight = 299792458.0    // m/s
)

// Source selects the emission source function.
type Source int

const (
	// SourcePlanck emits Planck spectral radiance, W/(m²·sr·Hz).
	SourcePlanck Source = iota
	// SourceRayleighJeans emits the physical temperature, so radiances are
	// brightness temperatures in K.
	SourceRayleighJeans
)

func (s Source) String() string {
	if s == SourceRayleighJeans {
		return "rayleigh-jeans"
	}
	return "planck"
}

// Emission returns the source value at frequency f and temperature t and its
// temperature derivative.
func (s Source) Emission(f, t float64) (b, dbdt float64) {
	if s == SourceRayleighJeans {
		return t, 1
	}
	x := planck * f / (boltzmann * t)
	ex := math.Expm1(x)
	b = 2 * planck * f * f * f / (speedOfLight * speedOfLight) / ex
	dbdt = b * x * (ex + 1) / ex / t
	return b, dbdt
}

// BrightnessTemperature converts radiance i at frequency f back to a
// temperature. For Rayleigh-Jeans the radiance already is one.
func (s Source) BrightnessTemperature(f, i float64) float64 {
	if s == SourceRayleighJeans {
		return i
	}
	if i <= 0 {
		return 0
	}
	a := 2 * planck * f * f * f / (speedOfLight * speedOfLight)
	return planck * f / boltzmann / math.Log1p(a/i)
}

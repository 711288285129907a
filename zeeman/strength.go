package zeeman

// BohrMagnetonOverPlanck is μB/h in Hz per Tesla.
const BohrMagnetonOverPlanck = 1.39962449361e10

// RelativeStrength returns the strength of subline n within its class,
// 3·(Jl 1 Ju; Ml -ΔM -Mu)². For a fixed transition the strengths of each
// class sum to one. None has strength one.
func RelativeStrength(ju, jl float64, p Polarization, n int) float64 {
	if p == None {
		return 1
	}
	mu := Mu(ju, jl, p, n)
	ml := Ml(ju, jl, p, n)
	w := Wigner3j(jl, 1, ju, ml, -float64(DeltaM(p)), -mu)
	return 3 * w * w
}

// SplittingCoefficient returns the frequency shift of subline n per unit
// field strength, (Ml·gl - Mu·gu)·μB/h in Hz/T. None is unshifted.
func SplittingCoefficient(gu, gl, ju, jl float64, p Polarization, n int) float64 {
	if p == None {
		return 0
	}
	mu := Mu(ju, jl, p, n)
	ml := Ml(ju, jl, p, n)
	return (ml*gl - mu*gu) * BohrMagnetonOverPlanck
}

// Subline is one Zeeman component of a line.
type Subline struct {
	Polarization Polarization
	Mu, Ml       float64
	Strength     float64
	// Shift is the frequency offset per Tesla.
	Shift float64
}

// Sublines enumerates every component of the three split classes.
func Sublines(gu, gl, ju, jl float64) []Subline {
	var out []Subline
	for _, p := range Classes {
		for n := range Count(ju, jl, p) {
			out = append(out, Subline{
				Polarization: p,
				Mu:           Mu(ju, jl, p, n),
				Ml:           Ml(ju, jl, p, n),
				Strength:     RelativeStrength(ju, jl, p, n),
				Shift:        SplittingCoefficient(gu, gl, ju, jl, p, n),
			})
		}
	}
	return out
}

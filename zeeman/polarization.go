// Package zeeman computes the Zeeman splitting of rotational lines: the
// polarization classes, their magnetic sublines, relative strengths,
// frequency shifts and the geometry of the magnetic field relative to the
// line of sight.
//
// Quantum numbers are passed as float64 so half-integer J is representable.
// Callers must supply a valid transition: |Ju-Jl| <= 1, Ju and Jl not both
// zero, and n in [0, Count). Invalid combinations are not checked.
package zeeman

import "fmt"

// Polarization is a Zeeman polarization class.
type Polarization int

const (
	SigmaMinus Polarization = iota
	Pi
	SigmaPlus
	None
)

// Classes lists the three split polarization classes in accumulation order.
var Classes = []Polarization{SigmaMinus, Pi, SigmaPlus}

func (p Polarization) String() string {
	switch p {
	case SigmaMinus:
		return "sigma-"
	case Pi:
		return "pi"
	case SigmaPlus:
		return "sigma+"
	case None:
		return "none"
	default:
		return fmt.Sprintf("polarization(%d)", int(p))
	}
}

// DeltaM returns Ml - Mu for the class.
func DeltaM(p Polarization) int {
	switch p {
	case SigmaMinus:
		return -1
	case SigmaPlus:
		return 1
	default:
		return 0
	}
}

// PolarizationFactor is the class renormalization applied to the geometric
// polarization weights.
func PolarizationFactor(p Polarization) float64 {
	switch p {
	case SigmaMinus, SigmaPlus:
		return 0.75
	case Pi:
		return 1.5
	default:
		return 1.0
	}
}

// Start returns the first upper magnetic number Mu of the class.
func Start(ju, jl float64, p Polarization) float64 {
	switch p {
	case SigmaMinus:
		switch {
		case ju < jl:
			return -ju
		case ju == jl:
			return -ju + 1
		default:
			return -ju + 2
		}
	case Pi:
		return -min(ju, jl)
	case SigmaPlus:
		return -ju
	default:
		return 0
	}
}

// End returns the last upper magnetic number Mu of the class.
func End(ju, jl float64, p Polarization) float64 {
	switch p {
	case SigmaMinus:
		return ju
	case Pi:
		return min(ju, jl)
	case SigmaPlus:
		switch {
		case ju < jl:
			return ju
		case ju == jl:
			return ju - 1
		default:
			return ju - 2
		}
	default:
		return 0
	}
}

// Count returns the number of sublines in the class. None has one.
func Count(ju, jl float64, p Polarization) int {
	if p == None {
		return 1
	}
	return int(End(ju, jl, p)-Start(ju, jl, p)) + 1
}

// Mu returns the upper magnetic number of subline n.
func Mu(ju, jl float64, p Polarization, n int) float64 {
	return Start(ju, jl, p) + float64(n)
}

// Ml returns the lower magnetic number of subline n.
func Ml(ju, jl float64, p Polarization, n int) float64 {
	return Mu(ju, jl, p, n) + float64(DeltaM(p))
}

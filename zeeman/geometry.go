package zeeman

import (
	"math"

	"github.com/soniakeys/unit"
)

// Field is a magnetic field in the local tangent frame: U east, V north, W
// up, in Tesla.
type Field struct {
	U, V, W float64
}

// FieldFromAngles builds a field from its strength and the zenith and
// azimuth of its direction.
func FieldFromAngles(strength float64, za, aa unit.Angle) Field {
	sinZa, cosZa := math.Sincos(za.Rad())
	sinAa, cosAa := math.Sincos(aa.Rad())
	return Field{
		U: strength * sinZa * sinAa,
		V: strength * sinZa * cosAa,
		W: strength * cosZa,
	}
}

// Strength returns |B|.
func (f Field) Strength() float64 {
	return math.Sqrt(f.U*f.U + f.V*f.V + f.W*f.W)
}

// Angles is the field orientation relative to the propagation direction.
// Theta is the angle between the field and the direction of propagation;
// Eta is the angle of the field's projection on the plane orthogonal to
// propagation, measured from the local vertical plane.
type Angles struct {
	Theta unit.Angle
	Eta   unit.Angle
}

// FieldAngles returns the field orientation for a line of sight with zenith
// za and azimuth aa. The photon travels against the line of sight. A zero
// field yields zero angles.
func FieldAngles(f Field, za, aa unit.Angle) Angles {
	b := f.Strength()
	if b == 0 {
		return Angles{}
	}
	sinZa, cosZa := math.Sincos(za.Rad())
	sinAa, cosAa := math.Sincos(aa.Rad())

	// Photon direction and the two axes spanning the plane orthogonal to it.
	k := [3]float64{-sinZa * sinAa, -sinZa * cosAa, -cosZa}
	e1 := [3]float64{cosZa * sinAa, cosZa * cosAa, -sinZa}
	e2 := [3]float64{cosAa, -sinAa, 0}
	bv := [3]float64{f.U, f.V, f.W}

	cosTheta := math.Max(-1, math.Min(1, dot(bv, k)/b))
	return Angles{
		Theta: unit.Angle(math.Acos(cosTheta)),
		Eta:   unit.Angle(math.Atan2(dot(bv, e2), dot(bv, e1))),
	}
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// PolarizationVector returns the Stokes weights (I, Q, U, V) with which a
// subline of class p contributes to absorption. Weights include the class
// factor, so summed over the three classes with no field they reduce to
// (1, 0, 0, 0).
func PolarizationVector(p Polarization, theta, eta unit.Angle) [4]float64 {
	sinT, cosT := math.Sincos(theta.Rad())
	sin2E, cos2E := math.Sincos(2 * eta.Rad())
	s2 := sinT * sinT

	var raw [4]float64
	switch p {
	case Pi:
		raw = [4]float64{s2, s2 * cos2E, s2 * sin2E, 0}
	case SigmaMinus:
		raw = [4]float64{1 + cosT*cosT, -s2 * cos2E, -s2 * sin2E, 2 * cosT}
	case SigmaPlus:
		raw = [4]float64{1 + cosT*cosT, -s2 * cos2E, -s2 * sin2E, -2 * cosT}
	default:
		return [4]float64{1, 0, 0, 0}
	}
	f := PolarizationFactor(p) / 3
	for i := range raw {
		raw[i] *= f
	}
	return raw
}

package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadEllipsoid reports an ellipsoid with a non-positive equatorial radius
// or an eccentricity outside [0,1).
var ErrBadEllipsoid = errors.New("invalid ellipsoid")

// Ellipsoid is the reference body shape: equatorial radius A in metres and
// first eccentricity E. It is a value type and is never mutated.
type Ellipsoid struct {
	A float64
	E float64
}

// WGS84 is the World Geodetic System 1984 reference ellipsoid.
var WGS84 = Ellipsoid{A: 6378137.0, E: 0.0818191908426215}

// NewEllipsoid validates and returns an ellipsoid.
func NewEllipsoid(a, e float64) (Ellipsoid, error) {
	if !(a > 0) || math.IsInf(a, 0) {
		return Ellipsoid{}, fmt.Errorf("%w: equatorial radius %g", ErrBadEllipsoid, a)
	}
	if !(e >= 0 && e < 1) {
		return Ellipsoid{}, fmt.Errorf("%w: eccentricity %g", ErrBadEllipsoid, e)
	}
	return Ellipsoid{A: a, E: e}, nil
}

// E2 returns the squared eccentricity.
func (el Ellipsoid) E2() float64 { return el.E * el.E }

// B returns the polar (minor) radius a·sqrt(1-e²).
func (el Ellipsoid) B() float64 {
	return el.A * math.Sqrt(1-el.E2())
}

// N returns the radius of curvature in the prime vertical at geodetic
// latitude lat (degrees).
func (el Ellipsoid) N(lat float64) float64 {
	s := math.Sin(lat * deg2rad)
	return el.A / math.Sqrt(1-el.E2()*s*s)
}

// Shell returns the semi-axes of the shell at altitude alt above the
// ellipsoid. Shells keep the ellipsoid centre and grow both axes by alt.
func (el Ellipsoid) Shell(alt float64) (a, b float64) {
	return el.A + alt, el.B() + alt
}

package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedConversion is returned when no formula exists for a pair of
// representation tags. Conversions never fall back to an approximation.
var ErrUnsupportedConversion = errors.New("unsupported conversion")

// Tolerances gating the degenerate branches of Cartesian→Ellipsoidal. They
// are relative: X and Y are compared after scaling by 1/a, Z by 1/b.
const (
	axisTol   = 1e-12
	centreTol = 1e-12
)

type posKey struct{ from, to Coord }

type posConversion func(p Position, el Ellipsoid) Position

var positionConversions = map[posKey]posConversion{
	{CoordCartesian, CoordCartesian}:     identity,
	{CoordSpherical, CoordSpherical}:     identity,
	{CoordEllipsoidal, CoordEllipsoidal}: identity,
	{CoordCartesian, CoordSpherical}: func(p Position, _ Ellipsoid) Position {
		return cartesianToSpherical(p.(Cartesian))
	},
	{CoordSpherical, CoordCartesian}: func(p Position, _ Ellipsoid) Position {
		return sphericalToCartesian(p.(Spherical))
	},
	{CoordCartesian, CoordEllipsoidal}: func(p Position, el Ellipsoid) Position {
		return cartesianToEllipsoidal(p.(Cartesian), el)
	},
	{CoordEllipsoidal, CoordCartesian}: func(p Position, el Ellipsoid) Position {
		return ellipsoidalToCartesian(p.(Ellipsoidal), el)
	},
	{CoordSpherical, CoordEllipsoidal}: func(p Position, el Ellipsoid) Position {
		return cartesianToEllipsoidal(sphericalToCartesian(p.(Spherical)), el)
	},
	{CoordEllipsoidal, CoordSpherical}: func(p Position, el Ellipsoid) Position {
		return cartesianToSpherical(ellipsoidalToCartesian(p.(Ellipsoidal), el))
	},
}

func identity(p Position, _ Ellipsoid) Position { return p }

// Convert returns p expressed in the representation to.
func Convert(p Position, to Coord, el Ellipsoid) (Position, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil position to %s", ErrUnsupportedConversion, to)
	}
	fn, ok := positionConversions[posKey{p.Coord(), to}]
	if !ok {
		return nil, fmt.Errorf("%w: position %s to %s", ErrUnsupportedConversion, p.Coord(), to)
	}
	return fn(p, el), nil
}

// ToCartesian converts any position to Cartesian.
func ToCartesian(p Position, el Ellipsoid) (Cartesian, error) {
	out, err := Convert(p, CoordCartesian, el)
	if err != nil {
		return Cartesian{}, err
	}
	return out.(Cartesian), nil
}

// ToSpherical converts any position to geocentric spherical.
func ToSpherical(p Position, el Ellipsoid) (Spherical, error) {
	out, err := Convert(p, CoordSpherical, el)
	if err != nil {
		return Spherical{}, err
	}
	return out.(Spherical), nil
}

// ToEllipsoidal converts any position to geodetic.
func ToEllipsoidal(p Position, el Ellipsoid) (Ellipsoidal, error) {
	out, err := Convert(p, CoordEllipsoidal, el)
	if err != nil {
		return Ellipsoidal{}, err
	}
	return out.(Ellipsoidal), nil
}

func ellipsoidalToCartesian(p Ellipsoidal, el Ellipsoid) Cartesian {
	sinLat, cosLat := math.Sincos(p.Lat * deg2rad)
	sinLon, cosLon := math.Sincos(p.Lon * deg2rad)
	n := el.N(p.Lat)
	return Cartesian{
		X: (n + p.H) * cosLon * cosLat,
		Y: (n + p.H) * sinLon * cosLat,
		Z: (n*(1-el.E2()) + p.H) * sinLat,
		T: p.T,
	}
}

// cartesianToEllipsoidal is the closed-form geodetic inversion: the quartic
// in k is reduced to a single cubic root (Vermeille). The evolute interior
// takes the trigonometric root; the polar axis and the centre are separate
// branches because latitude or longitude are undefined there.
func cartesianToEllipsoidal(p Cartesian, el Ellipsoid) Ellipsoidal {
	a := el.A
	b := el.B()
	e2 := el.E2()
	e4 := e2 * e2
	e2m := 1 - e2
	lon := math.Atan2(p.Y, p.X) * rad2deg

	onAxis := math.Abs(p.X)/a < axisTol && math.Abs(p.Y)/a < axisTol
	switch {
	case onAxis && math.Abs(p.Z)/b < centreTol:
		// Centre: the equatorial normal through it, a below the surface.
		return Ellipsoidal{H: -a, Lat: 0, Lon: 0, T: p.T}
	case onAxis:
		lat := 90.0
		if p.Z < 0 {
			lat = -90
		}
		return Ellipsoidal{H: math.Abs(p.Z) - b, Lat: lat, Lon: 0, T: p.T}
	}

	rho := math.Hypot(p.X, p.Y)
	pp := (rho / a) * (rho / a)
	q := e2m * (p.Z / a) * (p.Z / a)
	r := (pp + q - e4) / 6

	if e4*q == 0 && r <= 0 {
		// Equatorial plane inside the evolute; the general formula is 0/0.
		zz := math.Sqrt((e4 - pp) / e2m)
		xx := math.Sqrt(pp)
		hh := math.Hypot(zz, xx)
		lat := math.Atan2(zz, xx) * rad2deg
		if p.Z < 0 {
			lat = -lat
		}
		return Ellipsoidal{H: -a * e2m * hh / e2, Lat: lat, Lon: lon, T: p.T}
	}

	s := e4 * pp * q / 4
	r2 := r * r
	r3 := r * r2
	disc := s * (2*r3 + s)
	u := r
	if disc >= 0 {
		t3 := s + r3
		if t3 < 0 {
			t3 -= math.Sqrt(disc)
		} else {
			t3 += math.Sqrt(disc)
		}
		t := math.Cbrt(t3)
		if t != 0 {
			u += t + r2/t
		}
	} else {
		// Inside the evolute: three real roots, take the one free of cancellation.
		ang := math.Atan2(math.Sqrt(-disc), -(s + r3))
		u += 2 * r * math.Cos(ang/3)
	}

	v := math.Sqrt(u*u + e4*q)
	uv := u + v
	if u < 0 {
		uv = e4 * q / (v - u)
	}
	w := math.Max(0, e2*(uv-q)/(2*v))
	k := uv / (math.Sqrt(uv+w*w) + w)
	d := k * rho / (k + e2)
	dz := math.Hypot(d, p.Z)

	return Ellipsoidal{
		H:   (1 - e2m/k) * dz,
		Lat: 2 * math.Atan2(p.Z, d+dz) * rad2deg,
		Lon: lon,
		T:   p.T,
	}
}

func sphericalToCartesian(p Spherical) Cartesian {
	sinLat, cosLat := math.Sincos(p.Lat * deg2rad)
	sinLon, cosLon := math.Sincos(p.Lon * deg2rad)
	return Cartesian{
		X: p.R * cosLat * cosLon,
		Y: p.R * cosLat * sinLon,
		Z: p.R * sinLat,
		T: p.T,
	}
}

func cartesianToSpherical(p Cartesian) Spherical {
	r := p.Vec().Norm()
	if r == 0 {
		return Spherical{T: p.T}
	}
	return Spherical{
		R:   r,
		Lat: math.Asin(clamp(p.Z/r, -1, 1)) * rad2deg,
		Lon: math.Atan2(p.Y, p.X) * rad2deg,
		T:   p.T,
	}
}

package geom

import (
	"fmt"
	"math"
)

// LosCoord tags the representation of a line-of-sight vector.
type LosCoord int

const (
	LosUnknown LosCoord = iota
	LosCoordCartesian
	LosCoordSpherical
)

func (c LosCoord) String() string {
	switch c {
	case LosCoordCartesian:
		return "cartesian"
	case LosCoordSpherical:
		return "spherical"
	default:
		return fmt.Sprintf("los(%d)", int(c))
	}
}

// Los is a direction scaled by a magnitude. Like Position it is a closed
// set: LosCartesian and LosSpherical.
type Los interface {
	LosCoord() LosCoord
	isLos()
}

// LosCartesian is a direction vector in the Earth-centred Cartesian frame.
type LosCartesian struct {
	DX, DY, DZ float64
}

// LosSpherical is a direction in the local geocentric tangent frame of the
// position it is attached to: zenith angle Za in [0,180], azimuth Aa in
// (-180,180] measured from north towards east, and Rate, the magnitude of
// the vector.
type LosSpherical struct {
	Za, Aa, Rate float64
}

func (LosCartesian) LosCoord() LosCoord { return LosCoordCartesian }
func (LosSpherical) LosCoord() LosCoord { return LosCoordSpherical }

func (LosCartesian) isLos() {}
func (LosSpherical) isLos() {}

// Vec returns the direction as a vector.
func (l LosCartesian) Vec() Vec3 { return Vec3{X: l.DX, Y: l.DY, Z: l.DZ} }

// Norm returns the magnitude of the direction vector.
func (l LosCartesian) Norm() float64 { return l.Vec().Norm() }

func losFromVec(v Vec3) LosCartesian { return LosCartesian{DX: v.X, DY: v.Y, DZ: v.Z} }

// Latitudes beyond poleLat are treated as the pole, where longitude partials
// diverge. angTol is the zenith tolerance below which azimuth is undefined.
const (
	poleLat = 90 - 1e-8
	angTol  = 1e-8
)

type losKey struct{ from, to LosCoord }

type losConversion func(l Los, at Spherical) Los

var losConversions = map[losKey]losConversion{
	{LosCoordCartesian, LosCoordCartesian}: func(l Los, _ Spherical) Los { return l },
	{LosCoordSpherical, LosCoordSpherical}: func(l Los, _ Spherical) Los { return l },
	{LosCoordCartesian, LosCoordSpherical}: func(l Los, at Spherical) Los {
		return losCartesianToSpherical(l.(LosCartesian), at)
	},
	{LosCoordSpherical, LosCoordCartesian}: func(l Los, at Spherical) Los {
		return losSphericalToCartesian(l.(LosSpherical), at)
	},
}

// ConvertLos returns l in representation to, interpreted at position at.
func ConvertLos(l Los, to LosCoord, at Position, el Ellipsoid) (Los, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil los to %s", ErrUnsupportedConversion, to)
	}
	fn, ok := losConversions[losKey{l.LosCoord(), to}]
	if !ok {
		return nil, fmt.Errorf("%w: los %s to %s", ErrUnsupportedConversion, l.LosCoord(), to)
	}
	sph, err := ToSpherical(at, el)
	if err != nil {
		return nil, fmt.Errorf("los reference position: %w", err)
	}
	return fn(l, sph), nil
}

// ToLosCartesian converts any Los to Cartesian at position at.
func ToLosCartesian(l Los, at Position, el Ellipsoid) (LosCartesian, error) {
	out, err := ConvertLos(l, LosCoordCartesian, at, el)
	if err != nil {
		return LosCartesian{}, err
	}
	return out.(LosCartesian), nil
}

// ToLosSpherical converts any Los to the local spherical frame at position at.
func ToLosSpherical(l Los, at Position, el Ellipsoid) (LosSpherical, error) {
	out, err := ConvertLos(l, LosCoordSpherical, at, el)
	if err != nil {
		return LosSpherical{}, err
	}
	return out.(LosSpherical), nil
}

func losSphericalToCartesian(l LosSpherical, at Spherical) LosCartesian {
	sinZa, cosZa := math.Sincos(l.Za * deg2rad)
	sinAa, cosAa := math.Sincos(l.Aa * deg2rad)

	var d Vec3
	if math.Abs(at.Lat) > poleLat {
		// At the pole the tangent frame is fixed to the x/y axes.
		s := math.Copysign(1, at.Lat)
		d = Vec3{X: sinZa * cosAa, Y: sinZa * sinAa, Z: s * cosZa}
	} else {
		sinLat, cosLat := math.Sincos(at.Lat * deg2rad)
		sinLon, cosLon := math.Sincos(at.Lon * deg2rad)
		dr := cosZa
		dlat := sinZa * cosAa
		dlon := sinZa * sinAa / cosLat
		d = Vec3{
			X: cosLat*cosLon*dr - sinLat*cosLon*dlat - cosLat*sinLon*dlon,
			Y: cosLat*sinLon*dr - sinLat*sinLon*dlat + cosLat*cosLon*dlon,
			Z: sinLat*dr + cosLat*dlat,
		}
	}
	return losFromVec(d.Scale(l.Rate))
}

func losCartesianToSpherical(l LosCartesian, at Spherical) LosSpherical {
	rate := l.Norm()
	if rate == 0 {
		return LosSpherical{}
	}
	u := l.Vec().Scale(1 / rate)

	if math.Abs(at.Lat) > poleLat {
		s := math.Copysign(1, at.Lat)
		za := math.Acos(clamp(s*u.Z, -1, 1)) * rad2deg
		aa := 0.0
		if za > angTol && za < 180-angTol {
			aa = math.Atan2(u.Y, u.X) * rad2deg
		}
		return LosSpherical{Za: za, Aa: aa, Rate: rate}
	}

	sinLat, cosLat := math.Sincos(at.Lat * deg2rad)
	sinLon, cosLon := math.Sincos(at.Lon * deg2rad)
	// Direction derivatives of r, lat and lon (lat, lon scaled by r).
	dr := cosLat*cosLon*u.X + cosLat*sinLon*u.Y + sinLat*u.Z
	dlat := -sinLat*cosLon*u.X - sinLat*sinLon*u.Y + cosLat*u.Z
	dlon := (-sinLon*u.X + cosLon*u.Y) / cosLat

	za := math.Acos(clamp(dr, -1, 1)) * rad2deg
	aa := 0.0
	if za > angTol && za < 180-angTol {
		aa = math.Atan2(dlon*cosLat, dlat) * rad2deg
	}
	return LosSpherical{Za: za, Aa: aa, Rate: rate}
}

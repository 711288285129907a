package geom

import "fmt"

// Coord tags the representation of a Position.
type Coord int

const (
	CoordUnknown Coord = iota
	CoordCartesian
	CoordSpherical
	CoordEllipsoidal
)

func (c Coord) String() string {
	switch c {
	case CoordCartesian:
		return "cartesian"
	case CoordSpherical:
		return "spherical"
	case CoordEllipsoidal:
		return "ellipsoidal"
	default:
		return fmt.Sprintf("coord(%d)", int(c))
	}
}

// Position is a point in space in one of three representations. The set of
// implementations is closed: Cartesian, Spherical and Ellipsoidal.
//
// Every representation carries a timestamp in seconds. Angles are degrees,
// lengths metres.
type Position interface {
	Coord() Coord
	Time() float64
	isPosition()
}

// Cartesian is an Earth-centred Cartesian position.
type Cartesian struct {
	X, Y, Z float64
	T       float64
}

// Spherical is a geocentric position: radius, geocentric latitude and
// longitude.
type Spherical struct {
	R, Lat, Lon float64
	T           float64
}

// Ellipsoidal is a geodetic position: height above the ellipsoid, geodetic
// latitude and longitude.
type Ellipsoidal struct {
	H, Lat, Lon float64
	T           float64
}

func (Cartesian) Coord() Coord   { return CoordCartesian }
func (Spherical) Coord() Coord   { return CoordSpherical }
func (Ellipsoidal) Coord() Coord { return CoordEllipsoidal }

func (p Cartesian) Time() float64   { return p.T }
func (p Spherical) Time() float64   { return p.T }
func (p Ellipsoidal) Time() float64 { return p.T }

func (Cartesian) isPosition()   {}
func (Spherical) isPosition()   {}
func (Ellipsoidal) isPosition() {}

// Vec returns the position as a vector.
func (p Cartesian) Vec() Vec3 { return Vec3{X: p.X, Y: p.Y, Z: p.Z} }

func cartesianAt(v Vec3, t float64) Cartesian {
	return Cartesian{X: v.X, Y: v.Y, Z: v.Z, T: t}
}

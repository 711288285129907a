package geom

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

type bogusPosition struct{}

func (bogusPosition) Coord() Coord  { return CoordUnknown }
func (bogusPosition) Time() float64 { return 0 }
func (bogusPosition) isPosition()   {}

func relDiff(got, want float64) float64 {
	scale := math.Max(1, math.Abs(want))
	return math.Abs(got-want) / scale
}

func TestEllipsoidDerivedRadii(t *testing.T) {
	el := Ellipsoid{A: 6378137, E: 0.0818}
	wantB := 6378137 * math.Sqrt(1-0.0818*0.0818)
	if got := el.B(); math.Abs(got-wantB) > 1e-6 {
		t.Fatalf("B() = %v, want %v", got, wantB)
	}
	if got := el.N(0); got != el.A {
		t.Fatalf("N(0) = %v, want %v", got, el.A)
	}
	if got, want := el.N(90), el.A/math.Sqrt(1-el.E2()); math.Abs(got-want) > 1e-6 {
		t.Fatalf("N(90) = %v, want %v", got, want)
	}
}

func TestNewEllipsoidRejectsBadShape(t *testing.T) {
	for _, tc := range []struct{ a, e float64 }{{0, 0.1}, {-1, 0}, {6e6, 1}, {6e6, -0.1}, {math.NaN(), 0}} {
		if _, err := NewEllipsoid(tc.a, tc.e); !errors.Is(err, ErrBadEllipsoid) {
			t.Errorf("NewEllipsoid(%v, %v) error = %v, want ErrBadEllipsoid", tc.a, tc.e, err)
		}
	}
	if _, err := NewEllipsoid(6378137, 0.0818); err != nil {
		t.Fatalf("NewEllipsoid valid: %v", err)
	}
}

func TestEllipsoidalCartesianRoundTrip(t *testing.T) {
	el := Ellipsoid{A: 6378137, E: 0.0818}
	tests := []Ellipsoidal{
		{H: 10000, Lat: 45, Lon: 0},
		{H: 0, Lat: 0, Lon: 0},
		{H: -1000, Lat: 89.9, Lon: 30},
		{H: 400e3, Lat: -60, Lon: -170},
		{H: 1e7, Lat: 12, Lon: 123},
		{H: 35786e3, Lat: 0.5, Lon: 179.5},
		{H: -6e6, Lat: 30, Lon: 30},
		{H: 250, Lat: -89.99, Lon: -45},
	}
	for _, want := range tests {
		t.Run(fmt.Sprintf("h=%g,lat=%g,lon=%g", want.H, want.Lat, want.Lon), func(t *testing.T) {
			cart, err := ToCartesian(want, el)
			if err != nil {
				t.Fatalf("ToCartesian: %v", err)
			}
			got, err := ToEllipsoidal(cart, el)
			if err != nil {
				t.Fatalf("ToEllipsoidal: %v", err)
			}
			if relDiff(got.H, want.H) > 1e-6 || relDiff(got.Lat, want.Lat) > 1e-6 || relDiff(got.Lon, want.Lon) > 1e-6 {
				t.Fatalf("round trip = %+v, want %+v", got, want)
			}
		})
	}
}

func TestCartesianToEllipsoidalKnownPoint(t *testing.T) {
	el := Ellipsoid{A: 6378137, E: 0.0818}
	in := Ellipsoidal{H: 10000, Lat: 45, Lon: 0, T: 12.5}
	cart := ellipsoidalToCartesian(in, el)
	got := cartesianToEllipsoidal(cart, el)

	if math.Abs(got.Lat-45) > 1e-9 || math.Abs(got.Lon) > 1e-9 || math.Abs(got.H-10000) > 1e-6 {
		t.Fatalf("got %+v, want (45°, 0°, 10000 m)", got)
	}
	if got.T != 12.5 {
		t.Fatalf("timestamp = %v, want 12.5", got.T)
	}
}

func TestCartesianToEllipsoidalDegenerateBranches(t *testing.T) {
	el := WGS84

	centre := cartesianToEllipsoidal(Cartesian{}, el)
	if centre.Lat != 0 || centre.Lon != 0 || centre.H != -el.A {
		t.Fatalf("centre = %+v, want equator at depth a", centre)
	}

	north := cartesianToEllipsoidal(Cartesian{Z: el.B() + 500}, el)
	if north.Lat != 90 || math.Abs(north.H-500) > 1e-6 {
		t.Fatalf("north pole = %+v, want lat 90, h 500", north)
	}
	south := cartesianToEllipsoidal(Cartesian{Z: -el.B() - 20}, el)
	if south.Lat != -90 || math.Abs(south.H-20) > 1e-6 {
		t.Fatalf("south pole = %+v, want lat -90, h 20", south)
	}

	// Equatorial plane inside the evolute.
	in := cartesianToEllipsoidal(Cartesian{X: 1000}, el)
	if math.IsNaN(in.H) || math.IsNaN(in.Lat) {
		t.Fatalf("evolute point produced NaN: %+v", in)
	}
	back := ellipsoidalToCartesian(in, el)
	if math.Abs(back.X-1000) > 1e-6 || math.Abs(back.Z) > 1e-6 {
		t.Fatalf("evolute round trip = %+v, want x=1000", back)
	}

	// Off-plane point inside the evolute.
	p := Cartesian{X: 10000, Z: 1000}
	e := cartesianToEllipsoidal(p, el)
	b := ellipsoidalToCartesian(e, el)
	if b.Vec().DistanceTo(p.Vec()) > 1e-6 {
		t.Fatalf("inner round trip = %+v, want %+v", b, p)
	}
}

func TestCartesianSphericalRoundTrip(t *testing.T) {
	tests := []Cartesian{
		{X: 7000e3, Y: 0, Z: 0},
		{X: -1234.5, Y: 9876.25, Z: -555.125},
		{X: 1, Y: 1, Z: 1},
		{X: 4e6, Y: -3e6, Z: 5e6, T: 3},
	}
	for _, want := range tests {
		sph, err := ToSpherical(want, WGS84)
		if err != nil {
			t.Fatalf("ToSpherical: %v", err)
		}
		got, err := ToCartesian(sph, WGS84)
		if err != nil {
			t.Fatalf("ToCartesian: %v", err)
		}
		if got.Vec().DistanceTo(want.Vec()) > 1e-9*want.Vec().Norm() || got.T != want.T {
			t.Fatalf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestSphericalEllipsoidalThroughCartesian(t *testing.T) {
	el := WGS84
	in := Spherical{R: 7e6, Lat: 33, Lon: -71}
	e, err := Convert(in, CoordEllipsoidal, el)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	back, err := Convert(e, CoordSpherical, el)
	if err != nil {
		t.Fatalf("Convert back: %v", err)
	}
	got := back.(Spherical)
	if relDiff(got.R, in.R) > 1e-12 || math.Abs(got.Lat-in.Lat) > 1e-9 || math.Abs(got.Lon-in.Lon) > 1e-9 {
		t.Fatalf("round trip = %+v, want %+v", got, in)
	}
}

func TestConvertUnsupported(t *testing.T) {
	if _, err := Convert(bogusPosition{}, CoordCartesian, WGS84); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("Convert(bogus) error = %v, want ErrUnsupportedConversion", err)
	}
	if _, err := Convert(Cartesian{}, Coord(42), WGS84); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("Convert(to 42) error = %v, want ErrUnsupportedConversion", err)
	}
	if _, err := Convert(nil, CoordCartesian, WGS84); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("Convert(nil) error = %v, want ErrUnsupportedConversion", err)
	}
}

func TestConversionMatrixIsExhaustive(t *testing.T) {
	coords := []Coord{CoordCartesian, CoordSpherical, CoordEllipsoidal}
	for _, from := range coords {
		for _, to := range coords {
			if _, ok := positionConversions[posKey{from, to}]; !ok {
				t.Errorf("missing position conversion %s -> %s", from, to)
			}
		}
	}
	for _, from := range []LosCoord{LosCoordCartesian, LosCoordSpherical} {
		for _, to := range []LosCoord{LosCoordCartesian, LosCoordSpherical} {
			if _, ok := losConversions[losKey{from, to}]; !ok {
				t.Errorf("missing los conversion %s -> %s", from, to)
			}
		}
	}
}

// Package platform supplies sensor positions: fixed geodetic points and
// orbiting platforms propagated from a TLE with SGP4.
package platform

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/soniakeys/unit"

	"github.com/signalsfoundry/limb-sounder/geom"
)

// ErrBadTLE reports TLE lines that fail format checks.
var ErrBadTLE = errors.New("invalid TLE")

// ErrPropagation reports an SGP4 result that is not a plausible orbit.
var ErrPropagation = errors.New("sgp4 propagation failed")

// Source yields the sensor position at a wall-clock time. Timestamps of the
// returned positions are seconds after the source epoch.
type Source interface {
	PositionAt(at time.Time) (geom.Position, error)
}

// Seconds returns at as seconds after epoch.
func Seconds(epoch, at time.Time) float64 {
	return at.Sub(epoch).Seconds()
}

// StaticSource is a sensor fixed at a geodetic position.
type StaticSource struct {
	Lat, Lon unit.Angle
	H        float64 // metres above the ellipsoid
	Epoch    time.Time
}

// PositionAt returns the fixed position stamped with at.
func (s StaticSource) PositionAt(at time.Time) (geom.Position, error) {
	return geom.Ellipsoidal{H: s.H, Lat: s.Lat.Deg(), Lon: s.Lon.Deg(), T: Seconds(s.Epoch, at)}, nil
}

// SGP4Source propagates a TLE with SGP4 and rotates the result into the
// Earth-fixed frame.
type SGP4Source struct {
	sat   satellite.Satellite
	Epoch time.Time
}

// NewSGP4Source parses a two-line element set. The lines are checked before
// parsing because go-satellite exits the process on malformed input.
func NewSGP4Source(line1, line2 string, epoch time.Time) (*SGP4Source, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if err := validateTLE(line1, line2); err != nil {
		return nil, err
	}
	return &SGP4Source{sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS84), Epoch: epoch}, nil
}

func validateTLE(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("%w: line1 length %d, expected 69", ErrBadTLE, len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("%w: line2 length %d, expected 69", ErrBadTLE, len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("%w: line1 must start with '1', got %q", ErrBadTLE, line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("%w: line2 must start with '2', got %q", ErrBadTLE, line2[0])
	}
	return nil
}

// PositionAt returns the Earth-fixed Cartesian position at the whole second
// of at. go-satellite works in kilometres; positions are metres.
func (s *SGP4Source) PositionAt(at time.Time) (geom.Position, error) {
	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	eci, _ := satellite.Propagate(s.sat, year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, min, sec))
	ecef := satellite.ECIToECEF(eci, gmst)

	const kmToM = 1000.0
	pos := geom.Cartesian{X: ecef.X * kmToM, Y: ecef.Y * kmToM, Z: ecef.Z * kmToM, T: Seconds(s.Epoch, at)}
	if err := plausibleOrbit(pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Orbits between 6200 km and 50000 km geocentric radius are accepted.
func plausibleOrbit(p geom.Cartesian) error {
	v := p.Vec()
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: non-finite position", ErrPropagation)
		}
	}
	if r := v.Norm(); r < 6200e3 || r > 50000e3 {
		return fmt.Errorf("%w: radius %.1f km", ErrPropagation, r/1000)
	}
	return nil
}

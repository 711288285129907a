package geom

import (
	"fmt"
	"math"
)

// SpeedOfLight is the propagation speed in vacuum, m/s.
const SpeedOfLight = 299792458.0

// Nav is the canonical navigation state: a Cartesian position, a Cartesian
// line of sight and the ellipsoid both are evaluated against.
type Nav struct {
	Pos       Cartesian
	Los       LosCartesian
	Ellipsoid Ellipsoid
}

// NewNav collapses any Position/Los pair into the canonical triple.
func NewNav(pos Position, los Los, el Ellipsoid) (Nav, error) {
	cart, err := ToCartesian(pos, el)
	if err != nil {
		return Nav{}, fmt.Errorf("nav position: %w", err)
	}
	dir, err := ToLosCartesian(los, pos, el)
	if err != nil {
		return Nav{}, fmt.Errorf("nav los: %w", err)
	}
	return Nav{Pos: cart, Los: dir, Ellipsoid: el}, nil
}

// Geodetic returns the position of nav in ellipsoidal coordinates.
func (n Nav) Geodetic() Ellipsoidal {
	return cartesianToEllipsoidal(n.Pos, n.Ellipsoid)
}

// LocalLos returns the line of sight in the local spherical frame.
func (n Nav) LocalLos() LosSpherical {
	return losCartesianToSpherical(n.Los, cartesianToSpherical(n.Pos))
}

// Navigator advances navigation states along their line of sight. Elapsed
// time accrues as absolute distance over Speed.
type Navigator struct {
	Speed float64
}

// NewNavigator returns a navigator propagating at the speed of light.
func NewNavigator() Navigator {
	return Navigator{Speed: SpeedOfLight}
}

// Step advances nav by the signed distance d. The step is clamped to the
// first crossing of the reference surface in the direction of travel, so a
// ray never tunnels through the body.
func (nv Navigator) Step(nav Nav, d float64) Nav {
	if d == 0 || math.IsNaN(d) {
		return nav
	}
	dir := Forward
	if d < 0 {
		dir = Backward
	}
	if hit := Intersect(nav, 0, dir); hit.Kind.Hit() {
		if (d > 0 && hit.Distance < d) || (d < 0 && hit.Distance > d) {
			d = hit.Distance
		}
	}
	return nv.advance(nav, d)
}

// StepToAltitude moves nav to the crossing of the shell at alt that is
// closest to the current point, ahead or behind. When the ray never crosses
// the shell the state is returned unchanged and ok is false.
func (nv Navigator) StepToAltitude(nav Nav, alt float64) (next Nav, ok bool) {
	hit := Intersect(nav, alt, Forward)
	if hit.Kind == CompleteMiss {
		return nav, false
	}
	t := hit.Near
	if math.Abs(hit.Far) < math.Abs(t) {
		t = hit.Far
	}
	return nv.advance(nav, t), true
}

func (nv Navigator) advance(nav Nav, d float64) Nav {
	u := nav.Los.Vec().Unit()
	if d == 0 || u == (Vec3{}) {
		return nav
	}
	speed := nv.Speed
	if speed <= 0 {
		speed = SpeedOfLight
	}
	next := nav
	next.Pos = cartesianAt(nav.Pos.Vec().Add(u.Scale(d)), nav.Pos.T+math.Abs(d)/speed)
	return next
}

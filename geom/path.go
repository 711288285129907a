package geom

import (
	"errors"
	"fmt"
)

// ErrBadPathConfig reports a non-positive step length or a negative top
// altitude.
var ErrBadPathConfig = errors.New("invalid path configuration")

// Boundary names what terminates a path at its far end.
type Boundary int

const (
	BoundarySpace Boundary = iota
	BoundarySurface
	BoundaryTruncated
)

func (b Boundary) String() string {
	switch b {
	case BoundarySpace:
		return "space"
	case BoundarySurface:
		return "surface"
	case BoundaryTruncated:
		return "truncated"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

// DefaultMaxPoints bounds a path when PathConfig.MaxPoints is zero.
const DefaultMaxPoints = 10000

// PathConfig controls path tracing.
type PathConfig struct {
	// Step is the nominal distance between path points, metres.
	Step float64
	// TopAltitude is the altitude of the top of the medium, metres.
	TopAltitude float64
	// MaxPoints caps the number of points; 0 means DefaultMaxPoints.
	MaxPoints int
}

// Path is the sequence of navigation states along a ray. Index 0 is the
// sensor, the last index the far boundary. Point timestamps are photon
// passage times and are non-decreasing from the boundary to the sensor.
type Path struct {
	Points   []Nav
	Boundary Boundary
}

// Len returns the number of points.
func (p Path) Len() int { return len(p.Points) }

// SegmentLength returns the straight distance between points i and i+1.
func (p Path) SegmentLength(i int) float64 {
	return p.Points[i].Pos.Vec().DistanceTo(p.Points[i+1].Pos.Vec())
}

// TracePath walks from the sensor state along its line of sight until the
// ray reaches the surface, leaves through the top of the medium, or the
// point budget is spent. A sensor above the medium first jumps to where the
// ray enters it; a ray that never enters yields a one-point path.
func (nv Navigator) TracePath(sensor Nav, cfg PathConfig) (Path, error) {
	if !(cfg.Step > 0) {
		return Path{}, fmt.Errorf("%w: step %g", ErrBadPathConfig, cfg.Step)
	}
	if cfg.TopAltitude < 0 {
		return Path{}, fmt.Errorf("%w: top altitude %g", ErrBadPathConfig, cfg.TopAltitude)
	}
	maxPoints := cfg.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}

	points := []Nav{sensor}
	cur := sensor
	if cur.Geodetic().H > cfg.TopAltitude {
		entry := Intersect(cur, cfg.TopAltitude, Forward)
		if entry.Kind != ForwardOutside {
			return finishPath(points, BoundarySpace), nil
		}
		cur = nv.advance(cur, entry.Distance)
		points = append(points, cur)
	}

	for len(points) < maxPoints {
		d := cfg.Step
		boundary := BoundaryTruncated
		if exit := Intersect(cur, cfg.TopAltitude, Forward); exit.Kind == ForwardInside && exit.Distance <= d {
			d = exit.Distance
			boundary = BoundarySpace
		}
		if ground := Intersect(cur, 0, Forward); ground.Kind.Hit() && ground.Distance <= d {
			d = ground.Distance
			boundary = BoundarySurface
		}
		if d <= 0 {
			if boundary == BoundaryTruncated {
				boundary = BoundarySurface
			}
			return finishPath(points, boundary), nil
		}

		cur = nv.Step(cur, d)
		points = append(points, cur)
		if boundary != BoundaryTruncated {
			return finishPath(points, boundary), nil
		}
	}
	return finishPath(points, BoundaryTruncated), nil
}

// finishPath turns accumulated travel times into passage times: a point
// reached after travelling t seconds from the sensor was passed t seconds
// before the sensor time.
func finishPath(points []Nav, b Boundary) Path {
	t0 := points[0].Pos.T
	for i := range points {
		points[i].Pos.T = t0 - (points[i].Pos.T - t0)
	}
	return Path{Points: points, Boundary: b}
}

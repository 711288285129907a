package geom

import (
	"fmt"
	"math"
)

// Direction selects which half of the ray an intersection is searched on.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// IntersectKind classifies a ray/shell intersection.
type IntersectKind int

const (
	CompleteMiss IntersectKind = iota
	ForwardInside
	ForwardOutside
	ForwardMiss
	BackwardInside
	BackwardOutside
	BackwardMiss
)

func (k IntersectKind) String() string {
	switch k {
	case CompleteMiss:
		return "complete_miss"
	case ForwardInside:
		return "forward_inside"
	case ForwardOutside:
		return "forward_outside"
	case ForwardMiss:
		return "forward_miss"
	case BackwardInside:
		return "backward_inside"
	case BackwardOutside:
		return "backward_outside"
	case BackwardMiss:
		return "backward_miss"
	default:
		return fmt.Sprintf("intersect(%d)", int(k))
	}
}

// Hit reports whether the classification contains a usable crossing.
func (k IntersectKind) Hit() bool {
	switch k {
	case ForwardInside, ForwardOutside, BackwardInside, BackwardOutside:
		return true
	}
	return false
}

// Intersection is the result of intersecting a ray with a shell. Near and
// Far are the two signed roots along the unit direction (Near <= Far); both
// are NaN for a complete miss. Distance is the root selected by Kind, or
// NaN when Kind is not a hit.
type Intersection struct {
	Kind     IntersectKind
	Distance float64
	Near     float64
	Far      float64
}

// tangentTol is the relative discriminant below which a ray only grazes a
// shell; shellTol is the relative level-set value inside which a point is
// taken to lie on the shell.
const (
	tangentTol = 1e-12
	shellTol   = 1e-12
)

// Intersect intersects the ray of nav with the shell alt metres above the
// ellipsoid, searching in direction dir.
func Intersect(nav Nav, alt float64, dir Direction) Intersection {
	sa, sb := nav.Ellipsoid.Shell(alt)
	p := nav.Pos.Vec()
	u := nav.Los.Vec().Unit()
	miss := Intersection{Kind: CompleteMiss, Distance: math.NaN(), Near: math.NaN(), Far: math.NaN()}
	if sa <= 0 || sb <= 0 || u == (Vec3{}) {
		return miss
	}

	ia2 := 1 / (sa * sa)
	ib2 := 1 / (sb * sb)
	alpha := (u.X*u.X+u.Y*u.Y)*ia2 + u.Z*u.Z*ib2
	beta := (p.X*u.X+p.Y*u.Y)*ia2 + p.Z*u.Z*ib2
	gamma := (p.X*p.X+p.Y*p.Y)*ia2 + p.Z*p.Z*ib2 - 1

	disc := beta*beta - alpha*gamma
	if disc <= tangentTol*(beta*beta+math.Abs(alpha*gamma)) {
		return miss
	}

	// Cancellation-free root pair of alpha t² + 2 beta t + gamma = 0.
	q := -(beta + math.Copysign(math.Sqrt(disc), beta))
	near, far := q/alpha, gamma/q
	if near > far {
		near, far = far, near
	}

	inside := gamma < -shellTol
	if math.Abs(gamma) <= shellTol {
		// On the shell: the root closest to zero is the current point.
		if math.Abs(near) < math.Abs(far) {
			near = 0
		} else {
			far = 0
		}
	}

	out := Intersection{Near: near, Far: far, Distance: math.NaN()}
	switch dir {
	case Forward:
		switch {
		case inside:
			out.Kind, out.Distance = ForwardInside, far
		case far > 0 && near >= 0:
			out.Kind, out.Distance = ForwardOutside, near
		default:
			out.Kind = ForwardMiss
		}
	default:
		switch {
		case inside:
			out.Kind, out.Distance = BackwardInside, near
		case near < 0 && far <= 0:
			out.Kind, out.Distance = BackwardOutside, far
		default:
			out.Kind = BackwardMiss
		}
	}
	return out
}

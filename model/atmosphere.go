package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/limb-sounder/geom"
	"github.com/signalsfoundry/limb-sounder/zeeman"
)

// ErrBadProfile reports an empty, unsorted or unphysical profile.
var ErrBadProfile = errors.New("invalid atmosphere profile")

// AtmPoint is the atmospheric state at one path point.
type AtmPoint struct {
	Pressure    float64 // Pa
	Temperature float64 // K
	// VMR maps species name to volume mixing ratio.
	VMR   map[string]float64
	Field zeeman.Field
}

// Clone returns a copy of p that shares no map with it.
func (p AtmPoint) Clone() AtmPoint {
	out := p
	if p.VMR != nil {
		out.VMR = make(map[string]float64, len(p.VMR))
		for k, v := range p.VMR {
			out.VMR[k] = v
		}
	}
	return out
}

// Level is one altitude of a vertical profile.
type Level struct {
	Altitude float64 // geodetic, metres
	AtmPoint
}

// Profile is a vertical atmosphere. Levels are ordered by increasing
// altitude; values between levels are interpolated, linearly in log
// pressure and linearly for everything else. Outside the profile the
// nearest level applies.
type Profile struct {
	levels []Level
}

// NewProfile validates levels and returns a profile over a sorted copy.
func NewProfile(levels []Level) (*Profile, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrBadProfile)
	}
	sorted := make([]Level, len(levels))
	for i, l := range levels {
		sorted[i] = Level{Altitude: l.Altitude, AtmPoint: l.AtmPoint.Clone()}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Altitude < sorted[j].Altitude })

	for i, l := range sorted {
		if !(l.Pressure > 0) || !(l.Temperature > 0) {
			return nil, fmt.Errorf("%w: level at %g m has pressure %g, temperature %g", ErrBadProfile, l.Altitude, l.Pressure, l.Temperature)
		}
		if i > 0 && l.Altitude == sorted[i-1].Altitude {
			return nil, fmt.Errorf("%w: duplicate altitude %g m", ErrBadProfile, l.Altitude)
		}
	}
	return &Profile{levels: sorted}, nil
}

// Levels returns the number of levels.
func (p *Profile) Levels() int { return len(p.levels) }

// Top returns the altitude of the highest level.
func (p *Profile) Top() float64 { return p.levels[len(p.levels)-1].Altitude }

// At returns the interpolated state at altitude alt.
func (p *Profile) At(alt float64) AtmPoint {
	ls := p.levels
	if alt <= ls[0].Altitude {
		return ls[0].AtmPoint.Clone()
	}
	if alt >= ls[len(ls)-1].Altitude {
		return ls[len(ls)-1].AtmPoint.Clone()
	}
	i := sort.Search(len(ls), func(i int) bool { return ls[i].Altitude > alt })
	lo, hi := ls[i-1], ls[i]
	w := (alt - lo.Altitude) / (hi.Altitude - lo.Altitude)

	out := AtmPoint{
		Pressure:    math.Exp(lerp(math.Log(lo.Pressure), math.Log(hi.Pressure), w)),
		Temperature: lerp(lo.Temperature, hi.Temperature, w),
		Field: zeeman.Field{
			U: lerp(lo.Field.U, hi.Field.U, w),
			V: lerp(lo.Field.V, hi.Field.V, w),
			W: lerp(lo.Field.W, hi.Field.W, w),
		},
	}
	if len(lo.VMR)+len(hi.VMR) > 0 {
		out.VMR = make(map[string]float64, len(lo.VMR))
		for k, v := range lo.VMR {
			out.VMR[k] = lerp(v, hi.VMR[k], w)
		}
		for k, v := range hi.VMR {
			if _, ok := lo.VMR[k]; !ok {
				out.VMR[k] = lerp(0, v, w)
			}
		}
	}
	return out
}

// Sample evaluates the profile at the geodetic altitude of every path
// point.
func (p *Profile) Sample(path geom.Path) []AtmPoint {
	out := make([]AtmPoint, path.Len())
	for i, nav := range path.Points {
		out[i] = p.At(nav.Geodetic().H)
	}
	return out
}

func lerp(a, b, w float64) float64 { return a + (b-a)*w }

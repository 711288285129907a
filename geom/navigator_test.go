package geom

import (
	"math"
	"testing"
)

func mustNav(t *testing.T, pos Position, los Los) Nav {
	t.Helper()
	nav, err := NewNav(pos, los, WGS84)
	if err != nil {
		t.Fatalf("NewNav: %v", err)
	}
	return nav
}

func TestStepNeverTunnels(t *testing.T) {
	nv := NewNavigator()
	start := mustNav(t, Ellipsoidal{H: 1e6}, LosSpherical{Za: 180, Rate: 1})

	got := nv.Step(start, 5e6)
	if h := got.Geodetic().H; math.Abs(h) > 1e-6 {
		t.Fatalf("altitude after step = %v, want 0", h)
	}
	if want := 1e6 / SpeedOfLight; math.Abs(got.Pos.T-want) > 1e-15 {
		t.Fatalf("time = %v, want %v", got.Pos.T, want)
	}
	if start.Pos.T != 0 || start.Geodetic().H < 999999 {
		t.Fatalf("input state was modified: %+v", start)
	}
}

func TestStepBackwardClampsToSurface(t *testing.T) {
	nv := NewNavigator()
	start := mustNav(t, Ellipsoidal{H: 1e6}, LosSpherical{Za: 0, Rate: 1})

	got := nv.Step(start, -5e6)
	if h := got.Geodetic().H; math.Abs(h) > 1e-6 {
		t.Fatalf("altitude after backward step = %v, want 0", h)
	}
	if want := 1e6 / SpeedOfLight; math.Abs(got.Pos.T-want) > 1e-15 {
		t.Fatalf("time = %v, want %v", got.Pos.T, want)
	}
}

func TestStepFreeSpace(t *testing.T) {
	nv := Navigator{Speed: 1000}
	start := mustNav(t, Ellipsoidal{H: 1e6, T: 5}, LosSpherical{Za: 0, Rate: 1})

	got := nv.Step(start, 2000)
	if h := got.Geodetic().H; math.Abs(h-1002000) > 1e-6 {
		t.Fatalf("altitude = %v, want 1002000", h)
	}
	if got.Pos.T != 7 {
		t.Fatalf("time = %v, want 7", got.Pos.T)
	}
	if same := nv.Step(start, 0); same != start {
		t.Fatalf("zero step changed state: %+v", same)
	}
}

func TestStepToAltitude(t *testing.T) {
	nv := NewNavigator()
	tests := []struct {
		name     string
		h, za    float64
		alt      float64
		distance float64
	}{
		{"descend from above", 800e3, 180, 100e3, 700e3},
		{"ascend from inside", 50e3, 0, 100e3, 50e3},
		{"looking away still picks nearest crossing", 800e3, 0, 100e3, 700e3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start := mustNav(t, Ellipsoidal{H: tc.h}, LosSpherical{Za: tc.za, Rate: 1})
			got, ok := nv.StepToAltitude(start, tc.alt)
			if !ok {
				t.Fatalf("StepToAltitude reported a miss")
			}
			if h := got.Geodetic().H; math.Abs(h-tc.alt) > 1e-6 {
				t.Fatalf("altitude = %v, want %v", h, tc.alt)
			}
			if want := tc.distance / SpeedOfLight; math.Abs(got.Pos.T-want) > 1e-15 {
				t.Fatalf("time = %v, want %v", got.Pos.T, want)
			}
		})
	}
}

func TestStepToAltitudeTangentIsNoOp(t *testing.T) {
	nav := Nav{
		Pos:       Cartesian{X: 1024, Y: -4096, T: 3},
		Los:       LosCartesian{DY: 1},
		Ellipsoid: Ellipsoid{A: 1000, E: 0},
	}
	got, ok := NewNavigator().StepToAltitude(nav, 24)
	if ok {
		t.Fatalf("StepToAltitude on a tangent ray reported a crossing")
	}
	if got != nav {
		t.Fatalf("state = %+v, want unchanged %+v", got, nav)
	}
}

func TestNavLocalLos(t *testing.T) {
	nav := mustNav(t, Ellipsoidal{H: 500e3, Lat: 20, Lon: -30}, LosSpherical{Za: 100, Aa: 45, Rate: 1})
	got := nav.LocalLos()
	if math.Abs(got.Za-100) > 1e-9 || math.Abs(got.Aa-45) > 1e-9 {
		t.Fatalf("local los = %+v, want za 100 aa 45", got)
	}
}

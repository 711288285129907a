package rte

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/limb-sounder/geom"
	"github.com/signalsfoundry/limb-sounder/internal/observability"
	"github.com/signalsfoundry/limb-sounder/model"
	"github.com/signalsfoundry/limb-sounder/spectro"
	"github.com/signalsfoundry/limb-sounder/zeeman"
)

// fakeAbsorber has a closed-form propagation matrix: absorption quadratic in
// temperature and linear in the VMR of "X", polarization linear in the
// field. Frequency scales the absorption so channels differ.
type fakeAbsorber struct {
	alpha float64 // 1/m at unit VMR and 250 K
	beta  float64 // 1/(m·T)
}

func (a fakeAbsorber) PropMat(f float64, atm model.AtmPoint, g spectro.Geometry) spectro.PropMat {
	k := a.SpeciesPropMat("X", f, atm, g).Scale(atm.VMR["X"])
	k.B = a.beta * atm.Field.U
	k.C = a.beta * atm.Field.V
	k.D = a.beta * atm.Field.W
	k.W = 0.5 * a.beta * atm.Field.U
	return k
}

func (a fakeAbsorber) SpeciesPropMat(species string, f float64, atm model.AtmPoint, _ spectro.Geometry) spectro.PropMat {
	if species != "X" {
		return spectro.PropMat{}
	}
	r := atm.Temperature / 250
	return spectro.PropMat{A: a.alpha * r * r * f / 1e9}
}

func nadirPath(t *testing.T, from float64) geom.Path {
	t.Helper()
	sensor, err := geom.NewNav(geom.Ellipsoidal{Lat: 30, Lon: 10, H: from}, geom.LosSpherical{Za: 180, Rate: 1}, geom.WGS84)
	if err != nil {
		t.Fatalf("NewNav: %v", err)
	}
	p, err := geom.NewNavigator().TracePath(sensor, geom.PathConfig{Step: 10e3, TopAltitude: 100e3})
	if err != nil {
		t.Fatalf("TracePath: %v", err)
	}
	return p
}

func atmosphereAlong(p geom.Path, field zeeman.Field) []model.AtmPoint {
	out := make([]model.AtmPoint, p.Len())
	for i, nav := range p.Points {
		h := nav.Geodetic().H
		out[i] = model.AtmPoint{
			Pressure:    1e5 * math.Exp(-h/7e3),
			Temperature: 290 - 2e-3*h,
			VMR:         map[string]float64{"X": 0.5 + h/1e5},
			Field:       field,
		}
	}
	return out
}

func mustIntegrator(t *testing.T, a Absorber, dim StokesDim, opts ...Option) *Integrator {
	t.Helper()
	in, err := NewIntegrator(a, dim, append([]Option{WithSource(SourceRayleighJeans)}, opts...)...)
	if err != nil {
		t.Fatalf("NewIntegrator: %v", err)
	}
	return in
}

func mustIntegrate(t *testing.T, in *Integrator, input Input) *Results {
	t.Helper()
	res, err := in.Integrate(context.Background(), input)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	return res
}

func TestOnePointPathKeepsBoundary(t *testing.T) {
	p := nadirPath(t, 30e3)
	p.Points = p.Points[:1]
	in := mustIntegrator(t, fakeAbsorber{alpha: 1e-4}, 1)

	res := mustIntegrate(t, in, Input{
		Path:        p,
		Atmosphere:  atmosphereAlong(p, zeeman.Field{}),
		Frequencies: []float64{1e9, 2e9},
		Boundary:    []Stokes{{2.7}},
		Targets:     []Target{{Kind: TargetTemperature}},
	})
	for f, s := range res.SensorResults() {
		if len(s) != 1 || s[0] != 2.7 {
			t.Fatalf("frequency %d sensor = %v, want [2.7]", f, s)
		}
	}
	if got := res.Jacobian()[0][0][0][0]; got != 0 {
		t.Fatalf("jacobian = %v, want 0", got)
	}
}

func TestNoAbsorptionPassesBoundaryThrough(t *testing.T) {
	p := nadirPath(t, 30e3)
	in := mustIntegrator(t, fakeAbsorber{}, 4)

	bound := Stokes{3, 0.5, -0.25, 0.1}
	res := mustIntegrate(t, in, Input{
		Path:        p,
		Atmosphere:  atmosphereAlong(p, zeeman.Field{}),
		Frequencies: []float64{1e9},
		Boundary:    []Stokes{bound},
	})
	for pt := range res.Points() {
		got := res.Radiance(pt, 0)
		for i := range bound {
			if math.Abs(got[i]-bound[i]) > 1e-12 {
				t.Fatalf("point %d radiance %v, want %v", pt, got, bound)
			}
		}
	}
}

func TestIsothermalSlabMatchesClosedForm(t *testing.T) {
	p := nadirPath(t, 30e3)
	atm := make([]model.AtmPoint, p.Len())
	for i := range atm {
		atm[i] = model.AtmPoint{Pressure: 100, Temperature: 250, VMR: map[string]float64{"X": 1}}
	}
	const alpha = 2e-5
	in := mustIntegrator(t, fakeAbsorber{alpha: alpha}, 1)
	res := mustIntegrate(t, in, Input{
		Path:        p,
		Atmosphere:  atm,
		Frequencies: []float64{1e9, 3e9},
		Boundary:    []Stokes{{0}},
	})

	length := 0.0
	for i := 0; i+1 < p.Len(); i++ {
		length += p.SegmentLength(i)
	}
	for f, freq := range res.Frequencies() {
		tau := alpha * freq / 1e9 * length
		want := 250 * -math.Expm1(-tau)
		if got := res.SensorResults()[f][0]; math.Abs(got-want) > 1e-9*want {
			t.Fatalf("frequency %g radiance %v, want %v", freq, got, want)
		}
	}
}

func TestOpaquePathSaturatesAtSource(t *testing.T) {
	p := nadirPath(t, 30e3)
	atm := atmosphereAlong(p, zeeman.Field{})
	in := mustIntegrator(t, fakeAbsorber{alpha: 1}, 1)
	res := mustIntegrate(t, in, Input{Path: p, Atmosphere: atm, Frequencies: []float64{1e9}, Boundary: []Stokes{{0}}})

	// The first segment alone is opaque, so only its mean source survives.
	want := 0.5 * (atm[0].Temperature + atm[1].Temperature)
	if got := res.SensorResults()[0][0]; math.Abs(got-want) > 1e-6 {
		t.Fatalf("opaque radiance %v, want first segment source %v", got, want)
	}
}

func TestUnpolarizedStokesDimsAgree(t *testing.T) {
	p := nadirPath(t, 30e3)
	atm := atmosphereAlong(p, zeeman.Field{})
	freqs := []float64{1e9, 2e9, 5e9}

	one := mustIntegrate(t, mustIntegrator(t, fakeAbsorber{alpha: 3e-5}, 1), Input{
		Path: p, Atmosphere: atm, Frequencies: freqs, Boundary: []Stokes{{2.7}},
	})
	four := mustIntegrate(t, mustIntegrator(t, fakeAbsorber{alpha: 3e-5}, 4), Input{
		Path: p, Atmosphere: atm, Frequencies: freqs, Boundary: []Stokes{Unpolarized(4, 2.7)},
	})
	for f := range freqs {
		a, b := one.SensorResults()[f], four.SensorResults()[f]
		if math.Abs(a[0]-b[0]) > 1e-10 {
			t.Fatalf("frequency %d: N=1 %v, N=4 %v", f, a, b)
		}
		for i := 1; i < 4; i++ {
			if math.Abs(b[i]) > 1e-12 {
				t.Fatalf("frequency %d component %d = %v, want 0", f, i, b[i])
			}
		}
	}
}

func TestFieldPolarizesRadiance(t *testing.T) {
	p := nadirPath(t, 30e3)
	atm := atmosphereAlong(p, zeeman.Field{W: 5e-5})
	in := mustIntegrator(t, fakeAbsorber{alpha: 3e-5, beta: 0.02}, 4)
	res := mustIntegrate(t, in, Input{Path: p, Atmosphere: atm, Frequencies: []float64{1e9}, Boundary: []Stokes{Unpolarized(4, 2.7)}})

	if v := res.SensorResults()[0][3]; v == 0 {
		t.Fatalf("circular polarization = 0 with longitudinal field")
	}
}

func TestWorkerCountDoesNotChangeResults(t *testing.T) {
	p := nadirPath(t, 30e3)
	input := Input{
		Path:        p,
		Atmosphere:  atmosphereAlong(p, zeeman.Field{U: 1e-5, W: 4e-5}),
		Frequencies: []float64{1e9, 2e9, 3e9, 4e9, 5e9, 6e9, 7e9},
		Boundary:    []Stokes{Unpolarized(4, 2.7)},
		Targets:     []Target{{Kind: TargetTemperature}, {Kind: TargetFieldW}},
	}
	a := mustIntegrate(t, mustIntegrator(t, fakeAbsorber{alpha: 3e-5, beta: 0.02}, 4, WithWorkers(1)), input)
	b := mustIntegrate(t, mustIntegrator(t, fakeAbsorber{alpha: 3e-5, beta: 0.02}, 4, WithWorkers(4)), input)

	for f := range input.Frequencies {
		for i := range 4 {
			if a.Radiance(0, f)[i] != b.Radiance(0, f)[i] {
				t.Fatalf("frequency %d radiance differs: %v vs %v", f, a.Radiance(0, f), b.Radiance(0, f))
			}
		}
	}
	for tg := range input.Targets {
		for pt := range p.Len() {
			for f := range input.Frequencies {
				for i := range 4 {
					if a.Jacobian()[tg][pt][f][i] != b.Jacobian()[tg][pt][f][i] {
						t.Fatalf("jacobian %d/%d/%d differs", tg, pt, f)
					}
				}
			}
		}
	}
}

// bruteJacobian returns the central difference of the sensor radiance when
// perturb shifts the state at point pt by ±h.
func bruteJacobian(t *testing.T, in *Integrator, input Input, pt int, h float64, perturb func(*model.AtmPoint, float64)) []Stokes {
	t.Helper()
	shifted := func(s float64) []Stokes {
		atm := make([]model.AtmPoint, len(input.Atmosphere))
		for i, a := range input.Atmosphere {
			atm[i] = a.Clone()
		}
		perturb(&atm[pt], s)
		in2 := input
		in2.Atmosphere = atm
		in2.Targets = nil
		return mustIntegrate(t, in, in2).SensorResults()
	}
	plus, minus := shifted(h), shifted(-h)
	out := make([]Stokes, len(plus))
	for f := range out {
		out[f] = make(Stokes, len(plus[f]))
		for i := range out[f] {
			out[f][i] = (plus[f][i] - minus[f][i]) / (2 * h)
		}
	}
	return out
}

func TestJacobianMatchesFiniteDifferences(t *testing.T) {
	p := nadirPath(t, 30e3)
	targets := []Target{
		{Kind: TargetTemperature},
		{Kind: TargetVMR, Species: "X"},
		{Kind: TargetFieldU},
		{Kind: TargetFieldV},
		{Kind: TargetFieldW},
	}
	input := Input{
		Path:        p,
		Atmosphere:  atmosphereAlong(p, zeeman.Field{U: 2e-5, V: -1e-5, W: 4e-5}),
		Frequencies: []float64{1e9, 4e9},
		Boundary:    []Stokes{Unpolarized(4, 2.7)},
		Targets:     targets,
	}
	in := mustIntegrator(t, fakeAbsorber{alpha: 3e-5, beta: 0.02}, 4)
	res := mustIntegrate(t, in, input)

	perturbers := []struct {
		h  float64
		fn func(*model.AtmPoint, float64)
	}{
		{0.01, func(a *model.AtmPoint, s float64) { a.Temperature += s }},
		{1e-4, func(a *model.AtmPoint, s float64) { a.VMR["X"] += s }},
		{1e-6, func(a *model.AtmPoint, s float64) { a.Field.U += s }},
		{1e-6, func(a *model.AtmPoint, s float64) { a.Field.V += s }},
		{1e-6, func(a *model.AtmPoint, s float64) { a.Field.W += s }},
	}

	for ti, tg := range targets {
		scale := 0.0
		for pt := range p.Len() {
			for f := range input.Frequencies {
				for _, v := range res.Jacobian()[ti][pt][f] {
					scale = math.Max(scale, math.Abs(v))
				}
			}
		}
		if scale == 0 {
			t.Fatalf("%s jacobian is identically zero", tg)
		}
		for pt := range p.Len() {
			want := bruteJacobian(t, in, input, pt, perturbers[ti].h, perturbers[ti].fn)
			for f := range input.Frequencies {
				got := res.Jacobian()[ti][pt][f]
				for i := range got {
					if math.Abs(got[i]-want[f][i]) > 1e-4*scale {
						t.Fatalf("%s point %d freq %d component %d: got %v, brute force %v", tg, pt, f, i, got[i], want[f][i])
					}
				}
			}
		}
	}
}

func TestIntegrateValidation(t *testing.T) {
	p := nadirPath(t, 30e3)
	atm := atmosphereAlong(p, zeeman.Field{})
	in := mustIntegrator(t, fakeAbsorber{alpha: 1e-5}, 2)

	if _, err := NewIntegrator(fakeAbsorber{}, 5); !errors.Is(err, ErrBadStokesDim) {
		t.Fatalf("dim 5 error = %v, want ErrBadStokesDim", err)
	}
	if _, err := NewIntegrator(nil, 1); err == nil {
		t.Fatalf("nil absorber accepted")
	}

	hot := append([]model.AtmPoint(nil), atm...)
	hot[1].Temperature = 0

	cases := []struct {
		name  string
		input Input
		want  error
	}{
		{"empty path", Input{Frequencies: []float64{1}, Boundary: []Stokes{{0, 0}}}, ErrEmptyPath},
		{"short atmosphere", Input{Path: p, Atmosphere: atm[:1], Frequencies: []float64{1}, Boundary: []Stokes{{0, 0}}}, ErrShapeMismatch},
		{"boundary count", Input{Path: p, Atmosphere: atm, Frequencies: []float64{1, 2, 3}, Boundary: []Stokes{{0, 0}, {0, 0}}}, ErrShapeMismatch},
		{"boundary dim", Input{Path: p, Atmosphere: atm, Frequencies: []float64{1}, Boundary: []Stokes{{0}}}, ErrShapeMismatch},
		{"zero temperature", Input{Path: p, Atmosphere: hot, Frequencies: []float64{1}, Boundary: []Stokes{{0, 0}}}, ErrBadAtmosphere},
		{"vmr without species", Input{Path: p, Atmosphere: atm, Frequencies: []float64{1}, Boundary: []Stokes{{0, 0}}, Targets: []Target{{Kind: TargetVMR}}}, ErrShapeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := in.Integrate(context.Background(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestIntegrateCancelled(t *testing.T) {
	p := nadirPath(t, 30e3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := mustIntegrator(t, fakeAbsorber{alpha: 1e-5}, 1)
	_, err := in.Integrate(ctx, Input{
		Path:        p,
		Atmosphere:  atmosphereAlong(p, zeeman.Field{}),
		Frequencies: []float64{1e9, 2e9},
		Boundary:    []Stokes{{0}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestIntegrateRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewRTECollector(reg)
	if err != nil {
		t.Fatalf("NewRTECollector: %v", err)
	}
	p := nadirPath(t, 30e3)
	in := mustIntegrator(t, fakeAbsorber{alpha: 1e-5}, 3, WithMetrics(collector), WithWorkers(2))
	mustIntegrate(t, in, Input{
		Path:        p,
		Atmosphere:  atmosphereAlong(p, zeeman.Field{}),
		Frequencies: []float64{1e9, 2e9, 3e9},
		Boundary:    []Stokes{Unpolarized(3, 0)},
	})

	if got := testutil.ToFloat64(collector.FrequenciesIntegrated.WithLabelValues("3")); got != 3 {
		t.Fatalf("frequencies integrated = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.Workers); got != 2 {
		t.Fatalf("workers = %v, want 2", got)
	}
}

func TestNewResultsPerFrequencyBoundary(t *testing.T) {
	res, err := NewResults(2, 3, []float64{1, 2}, []Stokes{{1, 0}, {2, 0.5}}, nil)
	if err != nil {
		t.Fatalf("NewResults: %v", err)
	}
	if got := res.Radiance(2, 1); got[0] != 2 || got[1] != 0.5 {
		t.Fatalf("far radiance = %v, want [2 0.5]", got)
	}
	if got := res.Radiance(0, 1); got[0] != 0 {
		t.Fatalf("sensor radiance before integration = %v, want zero", got)
	}
	if _, err := NewResults(2, 0, []float64{1}, []Stokes{{1, 0}}, nil); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("zero points error = %v, want ErrEmptyPath", err)
	}
}

func TestPlanckInversion(t *testing.T) {
	for _, f := range []float64{22e9, 118.75e9, 2.5e12} {
		for _, temp := range []float64{20, 150, 300} {
			b, dbdt := SourcePlanck.Emission(f, temp)
			if got := SourcePlanck.BrightnessTemperature(f, b); math.Abs(got-temp) > 1e-9*temp {
				t.Fatalf("f %g T %g: brightness temperature %v", f, temp, got)
			}
			const h = 1e-3
			bp, _ := SourcePlanck.Emission(f, temp+h)
			bm, _ := SourcePlanck.Emission(f, temp-h)
			if fd := (bp - bm) / (2 * h); math.Abs(fd-dbdt) > 1e-5*dbdt {
				t.Fatalf("f %g T %g: dB/dT %v, finite difference %v", f, temp, dbdt, fd)
			}
		}
	}
	if b, d := SourceRayleighJeans.Emission(1e9, 250); b != 250 || d != 1 {
		t.Fatalf("rayleigh-jeans emission = %v, %v", b, d)
	}
}

func TestBrightnessTemperatureUsesSource(t *testing.T) {
	p := nadirPath(t, 30e3)
	atm := atmosphereAlong(p, zeeman.Field{})
	in, err := NewIntegrator(fakeAbsorber{alpha: 1}, 1)
	if err != nil {
		t.Fatalf("NewIntegrator: %v", err)
	}
	res := mustIntegrate(t, in, Input{Path: p, Atmosphere: atm, Frequencies: []float64{100e9}, Boundary: []Stokes{{0}}})
	b0, _ := SourcePlanck.Emission(100e9, atm[0].Temperature)
	b1, _ := SourcePlanck.Emission(100e9, atm[1].Temperature)
	want := SourcePlanck.BrightnessTemperature(100e9, 0.5*(b0+b1))
	if got := res.BrightnessTemperature()[0]; math.Abs(got-want) > 1e-6 {
		t.Fatalf("brightness temperature %v, want %v", got, want)
	}
}

// Package scenario loads a YAML scenario file and materializes everything the
// path tracer and integrator need.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/limb-sounder/geom"
	"github.com/signalsfoundry/limb-sounder/model"
	"github.com/signalsfoundry/limb-sounder/platform"
	"github.com/signalsfoundry/limb-sounder/rte"
	"github.com/signalsfoundry/limb-sounder/spectro"
	"github.com/signalsfoundry/limb-sounder/zeeman"
)

// ErrInvalid reports a scenario that parses but cannot be materialized.
var ErrInvalid = errors.New("invalid scenario")

// ─── File layout ────────────────────────────────────────────────────────

type EllipsoidConfig struct {
	A float64 `yaml:"a"`
	E float64 `yaml:"e"`
}

type GeodeticConfig struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
	H   float64 `yaml:"h"`
}

type LosConfig struct {
	Za float64 `yaml:"za"`
	Aa float64 `yaml:"aa"`
}

// SensorConfig places the sensor either at a fixed geodetic point or on an
// orbit given by a TLE. Exactly one must be set.
type SensorConfig struct {
	Geodetic *GeodeticConfig `yaml:"geodetic"`
	TLE      []string        `yaml:"tle"`
	Los      LosConfig       `yaml:"los"`
}

type PathConfig struct {
	Step        float64 `yaml:"step"`
	TopAltitude float64 `yaml:"top_altitude"`
	MaxPoints   int     `yaml:"max_points"`
}

type FieldConfig struct {
	U float64 `yaml:"u"`
	V float64 `yaml:"v"`
	W float64 `yaml:"w"`
}

type LevelConfig struct {
	Altitude    float64            `yaml:"altitude"`
	Pressure    float64            `yaml:"pressure"`
	Temperature float64            `yaml:"temperature"`
	VMR         map[string]float64 `yaml:"vmr"`
	Field       FieldConfig        `yaml:"field"`
}

type LineConfig struct {
	F0      float64 `yaml:"f0"`
	S0      float64 `yaml:"s0"`
	Gamma0  float64 `yaml:"gamma0"`
	TempExp float64 `yaml:"temp_exp"`
	Elow    float64 `yaml:"elow"`
	Ju      float64 `yaml:"ju"`
	Jl      float64 `yaml:"jl"`
	Gu      float64 `yaml:"gu"`
	Gl      float64 `yaml:"gl"`
}

type BandConfig struct {
	ID      string       `yaml:"id"`
	Species string       `yaml:"species"`
	FMin    float64      `yaml:"fmin"`
	FMax    float64      `yaml:"fmax"`
	Zeeman  bool         `yaml:"zeeman"`
	Lines   []LineConfig `yaml:"lines"`
}

// GridConfig is an evenly spaced frequency grid including both ends.
type GridConfig struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Count int     `yaml:"count"`
}

type RadiativeConfig struct {
	StokesDim int    `yaml:"stokes_dim"`
	Source    string `yaml:"source"`
	// Boundary is the Stokes vector entering the far end. When empty,
	// BoundaryTemperature is converted with the source function.
	Boundary            []float64 `yaml:"boundary"`
	BoundaryTemperature float64   `yaml:"boundary_temperature"`
	Workers             int       `yaml:"workers"`
}

// File is the top-level structure of a scenario file.
type File struct {
	Ellipsoid     *EllipsoidConfig `yaml:"ellipsoid"`
	Time          string           `yaml:"time"`
	Sensor        SensorConfig     `yaml:"sensor"`
	Path          PathConfig       `yaml:"path"`
	Atmosphere    []LevelConfig    `yaml:"atmosphere"`
	Bands         []BandConfig     `yaml:"bands"`
	Frequencies   []float64        `yaml:"frequencies"`
	FrequencyGrid *GridConfig      `yaml:"frequency_grid"`
	Radiative     RadiativeConfig  `yaml:"radiative"`
	Targets       []string         `yaml:"targets"`
}

// ─── Materialized scenario ──────────────────────────────────────────────

// Scenario holds fully materialized core inputs. The catalog is frozen.
type Scenario struct {
	Ellipsoid   geom.Ellipsoid
	Time        time.Time
	Sensor      geom.Nav
	Path        geom.PathConfig
	Profile     *model.Profile
	Catalog     *spectro.Catalog
	Frequencies []float64
	Boundary    []rte.Stokes
	Targets     []rte.Target
	StokesDim   rte.StokesDim
	Source      rte.Source
	Workers     int
}

// ─── Loaders ────────────────────────────────────────────────────────────

// Load reads and materializes the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and materializes a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return f.Materialize()
}

// Materialize validates f and builds the core values it describes.
func (f *File) Materialize() (*Scenario, error) {
	sc := &Scenario{Ellipsoid: geom.WGS84, Workers: f.Radiative.Workers}

	if f.Ellipsoid != nil {
		el, err := geom.NewEllipsoid(f.Ellipsoid.A, f.Ellipsoid.E)
		if err != nil {
			return nil, fmt.Errorf("%w: ellipsoid: %v", ErrInvalid, err)
		}
		sc.Ellipsoid = el
	}

	if f.Time != "" {
		at, err := time.Parse(time.RFC3339, f.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: time: %v", ErrInvalid, err)
		}
		sc.Time = at.UTC()
	}

	nav, err := f.sensor(sc.Ellipsoid, sc.Time)
	if err != nil {
		return nil, err
	}
	sc.Sensor = nav
	sc.Path = geom.PathConfig{Step: f.Path.Step, TopAltitude: f.Path.TopAltitude, MaxPoints: f.Path.MaxPoints}

	if sc.Profile, err = f.profile(); err != nil {
		return nil, err
	}
	if sc.Catalog, err = f.catalog(); err != nil {
		return nil, err
	}
	if sc.Frequencies, err = f.frequencies(); err != nil {
		return nil, err
	}

	sc.StokesDim = rte.StokesDim(f.Radiative.StokesDim)
	if sc.StokesDim == 0 {
		sc.StokesDim = 1
	}
	if err := sc.StokesDim.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if sc.Source, err = ParseSource(f.Radiative.Source); err != nil {
		return nil, err
	}
	if sc.Boundary, err = f.boundary(sc.StokesDim, sc.Source, sc.Frequencies); err != nil {
		return nil, err
	}

	for _, s := range f.Targets {
		t, err := ParseTarget(s)
		if err != nil {
			return nil, err
		}
		sc.Targets = append(sc.Targets, t)
	}
	return sc, nil
}

func (f *File) sensor(el geom.Ellipsoid, at time.Time) (geom.Nav, error) {
	var src platform.Source
	switch {
	case f.Sensor.Geodetic != nil && len(f.Sensor.TLE) > 0:
		return geom.Nav{}, fmt.Errorf("%w: sensor has both geodetic and tle", ErrInvalid)
	case f.Sensor.Geodetic != nil:
		g := f.Sensor.Geodetic
		src = platform.StaticSource{Lat: unit.AngleFromDeg(g.Lat), Lon: unit.AngleFromDeg(g.Lon), H: g.H, Epoch: at}
	case len(f.Sensor.TLE) == 2:
		if at.IsZero() {
			return geom.Nav{}, fmt.Errorf("%w: tle sensor needs a scenario time", ErrInvalid)
		}
		s, err := platform.NewSGP4Source(f.Sensor.TLE[0], f.Sensor.TLE[1], at)
		if err != nil {
			return geom.Nav{}, fmt.Errorf("%w: sensor: %v", ErrInvalid, err)
		}
		src = s
	default:
		return geom.Nav{}, fmt.Errorf("%w: sensor needs geodetic or a two-line tle", ErrInvalid)
	}

	pos, err := src.PositionAt(at)
	if err != nil {
		return geom.Nav{}, fmt.Errorf("%w: sensor: %v", ErrInvalid, err)
	}
	nav, err := geom.NewNav(pos, geom.LosSpherical{Za: f.Sensor.Los.Za, Aa: f.Sensor.Los.Aa, Rate: 1}, el)
	if err != nil {
		return geom.Nav{}, fmt.Errorf("%w: sensor: %v", ErrInvalid, err)
	}
	return nav, nil
}

func (f *File) profile() (*model.Profile, error) {
	levels := make([]model.Level, len(f.Atmosphere))
	for i, l := range f.Atmosphere {
		levels[i] = model.Level{
			Altitude: l.Altitude,
			AtmPoint: model.AtmPoint{
				Pressure:    l.Pressure,
				Temperature: l.Temperature,
				VMR:         l.VMR,
				Field:       zeeman.Field{U: l.Field.U, V: l.Field.V, W: l.Field.W},
			},
		}
	}
	p, err := model.NewProfile(levels)
	if err != nil {
		return nil, fmt.Errorf("%w: atmosphere: %v", ErrInvalid, err)
	}
	return p, nil
}

func (f *File) catalog() (*spectro.Catalog, error) {
	c := spectro.NewCatalog()
	for _, b := range f.Bands {
		lines := make([]spectro.Line, len(b.Lines))
		for i, l := range b.Lines {
			lines[i] = spectro.Line{
				F0: l.F0, S0: l.S0, Gamma0: l.Gamma0, TempExp: l.TempExp, Elow: l.Elow,
				Ju: l.Ju, Jl: l.Jl, Gu: l.Gu, Gl: l.Gl,
			}
		}
		band := spectro.Band{ID: b.ID, Species: b.Species, FMin: b.FMin, FMax: b.FMax, Zeeman: b.Zeeman, Lines: lines}
		if err := c.Add(band); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	c.Freeze()
	return c, nil
}

func (f *File) frequencies() ([]float64, error) {
	out := append([]float64(nil), f.Frequencies...)
	if g := f.FrequencyGrid; g != nil {
		if g.Count < 1 || g.Stop < g.Start {
			return nil, fmt.Errorf("%w: frequency_grid %+v", ErrInvalid, *g)
		}
		if g.Count == 1 {
			out = append(out, g.Start)
		} else {
			step := (g.Stop - g.Start) / float64(g.Count-1)
			for i := range g.Count {
				out = append(out, g.Start+float64(i)*step)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no frequencies", ErrInvalid)
	}
	for _, v := range out {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: frequency %g", ErrInvalid, v)
		}
	}
	return out, nil
}

func (f *File) boundary(dim rte.StokesDim, src rte.Source, freqs []float64) ([]rte.Stokes, error) {
	if b := f.Radiative.Boundary; len(b) > 0 {
		if len(b) != int(dim) {
			return nil, fmt.Errorf("%w: boundary has %d components for stokes_dim %d", ErrInvalid, len(b), dim)
		}
		return []rte.Stokes{append(rte.Stokes(nil), b...)}, nil
	}
	t := f.Radiative.BoundaryTemperature
	if t < 0 {
		return nil, fmt.Errorf("%w: boundary_temperature %g", ErrInvalid, t)
	}
	if t == 0 {
		return []rte.Stokes{rte.Unpolarized(dim, 0)}, nil
	}
	out := make([]rte.Stokes, len(freqs))
	for i, freq := range freqs {
		b, _ := src.Emission(freq, t)
		out[i] = rte.Unpolarized(dim, b)
	}
	return out, nil
}

// ParseSource maps "planck" (or empty) and "rayleigh-jeans" to a Source.
func ParseSource(s string) (rte.Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "planck":
		return rte.SourcePlanck, nil
	case "rayleigh-jeans", "rj":
		return rte.SourceRayleighJeans, nil
	default:
		return 0, fmt.Errorf("%w: unknown source %q", ErrInvalid, s)
	}
}

// ParseTarget parses "temperature", "vmr:<species>", "field_u", "field_v"
// or "field_w".
func ParseTarget(s string) (rte.Target, error) {
	s = strings.TrimSpace(s)
	if species, ok := strings.CutPrefix(s, "vmr:"); ok {
		if species == "" {
			return rte.Target{}, fmt.Errorf("%w: target %q has no species", ErrInvalid, s)
		}
		return rte.Target{Kind: rte.TargetVMR, Species: species}, nil
	}
	for _, k := range []rte.TargetKind{rte.TargetTemperature, rte.TargetFieldU, rte.TargetFieldV, rte.TargetFieldW} {
		if s == k.String() {
			return rte.Target{Kind: k}, nil
		}
	}
	return rte.Target{}, fmt.Errorf("%w: unknown target %q", ErrInvalid, s)
}

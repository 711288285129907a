package rte

import "fmt"

// Jacobian is indexed [target][point][frequency] and holds the derivative of
// the sensor Stokes vector with respect to each target at each point.
type Jacobian [][][]Stokes

// Results holds the radiance at every path point and frequency plus the
// Jacobian of the sensor radiance. All storage is allocated up front so
// frequencies can be filled independently.
type Results struct {
	dim         StokesDim
	source      Source
	frequencies []float64
	targets     []Target
	radiance    [][]Stokes // [point][frequency]
	jacobian    Jacobian
}

// NewResults allocates results for points path points over frequencies and
// sets the radiance at the far end to boundary. boundary holds one Stokes
// vector for all frequencies or one per frequency.
func NewResults(dim StokesDim, points int, frequencies []float64, boundary []Stokes, targets []Target) (*Results, error) {
	if err := dim.Validate(); err != nil {
		return nil, err
	}
	if points < 1 {
		return nil, ErrEmptyPath
	}
	nf := len(frequencies)
	if len(boundary) != 1 && len(boundary) != nf {
		return nil, fmt.Errorf("%w: %d boundary vectors for %d frequencies", ErrShapeMismatch, len(boundary), nf)
	}
	for i, b := range boundary {
		if len(b) != int(dim) {
			return nil, fmt.Errorf("%w: boundary %d has %d components, want %d", ErrShapeMismatch, i, len(b), dim)
		}
	}

	r := &Results{
		dim:         dim,
		frequencies: append([]float64(nil), frequencies...),
		targets:     append([]Target(nil), targets...),
		radiance:    make([][]Stokes, points),
		jacobian:    make(Jacobian, len(targets)),
	}
	for p := range r.radiance {
		r.radiance[p] = newStokesRow(dim, nf)
	}
	far := points - 1
	for f := range nf {
		b := boundary[0]
		if len(boundary) == nf {
			b = boundary[f]
		}
		copy(r.radiance[far][f], b)
	}
	for t := range r.jacobian {
		r.jacobian[t] = make([][]Stokes, points)
		for p := range r.jacobian[t] {
			r.jacobian[t][p] = newStokesRow(dim, nf)
		}
	}
	return r, nil
}

func newStokesRow(dim StokesDim, nf int) []Stokes {
	back := make([]float64, int(dim)*nf)
	row := make([]Stokes, nf)
	for f := range row {
		row[f] = back[f*int(dim) : (f+1)*int(dim) : (f+1)*int(dim)]
	}
	return row
}

// Dim returns the Stokes dimension.
func (r *Results) Dim() StokesDim { return r.dim }

// Frequencies returns the frequency grid.
func (r *Results) Frequencies() []float64 { return r.frequencies }

// Targets returns the retrieval targets, in Jacobian order.
func (r *Results) Targets() []Target { return r.targets }

// Points returns the number of path points.
func (r *Results) Points() int { return len(r.radiance) }

// Radiance returns the Stokes vector at path point p and frequency index f.
func (r *Results) Radiance(p, f int) Stokes { return r.radiance[p][f] }

// SensorResults returns the radiance at the sensor for every frequency.
func (r *Results) SensorResults() []Stokes {
	out := make([]Stokes, len(r.frequencies))
	for f := range out {
		out[f] = r.radiance[0][f].Clone()
	}
	return out
}

// Jacobian returns the Jacobian storage.
func (r *Results) Jacobian() Jacobian { return r.jacobian }

// BrightnessTemperature returns the sensor intensity of every frequency as
// a brightness temperature under the source model used for integration.
func (r *Results) BrightnessTemperature() []float64 {
	out := make([]float64, len(r.frequencies))
	for f, freq := range r.frequencies {
		out[f] = r.source.BrightnessTemperature(freq, r.radiance[0][f][0])
	}
	return out
}

package rte

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/limb-sounder/geom"
	"github.com/signalsfoundry/limb-sounder/internal/logging"
	"github.com/signalsfoundry/limb-sounder/internal/observability"
	"github.com/signalsfoundry/limb-sounder/model"
	"github.com/signalsfoundry/limb-sounder/spectro"
)

// ErrBadAtmosphere reports a non-positive temperature or pressure at a path
// point.
var ErrBadAtmosphere = errors.New("invalid atmospheric state")

// Absorber evaluates propagation matrices. *spectro.Catalog implements it.
type Absorber interface {
	PropMat(f float64, atm model.AtmPoint, g spectro.Geometry) spectro.PropMat
	SpeciesPropMat(species string, f float64, atm model.AtmPoint, g spectro.Geometry) spectro.PropMat
}

// Input is one integration problem.
type Input struct {
	Path geom.Path
	// Atmosphere holds the state at every path point.
	Atmosphere  []model.AtmPoint
	Frequencies []float64
	// Boundary is the radiance entering the far end of the path, one Stokes
	// vector for all frequencies or one per frequency.
	Boundary []Stokes
	Targets  []Target
}

// Integrator solves the RTE along a path for a fixed Stokes dimension. It is
// safe for concurrent use; the absorber must not be mutated while an
// integration runs.
type Integrator struct {
	absorber  Absorber
	dim       StokesDim
	workers   int
	source    Source
	tempStep  float64
	fieldStep float64
	log       logging.Logger
	metrics   *observability.RTECollector
}

// NewIntegrator returns an integrator over absorber for Stokes dimension
// dim.
func NewIntegrator(absorber Absorber, dim StokesDim, opts ...Option) (*Integrator, error) {
	if err := dim.Validate(); err != nil {
		return nil, err
	}
	if absorber == nil {
		return nil, errors.New("rte: nil absorber")
	}
	in := &Integrator{
		absorber:  absorber,
		dim:       dim,
		workers:   runtime.GOMAXPROCS(0),
		source:    SourcePlanck,
		tempStep:  DefaultTemperatureStep,
		fieldStep: DefaultFieldStep,
		log:       logging.Noop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Dim returns the Stokes dimension.
func (in *Integrator) Dim() StokesDim { return in.dim }

// Integrate walks the path from the far boundary to the sensor for every
// frequency. Frequencies are distributed over the worker pool; each worker
// owns the result slots of the frequencies it integrates. If ctx is
// cancelled the partial results are discarded and ctx.Err() returned.
func (in *Integrator) Integrate(ctx context.Context, input Input) (res *Results, err error) {
	ctx, span := observability.StartSpan(ctx, "rte.Integrate",
		attribute.Int("stokes_dim", int(in.dim)),
		attribute.Int("path_points", input.Path.Len()),
		attribute.Int("frequencies", len(input.Frequencies)),
		attribute.Int("targets", len(input.Targets)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := in.validate(input); err != nil {
		return nil, err
	}
	res, err = NewResults(in.dim, input.Path.Len(), input.Frequencies, input.Boundary, input.Targets)
	if err != nil {
		return nil, err
	}
	res.source = in.source

	start := time.Now()
	workers := min(in.workers, len(input.Frequencies))
	if workers < 1 {
		workers = 1
	}
	in.log.Debug(ctx, "integration started",
		logging.Int("stokes_dim", int(in.dim)),
		logging.Int("path_points", input.Path.Len()),
		logging.Int("frequencies", len(input.Frequencies)),
		logging.Int("workers", workers),
	)

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				in.integrateFrequency(input, res, f)
			}
		}()
	}

feed:
	for f := range input.Frequencies {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		in.log.Warn(ctx, "integration cancelled", logging.String("error", err.Error()))
		return nil, err
	}

	elapsed := time.Since(start)
	in.metrics.ObserveIntegration(int(in.dim), len(input.Frequencies), workers, elapsed)
	in.log.Debug(ctx, "integration finished", logging.Duration("elapsed", elapsed))
	return res, nil
}

func (in *Integrator) validate(input Input) error {
	n := input.Path.Len()
	if n == 0 {
		return ErrEmptyPath
	}
	if len(input.Atmosphere) != n {
		return fmt.Errorf("%w: %d atmosphere points for %d path points", ErrShapeMismatch, len(input.Atmosphere), n)
	}
	for i, a := range input.Atmosphere {
		if !(a.Temperature > 0) || a.Pressure < 0 {
			return fmt.Errorf("%w: point %d temperature %g pressure %g", ErrBadAtmosphere, i, a.Temperature, a.Pressure)
		}
	}
	for i, t := range input.Targets {
		if err := t.validate(); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}
	return nil
}

package rte

import (
	"runtime"

	"github.com/signalsfoundry/limb-sounder/internal/logging"
	"github.com/signalsfoundry/limb-sounder/internal/observability"
)

// Finite-difference steps for the temperature and magnetic field
// derivatives of the propagation matrix.
const (
	DefaultTemperatureStep = 0.1  // K
	DefaultFieldStep       = 1e-8 // T
)

// Option configures an Integrator.
type Option func(*Integrator)

// WithWorkers sets the number of frequency workers. Values below one select
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(in *Integrator) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		in.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(in *Integrator) {
		if l != nil {
			in.log = l
		}
	}
}

// WithMetrics records integrations on c.
func WithMetrics(c *observability.RTECollector) Option {
	return func(in *Integrator) { in.metrics = c }
}

// WithSource selects the emission source function.
func WithSource(s Source) Option {
	return func(in *Integrator) { in.source = s }
}

// WithTemperatureStep sets the temperature finite-difference step.
func WithTemperatureStep(h float64) Option {
	return func(in *Integrator) {
		if h > 0 {
			in.tempStep = h
		}
	}
}

// WithFieldStep sets the magnetic field finite-difference step.
func WithFieldStep(h float64) Option {
	return func(in *Integrator) {
		if h > 0 {
			in.fieldStep = h
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/limb-sounder/geom"
	"github.com/signalsfoundry/limb-sounder/internal/logging"
	"github.com/signalsfoundry/limb-sounder/internal/observability"
	"github.com/signalsfoundry/limb-sounder/internal/scenario"
	"github.com/signalsfoundry/limb-sounder/navio"
	"github.com/signalsfoundry/limb-sounder/rte"
)

// Config holds the command-line settings of one run.
type Config struct {
	ScenarioPath   string
	MetricsAddress string
	Workers        int
	NavOut         string
	NavFormat      string
}

func main() {
	var cfg Config
	flag.StringVar(&cfg.ScenarioPath, "scenario", "", "Path to a YAML scenario file")
	flag.StringVar(&cfg.MetricsAddress, "metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables")
	flag.IntVar(&cfg.Workers, "workers", 0, "Frequency workers; 0 uses the scenario value or GOMAXPROCS")
	flag.StringVar(&cfg.NavOut, "nav-out", "", "Write the traced path to this file")
	flag.StringVar(&cfg.NavFormat, "nav-format", "text", "Path file format: text or binary")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, log = logging.WithRunLogger(ctx, log)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	collector, err := observability.NewRTECollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.MetricsAddress, collector, log)

	if err := run(ctx, cfg, log, collector, os.Stdout); err != nil {
		log.Error(ctx, "run failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

// run loads the scenario, traces the sensor path, integrates it and prints
// the sensor radiance and a Jacobian summary to out.
func run(ctx context.Context, cfg Config, log logging.Logger, collector *observability.RTECollector, out io.Writer) error {
	if cfg.ScenarioPath == "" {
		return fmt.Errorf("no scenario given; use -scenario")
	}
	navFormat, err := navio.ParseFormat(cfg.NavFormat)
	if err != nil {
		return err
	}

	sc, err := scenario.Load(cfg.ScenarioPath)
	if err != nil {
		return err
	}
	log.Info(ctx, "loaded scenario",
		logging.String("path", cfg.ScenarioPath),
		logging.Int("bands", len(sc.Catalog.Bands())),
		logging.Int("frequencies", len(sc.Frequencies)),
		logging.Int("targets", len(sc.Targets)),
	)

	path, err := tracePath(ctx, sc, log)
	if err != nil {
		return err
	}
	collector.ObservePath(path.Boundary.String(), path.Len())

	if cfg.NavOut != "" {
		if err := writePath(cfg.NavOut, navFormat, path); err != nil {
			return err
		}
		log.Info(ctx, "wrote path", logging.String("path", cfg.NavOut), logging.String("format", navFormat.String()))
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = sc.Workers
	}
	in, err := rte.NewIntegrator(sc.Catalog, sc.StokesDim,
		rte.WithWorkers(workers),
		rte.WithLogger(log),
		rte.WithMetrics(collector),
		rte.WithSource(sc.Source),
	)
	if err != nil {
		return err
	}
	res, err := in.Integrate(ctx, rte.Input{
		Path:        path,
		Atmosphere:  sc.Profile.Sample(path),
		Frequencies: sc.Frequencies,
		Boundary:    sc.Boundary,
		Targets:     sc.Targets,
	})
	if err != nil {
		return err
	}
	return report(out, path, res)
}

func tracePath(ctx context.Context, sc *scenario.Scenario, log logging.Logger) (p geom.Path, err error) {
	_, span := observability.StartSpan(ctx, "geom.TracePath",
		attribute.Float64("step", sc.Path.Step),
		attribute.Float64("top_altitude", sc.Path.TopAltitude),
	)
	defer func() { observability.EndSpan(span, err) }()

	p, err = geom.NewNavigator().TracePath(sc.Sensor, sc.Path)
	if err != nil {
		return geom.Path{}, err
	}
	lowest := math.Inf(1)
	for _, nav := range p.Points {
		lowest = math.Min(lowest, nav.Geodetic().H)
	}
	span.SetAttributes(attribute.Int("points", p.Len()), attribute.String("boundary", p.Boundary.String()))
	log.Info(ctx, "traced path",
		logging.Int("points", p.Len()),
		logging.String("boundary", p.Boundary.String()),
		logging.Float64("lowest_altitude_m", lowest),
	)
	if p.Boundary == geom.BoundaryTruncated {
		log.Warn(ctx, "path truncated at point budget", logging.Int("max_points", sc.Path.MaxPoints))
	}
	return p, nil
}

func writePath(name string, format navio.Format, p geom.Path) error {
	w, err := navio.CreateWriter(name, format)
	if err != nil {
		return err
	}
	if err := w.WriteAll(p.Points); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func report(out io.Writer, path geom.Path, res *rte.Results) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "frequency_hz\tstokes\tbrightness_k")
	bt := res.BrightnessTemperature()
	for f, s := range res.SensorResults() {
		fmt.Fprintf(tw, "%.6f\t%v\t%.4f\n", res.Frequencies()[f], []float64(s), bt[f])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Targets()) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "target\tpeak_dI\tpeak_altitude_m\tpeak_frequency_hz")
	jac := res.Jacobian()
	for t, target := range res.Targets() {
		peak, pt, pf := 0.0, 0, 0
		for p := range jac[t] {
			for f := range jac[t][p] {
				if v := math.Abs(jac[t][p][f][0]); v > peak {
					peak, pt, pf = v, p, f
				}
			}
		}
		fmt.Fprintf(tw, "%s\t%.6g\t%.1f\t%.6f\n", target, jac[t][pt][pf][0], path.Points[pt].Geodetic().H, res.Frequencies()[pf])
	}
	return tw.Flush()
}

func serveMetrics(addr string, collector *observability.RTECollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

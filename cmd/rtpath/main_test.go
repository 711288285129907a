package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/limb-sounder/internal/logging"
	"github.com/signalsfoundry/limb-sounder/internal/observability"
	"github.com/signalsfoundry/limb-sounder/navio"
)

const exampleScenario = "../../internal/scenario/testdata/limb-o2.yaml"

func TestRunLimbScenario(t *testing.T) {
	collector, err := observability.NewRTECollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRTECollector: %v", err)
	}
	navOut := filepath.Join(t.TempDir(), "path.bin")
	cfg := Config{ScenarioPath: exampleScenario, Workers: 2, NavOut: navOut, NavFormat: "binary"}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, logging.Noop(), collector, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"frequency_hz", "brightness_k", "temperature", "vmr:O2", "field_w"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output lacks %q:\n%s", want, text)
		}
	}
	if got := testutil.ToFloat64(collector.PathsTraced.WithLabelValues("space")); got != 1 {
		t.Fatalf("paths_traced_total{boundary=space} = %v, want 1", got)
	}

	r, err := navio.OpenReader(navOut, navio.FormatBinary)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	navs, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(navs) < 100 {
		t.Fatalf("path file holds %d points, want a full limb path", len(navs))
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{},
		{ScenarioPath: exampleScenario, NavFormat: "xml"},
		{ScenarioPath: filepath.Join(t.TempDir(), "missing.yaml"), NavFormat: "text"},
	}
	for _, cfg := range cases {
		if err := run(context.Background(), cfg, logging.Noop(), nil, &bytes.Buffer{}); err == nil {
			t.Fatalf("run(%+v) succeeded", cfg)
		}
	}
}

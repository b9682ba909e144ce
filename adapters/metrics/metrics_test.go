package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/easyworld/worldgen/adapters/metrics"
	"github.com/easyworld/worldgen/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.OracleDuration == nil {
		t.Error("OracleDuration is nil")
	}
	if m.FieldAdjustments == nil {
		t.Error("FieldAdjustments is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
}

func TestRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsTotal.WithLabelValues("POST", "/parse_description", "2xx").Inc()
	m.RequestsTotal.WithLabelValues("GET", "/schema", "2xx").Add(5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "worldgen_requests_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("worldgen_requests_total metric not found")
	}
}

func TestObserveOracle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveOracle("gemini", 2*time.Second, nil, false)
	m.ObserveOracle("gemini", 30*time.Second, errors.New("deadline"), true)
	m.ObserveOracle("gemini", time.Second, errors.New("503"), false)

	if got := testutil.ToFloat64(m.OracleErrors.WithLabelValues("gemini", "timeout")); got != 1 {
		t.Errorf("timeout errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OracleErrors.WithLabelValues("gemini", "error")); got != 1 {
		t.Errorf("other errors = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.OracleDuration); got != 2 {
		t.Errorf("oracle duration series = %d, want 2", got)
	}
}

func TestObserveGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveGeneration(ports.OutcomeOK)
	m.ObserveGeneration(ports.OutcomeOK)
	m.ObserveGeneration(ports.OutcomeExtractionError)

	if got := testutil.ToFloat64(m.Generations.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok generations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ExtractionFailures); got != 1 {
		t.Errorf("extraction failures = %v, want 1", got)
	}
}

func TestObserveAdjustmentAndRule(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveAdjustment("heights", "clamped")
	m.ObserveAdjustment("heights", "clamped")
	m.ObserveAdjustment("water", "defaulted")
	m.ObserveRule("negation")

	if got := testutil.ToFloat64(m.FieldAdjustments.WithLabelValues("heights", "clamped")); got != 2 {
		t.Errorf("heights clamped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RulesApplied.WithLabelValues("negation")); got != 1 {
		t.Errorf("negation applied = %v, want 1", got)
	}
}

func TestConfigReloaded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.ConfigReloaded(nil, at)
	m.ConfigReloaded(errors.New("bad yaml"), at)

	if got := testutil.ToFloat64(m.ConfigReloads); got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigReloadErrors); got != 1 {
		t.Errorf("reload errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigLastReload); got != float64(at.Unix()) {
		t.Errorf("last reload = %v, want %v", got, at.Unix())
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{400, "4xx"},
		{503, "5xx"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := metrics.StatusClass(tt.status); got != tt.want {
			t.Errorf("StatusClass(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	if got := metrics.NormalizePath("/schema"); got != "/schema" {
		t.Errorf("NormalizePath(/schema) = %s", got)
	}

	longPath := "/very/long/path/that/exceeds/fifty/characters/in/total/length"
	result := metrics.NormalizePath(longPath)
	if len(result) > 53 { // 50 chars + "..."
		t.Errorf("NormalizePath should truncate long paths, got len=%d", len(result))
	}
	if result[len(result)-3:] != "..." {
		t.Errorf("truncated path should end with '...', got %s", result)
	}
}

func TestRequestsInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Dec()

	if got := testutil.ToFloat64(m.RequestsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
}

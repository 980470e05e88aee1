package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	CacheHitsTotal.WithLabelValues("rating_cache").Inc()
	SourceErrorsTotal.WithLabelValues("ratings").Inc()
	HTTPRequestsTotal.WithLabelValues("GET", "/api/list", "200").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/api/list").Observe(0.01)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"shovo_cache_hits_total",
		"shovo_source_errors_total",
		"shovo_http_requests_total",
		"shovo_http_request_duration_seconds",
		"shovo_refresh_started_total",
		"shovo_refresh_active",
	} {
		if !names[want] {
			t.Errorf("metric %s not gathered", want)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
		if !strings.Contains(strings.ToLower(fmtAny(r)), "duplicate") {
			t.Errorf("panic = %v, want duplicate registration", r)
		}
	}()
	Register(reg)
}

func fmtAny(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

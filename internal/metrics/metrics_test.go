package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findFamily は収集結果から指定名のメトリクスファミリーを探す。
func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue はメトリクスから指定ラベルの値を返す。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordCacheHitMiss_CountsPerCache はキャッシュ名ごとにヒットとミスが集計されることを検証する。
func TestRecordCacheHitMiss_CountsPerCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit("profile")
	c.RecordCacheHit("profile")
	c.RecordCacheHit("dashboard")
	c.RecordCacheMiss("profile")

	hits := findFamily(t, reg, "wikidash_cache_hit_total")
	got := map[string]float64{}
	for _, m := range hits.GetMetric() {
		got[labelValue(m, "cache")] = m.GetCounter().GetValue()
	}
	if got["profile"] != 2 || got["dashboard"] != 1 {
		t.Errorf("cache hits = %v, want profile=2 dashboard=1", got)
	}

	misses := findFamily(t, reg, "wikidash_cache_miss_total")
	if v := misses.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("cache misses = %v, want 1", v)
	}
}

func TestRecordUpstreamStatus_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamStatus("mediawiki", 200)
	c.RecordUpstreamStatus("mediawiki", 200)
	c.RecordUpstreamStatus("xtools", 503)

	mf := findFamily(t, reg, "wikidash_upstream_http_status_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		switch labelValue(m, "source") {
		case "mediawiki":
			if labelValue(m, "status_code") != "200" || m.GetCounter().GetValue() != 2 {
				t.Errorf("mediawiki metric = %v", m)
			}
		case "xtools":
			if labelValue(m, "status_code") != "503" || m.GetCounter().GetValue() != 1 {
				t.Errorf("xtools metric = %v", m)
			}
		}
	}
}

func TestRecordUpstreamLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamLatency("mediawiki", 150*time.Millisecond)
	c.RecordUpstreamLatency("mediawiki", 2*time.Second)

	mf := findFamily(t, reg, "wikidash_upstream_latency_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample count = %d, want 2", h.GetSampleCount())
	}
	if h.GetSampleSum() < 2.1 || h.GetSampleSum() > 2.2 {
		t.Errorf("sample sum = %v, want ~2.15", h.GetSampleSum())
	}
}

func TestRecordRefreshAndPurge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRefreshSuccess("Alice")
	c.RecordRefreshFailure("Bob", "UPSTREAM_UNAVAILABLE")
	c.RecordUpstreamFailure("xtools")
	c.RecordTasksPurged(3)
	c.RecordTasksPurged(2)

	if v := findFamily(t, reg, "wikidash_refresh_success_total").GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("refresh success = %v, want 1", v)
	}
	fail := findFamily(t, reg, "wikidash_refresh_fail_total").GetMetric()[0]
	if labelValue(fail, "reason") != "UPSTREAM_UNAVAILABLE" {
		t.Errorf("refresh fail reason = %q", labelValue(fail, "reason"))
	}
	if v := findFamily(t, reg, "wikidash_upstream_fail_total").GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("upstream fail = %v, want 1", v)
	}
	if v := findFamily(t, reg, "wikidash_tasks_purged_total").GetMetric()[0].GetCounter().GetValue(); v != 5 {
		t.Errorf("tasks purged = %v, want 5", v)
	}
}

func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordCacheHit("stats")

	handler := Handler(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `wikidash_cache_hit_total{cache="stats"} 1`) {
		t.Errorf("response should contain cache hit metric, got:\n%s", body)
	}
}

func TestNop_ImplementsMetricsCollectorInterface(t *testing.T) {
	var m MetricsCollector = Nop{}
	m.RecordCacheHit("profile")
	m.RecordTasksPurged(1)
}

func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	c1 := NewCollector(reg1)
	_ = NewCollector(reg2)

	c1.RecordRefreshSuccess("Alice")

	families, err := reg2.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "wikidash_refresh_success_total" {
			if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 0 {
				t.Errorf("reg2 refresh success = %v, want 0", v)
			}
		}
	}
}

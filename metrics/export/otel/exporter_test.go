package otel

import (
	"context"
	"sync"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goSession.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goSession.MetricsSnapshot{
		Counters:      make(map[goSession.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms:    make(map[goSession.MetricID][]uint64, len(f.snapshot.Histograms)),
		HistogramSums: make(map[goSession.MetricID]time.Duration, len(f.snapshot.HistogramSums)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	for k, v := range f.snapshot.HistogramSums {
		out.HistogramSums[k] = v
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gosession-test")

	src := &fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSessionLoaded: 3,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricLoadLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
			HistogramSums: map[goSession.MetricID]time.Duration{
				goSession.MetricLoadLatency: 250 * time.Millisecond,
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	values := map[string]int64{}
	buckets := map[string]int64{}
	var sum float64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					values[m.Name] = data.DataPoints[0].Value
				}
			case metricdata.Sum[float64]:
				if m.Name == "gosession_load_latency_seconds_sum" && len(data.DataPoints) > 0 {
					sum = data.DataPoints[0].Value
				}
			case metricdata.Gauge[int64]:
				if m.Name == "gosession_load_latency_seconds_bucket" {
					for _, dp := range data.DataPoints {
						le, _ := dp.Attributes.Value(attribute.Key("le"))
						buckets[le.AsString()] = dp.Value
					}
					continue
				}
				if len(data.DataPoints) > 0 {
					values[m.Name] = data.DataPoints[0].Value
				}
			}
		}
	}
	if values["gosession_session_loaded_total"] != 3 {
		t.Fatalf("expected session_loaded 3, got %d", values["gosession_session_loaded_total"])
	}
	if len(buckets) != 8 {
		t.Fatalf("expected 8 bucket points, got %v", buckets)
	}
	if buckets["0.005"] != 1 || buckets["+Inf"] != 8 {
		t.Fatalf("unexpected cumulative buckets %v", buckets)
	}
	if values["gosession_load_latency_seconds_count"] != 8 {
		t.Fatalf("expected count 8, got %d", values["gosession_load_latency_seconds_count"])
	}
	if sum != 0.25 {
		t.Fatalf("expected sum 0.25s, got %v", sum)
	}
	if values["gosession_audit_dropped_total"] != 1 {
		t.Fatalf("expected audit dropped 1, got %d", values["gosession_audit_dropped_total"])
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gosession-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gosession-test")

	src := &fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSessionLoaded: 1,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricLoadLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goSession.MetricSessionLoaded] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

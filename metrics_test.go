package goSession

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSessionLoaded)

	if got := m.Value(MetricSessionLoaded); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSessionLoaded)
	m.Inc(MetricSessionLoaded)
	m.Inc(MetricSessionLoaded)

	if got := m.Value(MetricSessionLoaded); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricSessionUpdated)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionUpdated); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricLoadLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricLoadLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricSessionLoaded)
	m.Inc(MetricSessionMissing)
	m.Inc(MetricSessionMissing)
	m.Observe(MetricLoadLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricSessionLoaded] != 1 {
		t.Fatalf("expected MetricSessionLoaded=1 got %d", snap.Counters[MetricSessionLoaded])
	}
	if snap.Counters[MetricSessionMissing] != 2 {
		t.Fatalf("expected MetricSessionMissing=2 got %d", snap.Counters[MetricSessionMissing])
	}
	if len(snap.Histograms[MetricLoadLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricLoadLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricLoadLatency][0])
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricSessionLoaded, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricSessionLoaded]; ok {
		t.Fatalf("counter ids must not produce histograms")
	}
	if _, ok := snap.Counters[MetricLoadLatency]; ok {
		t.Fatalf("histogram ids must not appear as counters")
	}
}

func TestMetricsHistogramSum(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricLoadLatency, 3*time.Millisecond)
	m.Observe(MetricLoadLatency, 700*time.Millisecond)
	m.Observe(MetricLoadLatency, -time.Second)

	snap := m.Snapshot()
	if got := snap.HistogramSums[MetricLoadLatency]; got != 703*time.Millisecond {
		t.Fatalf("expected sum 703ms, got %v", got)
	}
	if got := snap.Histograms[MetricLoadLatency][0]; got != 2 {
		t.Fatalf("negative samples land in the first bucket, got %d", got)
	}
}

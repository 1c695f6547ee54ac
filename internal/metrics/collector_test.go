package metrics_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/promptfire/promptfire/internal/metrics"
)

func TestCollectorLatencyStats(t *testing.T) {
	c := metrics.NewCollector()

	// Record deterministic latencies.
	c.RecordRequest(10*time.Millisecond, nil)
	c.RecordRequest(20*time.Millisecond, nil)
	c.RecordRequest(30*time.Millisecond, nil)
	c.RecordRequest(40*time.Millisecond, nil)
	c.RecordRequest(50*time.Millisecond, nil)

	stats := c.Stats(0)

	if stats.Total != 5 {
		t.Errorf("expected total 5, got %d", stats.Total)
	}
	if stats.Successes != 5 {
		t.Errorf("expected successes 5, got %d", stats.Successes)
	}
	if stats.Failures != 0 {
		t.Errorf("expected failures 0, got %d", stats.Failures)
	}
	if stats.MinLatency != 10*time.Millisecond {
		t.Errorf("expected min 10ms, got %s", stats.MinLatency)
	}
	if stats.MaxLatency != 50*time.Millisecond {
		t.Errorf("expected max 50ms, got %s", stats.MaxLatency)
	}
	if stats.MeanLatency != 30*time.Millisecond {
		t.Errorf("expected mean 30ms, got %s", stats.MeanLatency)
	}
}

func TestMeanExcludesFailures(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest(10*time.Millisecond, nil)
	c.RecordRequest(20*time.Millisecond, nil)
	// Failures carry a latency but must not contribute to the mean.
	c.RecordRequest(900*time.Millisecond, errors.New("connection refused"))

	stats := c.Stats(0)

	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.Failures != 1 {
		t.Errorf("expected failures 1, got %d", stats.Failures)
	}
	if stats.MeanLatency != 15*time.Millisecond {
		t.Errorf("expected mean 15ms over successes only, got %s", stats.MeanLatency)
	}
}

func TestMeanZeroWhenNoSuccesses(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest(time.Second, errors.New("boom"))
	c.RecordRequest(time.Second, errors.New("boom"))

	stats := c.Stats(time.Second)

	if stats.Successes != 0 {
		t.Fatalf("expected 0 successes, got %d", stats.Successes)
	}
	if stats.MeanLatency != 0 {
		t.Errorf("expected mean 0 with no successes, got %s", stats.MeanLatency)
	}
}

func TestRequestsPerSecZeroElapsed(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest(time.Millisecond, nil)

	stats := c.Stats(0)
	if stats.RequestsPerSec != 0 {
		t.Errorf("expected QPS 0 with zero elapsed, got %f", stats.RequestsPerSec)
	}
}

func TestCompletedEqualsSuccessPlusFailure(t *testing.T) {
	c := metrics.NewCollector()

	for i := 0; i < 7; i++ {
		c.RecordRequest(time.Millisecond, nil)
	}
	for i := 0; i < 3; i++ {
		c.RecordRequest(0, errors.New("boom"))
	}

	stats := c.Stats(time.Second)
	if stats.Total != stats.Successes+stats.Failures {
		t.Fatalf("total %d != successes %d + failures %d", stats.Total, stats.Successes, stats.Failures)
	}
	if stats.Total != 10 {
		t.Fatalf("expected total 10, got %d", stats.Total)
	}
}

func TestPercentilesCalculations(t *testing.T) {
	c := metrics.NewCollector()

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		c.RecordRequest(time.Duration(i)*time.Millisecond, nil)
	}

	stats := c.Stats(0)

	if stats.P50Latency < 49*time.Millisecond || stats.P50Latency > 51*time.Millisecond {
		t.Errorf("expected P50 ~50ms, got %s", stats.P50Latency)
	}
	if stats.P90Latency < 89*time.Millisecond || stats.P90Latency > 91*time.Millisecond {
		t.Errorf("expected P90 ~90ms, got %s", stats.P90Latency)
	}
	if stats.P99Latency < 98*time.Millisecond || stats.P99Latency > 100*time.Millisecond {
		t.Errorf("expected P99 ~99ms, got %s", stats.P99Latency)
	}
}

func TestJSONReportSchema(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest(15*time.Millisecond, nil)
	c.RecordRequest(25*time.Millisecond, nil)

	stats := c.Stats(100 * time.Millisecond)

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("failed to marshal stats: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	requiredFields := []string{"total", "successes", "failures", "min_latency_ms", "max_latency_ms", "mean_latency_ms", "p50_latency_ms", "p90_latency_ms", "p99_latency_ms", "duration_ms", "requests_per_sec"}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("missing field %q in JSON output", field)
		}
	}
}

func TestConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	workers := 10
	recordsPerWorker := 100

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerWorker; j++ {
				c.RecordRequest(time.Millisecond, nil)
			}
		}()
	}
	wg.Wait()

	stats := c.Stats(0)
	expected := workers * recordsPerWorker
	if stats.Total != int64(expected) {
		t.Errorf("expected total %d, got %d", expected, stats.Total)
	}
}

func TestErrorBreakdown(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest(0, errors.New("boom"))
	c.RecordRequest(0, errors.New("boom"))
	c.RecordRequest(time.Millisecond, nil)

	breakdown := c.GetErrorBreakdown()
	total := 0
	for _, count := range breakdown {
		total += count
	}
	if total != 2 {
		t.Fatalf("expected 2 recorded errors, got %d (%v)", total, breakdown)
	}
}

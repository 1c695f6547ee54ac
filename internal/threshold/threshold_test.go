package threshold_test

import (
	"strings"
	"testing"
	"time"

	"github.com/promptfire/promptfire/internal/metrics"
	"github.com/promptfire/promptfire/internal/threshold"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		in        string
		metric    string
		aggregate string
		operator  string
		value     float64
	}{
		{"http_req_duration:p99 < 500", "http_req_duration", "p99", "<", 500},
		{"http_req_duration:avg<=200", "http_req_duration", "avg", "<=", 200},
		{"http_req_failed:rate < 0.01", "http_req_failed", "rate", "<", 0.01},
		{"http_requests:rate > 100", "http_requests", "rate", ">", 100},
		{"http_req_failed:count == 0", "http_req_failed", "count", "==", 0},
	}

	for _, tc := range cases {
		th, err := threshold.Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.in, err)
			continue
		}
		if th.Metric != tc.metric || th.Aggregate != tc.aggregate || th.Operator != tc.operator || th.Value != tc.value {
			t.Errorf("Parse(%q) = %+v", tc.in, th)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"nonsense",
		"bogus_metric:p99 < 500",
		"http_req_duration:p42 < 500",
		"http_req_duration:p99 ~ 500",
		"http_req_duration:p99 < abc",
	}
	for _, in := range cases {
		if _, err := threshold.Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestParseMultipleCollectsErrors(t *testing.T) {
	_, err := threshold.ParseMultiple([]string{
		"http_req_duration:p99 < 500",
		"broken",
	})
	if err == nil || !strings.Contains(err.Error(), "threshold[1]") {
		t.Fatalf("expected indexed parse error, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	c := metrics.NewCollector()
	for i := 0; i < 9; i++ {
		c.RecordRequest(10*time.Millisecond, nil)
	}
	c.RecordRequest(0, &failErr{})
	stats := c.Stats(time.Second)

	thresholds, err := threshold.ParseMultiple([]string{
		"http_req_failed:rate < 0.5",  // passes: 10% failure rate
		"http_req_failed:count == 0",  // fails: one failure
		"http_requests:rate > 5",      // passes: 10 rps
		"http_req_duration:avg < 100", // passes: ~10ms
	})
	if err != nil {
		t.Fatalf("ParseMultiple: %v", err)
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(stats)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	wantPass := []bool{true, false, true, true}
	for i, res := range results {
		if res.Pass != wantPass[i] {
			t.Errorf("threshold %q: pass=%v, want %v (actual %.2f)", res.Threshold.Raw, res.Pass, wantPass[i], res.Actual)
		}
		if res.Message == "" {
			t.Errorf("threshold %q: empty message", res.Threshold.Raw)
		}
	}
}

func TestEvaluateEmpty(t *testing.T) {
	if results := threshold.NewEvaluator(nil).Evaluate(metrics.Stats{}); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

type failErr struct{}

func (*failErr) Error() string { return "simulated failure" }

// Package threshold evaluates performance assertions against run statistics,
// e.g. "http_req_duration:p99 < 500" (milliseconds) or
// "http_req_failed:rate < 0.01".
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/promptfire/promptfire/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // "http_req_duration", "http_req_failed", "http_requests"
	Aggregate string  // "p50", "p90", "p95", "p99", "avg", "min", "max", "rate", "count"
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64
	Raw       string // original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against collected metrics.
type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the provided stats.
func (e *Evaluator) Evaluate(stats metrics.Stats) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		actual, err := extract(t, stats)
		if err != nil {
			results = append(results, Result{
				Threshold: t,
				Message:   fmt.Sprintf("error: %v", err),
			})
			continue
		}

		pass := compare(actual, t.Operator, t.Value)
		status := "PASS"
		if !pass {
			status = "FAIL"
		}
		results = append(results, Result{
			Threshold: t,
			Actual:    actual,
			Pass:      pass,
			Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
		})
	}
	return results
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

var (
	validMetrics    = map[string]bool{"http_req_duration": true, "http_req_failed": true, "http_requests": true}
	validAggregates = map[string]bool{"p50": true, "p90": true, "p95": true, "p99": true, "avg": true, "min": true, "max": true, "rate": true, "count": true}
	validOperators  = map[string]bool{"<": true, "<=": true, ">": true, ">=": true, "==": true}
)

// Parse parses a threshold string of the form "metric:aggregate operator value".
// Latency values are in milliseconds; rates are decimals.
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected 'metric:aggregate operator value', e.g. 'http_req_duration:p99 < 500')", s)
	}

	metric, aggregate, operator, valueStr := matches[1], matches[2], matches[3], matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}
	if !validMetrics[metric] {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: http_req_duration, http_req_failed, http_requests)", metric)
	}
	if !validAggregates[aggregate] {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: p50, p90, p95, p99, avg, min, max, rate, count)", aggregate)
	}
	if !validOperators[operator] {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, collecting all errors.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var issues []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			issues = append(issues, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(issues) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(issues, "; "))
	}
	return result, nil
}

func extract(t Threshold, stats metrics.Stats) (float64, error) {
	switch t.Metric {
	case "http_req_duration":
		switch t.Aggregate {
		case "p50":
			return stats.P50LatencyMs, nil
		case "p90":
			return stats.P90LatencyMs, nil
		case "p95":
			// Approximate p95 from p90 and p99.
			return (stats.P90LatencyMs + stats.P99LatencyMs) / 2, nil
		case "p99":
			return stats.P99LatencyMs, nil
		case "avg":
			return stats.MeanLatencyMs, nil
		case "min":
			return stats.MinLatencyMs, nil
		case "max":
			return stats.MaxLatencyMs, nil
		}
		return 0, fmt.Errorf("unsupported aggregate %q for http_req_duration", t.Aggregate)
	case "http_req_failed":
		switch t.Aggregate {
		case "count":
			return float64(stats.Failures), nil
		case "rate":
			if stats.Total == 0 {
				return 0, nil
			}
			return float64(stats.Failures) / float64(stats.Total), nil
		}
		return 0, fmt.Errorf("unsupported aggregate %q for http_req_failed (use 'count' or 'rate')", t.Aggregate)
	case "http_requests":
		switch t.Aggregate {
		case "count":
			return float64(stats.Total), nil
		case "rate":
			return stats.RequestsPerSec, nil
		}
		return 0, fmt.Errorf("unsupported aggregate %q for http_requests (use 'count' or 'rate')", t.Aggregate)
	}
	return 0, fmt.Errorf("unknown metric: %s", t.Metric)
}

func compare(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}

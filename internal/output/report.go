package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/promptfire/promptfire/internal/metrics"
)

// Summary carries run identity and configuration alongside the aggregated
// statistics for reporting.
type Summary struct {
	RunID       string        `json:"run_id"`
	TargetURL   string        `json:"target_url"`
	Total       int           `json:"total_requests"`
	Concurrency int           `json:"concurrency"`
	Stats       metrics.Stats `json:"stats"`
}

// PrintReport outputs the final human-readable summary block.
func PrintReport(w io.Writer, s Summary) {
	rule := strings.Repeat("#", 50)
	st := s.Stats

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "%-25s %s\n", "Metric", "Value")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-25s %s\n", "Run ID:", s.RunID)
	fmt.Fprintf(w, "%-25s %s\n", "Target:", s.TargetURL)
	fmt.Fprintf(w, "%-25s %d\n", "Total Requests:", s.Total)
	fmt.Fprintf(w, "%-25s %d\n", "Concurrency:", s.Concurrency)
	fmt.Fprintf(w, "%-25s %d\n", "Success Count:", st.Successes)
	fmt.Fprintf(w, "%-25s %d\n", "Failure Count:", st.Failures)
	fmt.Fprintf(w, "%-25s %.2f seconds\n", "Total Duration:", st.Duration.Seconds())
	fmt.Fprintf(w, "%-25s %.2f seconds\n", "Average Response Time:", st.MeanLatency.Seconds())
	fmt.Fprintf(w, "%-25s %.2f\n", "QPS:", st.RequestsPerSec)

	fmt.Fprintln(w, "\nLatency (successful requests):")
	fmt.Fprintf(w, "  %-23s %s\n", "Min:", st.MinLatency)
	fmt.Fprintf(w, "  %-23s %s\n", "Max:", st.MaxLatency)
	fmt.Fprintf(w, "  %-23s %s\n", "P50:", st.P50Latency)
	fmt.Fprintf(w, "  %-23s %s\n", "P90:", st.P90Latency)
	fmt.Fprintf(w, "  %-23s %s\n", "P99:", st.P99Latency)

	if len(st.Errors) > 0 {
		fmt.Fprintln(w, "\nFailures by kind:")
		writeErrorBreakdown(w, st.Errors)
	}

	fmt.Fprintf(w, "%s\n", rule)
}

// PrintJSONReport outputs a JSON-formatted summary.
func PrintJSONReport(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteReportFile writes the JSON summary to path. A file lock guards the
// write so concurrent runs pointed at the same path do not interleave.
func WriteReportFile(path string, s Summary) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeErrorBreakdown(w io.Writer, errs map[string]int) {
	type row struct {
		kind  string
		count int
	}
	rows := make([]row, 0, len(errs))
	for kind, count := range errs {
		rows = append(rows, row{kind: kind, count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].kind < rows[j].kind
	})
	for _, r := range rows {
		fmt.Fprintf(w, "  - %s: %d\n", metrics.FriendlyErrorName(r.kind), r.count)
	}
}

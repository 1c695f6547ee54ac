// Package dashboard renders live run metrics in the terminal.
package dashboard

import (
	"fmt"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/promptfire/promptfire/internal/metrics"
)

const refreshInterval = 250 * time.Millisecond

// Maximum QPS samples kept for the sparkline.
const historyLimit = 120

// RunInfo describes the run parameters shown in the header.
type RunInfo struct {
	TargetURL   string
	Total       int
	Concurrency int
}

// Dashboard displays live statistics from a collector until stopped.
type Dashboard struct {
	collector *metrics.Collector
	info      RunInfo
	start     time.Time

	stopOnce sync.Once
	stop     chan struct{}
	finished chan struct{}
}

func New(collector *metrics.Collector, info RunInfo) *Dashboard {
	return &Dashboard{
		collector: collector,
		info:      info,
		stop:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
}

// Start initializes the terminal UI and begins rendering in a background
// goroutine.
func (d *Dashboard) Start() error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("init terminal ui: %w", err)
	}
	d.start = time.Now()
	go d.run()
	return nil
}

// Stop halts rendering and restores the terminal.
func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		<-d.finished
		ui.Close()
	})
}

func (d *Dashboard) run() {
	defer close(d.finished)

	header := widgets.NewParagraph()
	header.Title = "promptfire"
	header.Text = headerText(d.info)

	gauge := widgets.NewGauge()
	gauge.Title = "Progress"

	live := widgets.NewParagraph()
	live.Title = "Live Stats"

	spark := widgets.NewSparkline()
	spark.Data = []float64{0}
	sparkGroup := widgets.NewSparklineGroup(spark)
	sparkGroup.Title = "QPS"

	layout := func() {
		width, height := ui.TerminalDimensions()
		header.SetRect(0, 0, width, 3)
		gauge.SetRect(0, 3, width, 6)
		live.SetRect(0, 6, width/2, height)
		sparkGroup.SetRect(width/2, 6, width, height)
	}
	layout()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	events := ui.PollEvents()

	var history []float64
	for {
		select {
		case <-d.stop:
			return
		case e := <-events:
			if e.Type == ui.ResizeEvent {
				layout()
				ui.Render(header, gauge, live, sparkGroup)
			}
		case <-ticker.C:
			stats := d.collector.Stats(time.Since(d.start))

			gauge.Percent = progressPercent(stats.Total, d.info.Total)
			live.Text = statsText(stats)

			history = append(history, stats.RequestsPerSec)
			if len(history) > historyLimit {
				history = history[len(history)-historyLimit:]
			}
			spark.Data = history

			ui.Render(header, gauge, live, sparkGroup)
		}
	}
}

func headerText(info RunInfo) string {
	return fmt.Sprintf("Target: %s | Total: %d | Concurrency: %d",
		info.TargetURL, info.Total, info.Concurrency)
}

func statsText(s metrics.Stats) string {
	return fmt.Sprintf(
		"Completed: %d\nSuccesses: %d\nFailures:  %d\nQPS:       %.1f\n\nLatency\n  Mean: %s\n  P50:  %s\n  P90:  %s\n  P99:  %s",
		s.Total, s.Successes, s.Failures, s.RequestsPerSec,
		s.MeanLatency, s.P50Latency, s.P90Latency, s.P99Latency,
	)
}

func progressPercent(completed int64, total int) int {
	if total <= 0 {
		return 0
	}
	percent := int(float64(completed) / float64(total) * 100)
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}

package output

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

const barWidth = 30

// ProgressBar displays a live indicator that advances once per completed
// work item. Add is cheap enough to call from every worker; rendering is
// throttled to the refresh interval.
type ProgressBar struct {
	total     int64
	completed int64
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressBar creates a progress bar for total work items that redraws
// at the given interval.
func NewProgressBar(total int, interval time.Duration, writer io.Writer) *ProgressBar {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &ProgressBar{
		total:    int64(total),
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Add advances the bar by n completed items.
func (p *ProgressBar) Add(n int) {
	atomic.AddInt64(&p.completed, int64(n))
}

// Completed returns the number of items recorded so far.
func (p *ProgressBar) Completed() int64 {
	return atomic.LoadInt64(&p.completed)
}

// Start begins redrawing the bar in a background goroutine.
func (p *ProgressBar) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts updates and renders the final state.
func (p *ProgressBar) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressBar) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, "\r"+p.Render())
		case <-p.done:
			fmt.Fprint(p.writer, "\r"+p.Render())
			return
		}
	}
}

// Render returns the current bar line.
func (p *ProgressBar) Render() string {
	completed := atomic.LoadInt64(&p.completed)

	filled := 0
	if p.total > 0 {
		filled = int(float64(barWidth) * float64(completed) / float64(p.total))
	}
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, completed, p.total)
}

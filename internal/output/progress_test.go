package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/promptfire/promptfire/internal/output"
)

func TestProgressBarAdvancesPerItem(t *testing.T) {
	p := output.NewProgressBar(10, time.Hour, nil)

	for i := 0; i < 4; i++ {
		p.Add(1)
	}

	if got := p.Completed(); got != 4 {
		t.Fatalf("expected 4 completed, got %d", got)
	}
	if !strings.Contains(p.Render(), "4/10") {
		t.Fatalf("render missing count: %q", p.Render())
	}
}

func TestProgressBarRenderBounds(t *testing.T) {
	p := output.NewProgressBar(2, time.Hour, nil)
	p.Add(5) // overshoot must not break the bar

	line := p.Render()
	if !strings.Contains(line, "5/2") {
		t.Fatalf("unexpected render: %q", line)
	}
	if strings.Contains(line, "-") {
		t.Fatalf("overshot bar should be full: %q", line)
	}
}

func TestProgressBarStopRendersFinalState(t *testing.T) {
	var buf bytes.Buffer
	p := output.NewProgressBar(3, 10*time.Millisecond, &buf)

	p.Start()
	p.Add(3)
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	if !strings.Contains(buf.String(), "3/3") {
		t.Fatalf("expected final state in output, got %q", buf.String())
	}

	// Stop twice must not panic.
	p.Stop()
}

func TestProgressBarZeroTotal(t *testing.T) {
	p := output.NewProgressBar(0, time.Hour, nil)
	p.Add(1)
	if !strings.Contains(p.Render(), "1/0") {
		t.Fatalf("unexpected render: %q", p.Render())
	}
}

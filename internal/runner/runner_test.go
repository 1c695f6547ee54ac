package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptfire/promptfire/internal/runner"
)

// fakeRequester simulates performing a request with fixed latency.
type fakeRequester struct {
	latency   time.Duration
	calls     int64
	inflight  int64
	maxSeen   int64
	failEvery int64 // if >0, every Nth call fails
}

func (f *fakeRequester) Do(ctx context.Context) error {
	n := atomic.AddInt64(&f.calls, 1)

	cur := atomic.AddInt64(&f.inflight, 1)
	for {
		seen := atomic.LoadInt64(&f.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt64(&f.maxSeen, seen, cur) {
			break
		}
	}
	defer atomic.AddInt64(&f.inflight, -1)

	select {
	case <-time.After(f.latency):
	case <-ctx.Done():
		return ctx.Err()
	}

	if f.failEvery > 0 && n%f.failEvery == 0 {
		return errors.New("simulated failure")
	}
	return nil
}

func TestRunnerExecutesAllWorkItems(t *testing.T) {
	req := &fakeRequester{latency: time.Millisecond}
	r := runner.New(runner.Options{
		Concurrency:   4,
		TotalRequests: 25,
		Requester:     req,
	})

	res := r.Run(context.Background())

	if res.Total != 25 {
		t.Fatalf("expected total 25, got %d", res.Total)
	}
	if calls := atomic.LoadInt64(&req.calls); calls != 25 {
		t.Fatalf("expected requester called 25 times, got %d", calls)
	}
	if res.Duration <= 0 {
		t.Fatal("result duration not recorded")
	}
}

func TestRunnerEnforcesConcurrencyCeiling(t *testing.T) {
	req := &fakeRequester{latency: 5 * time.Millisecond}
	r := runner.New(runner.Options{
		Concurrency:   3,
		TotalRequests: 30,
		Requester:     req,
	})

	r.Run(context.Background())

	if max := atomic.LoadInt64(&req.maxSeen); max > 3 {
		t.Fatalf("concurrency ceiling exceeded: saw %d in flight", max)
	}
}

func TestRunnerCountsFailuresWithoutAborting(t *testing.T) {
	req := &fakeRequester{failEvery: 2}
	r := runner.New(runner.Options{
		Concurrency:   5,
		TotalRequests: 20,
		Requester:     req,
	})

	res := r.Run(context.Background())

	if res.Total != 20 {
		t.Fatalf("expected total 20, got %d", res.Total)
	}
	if res.Errors != 10 {
		t.Fatalf("expected 10 errors, got %d", res.Errors)
	}
	if calls := atomic.LoadInt64(&req.calls); calls != 20 {
		t.Fatalf("failures must not stop siblings: got %d calls", calls)
	}
}

func TestRateLimiterCapsThroughput(t *testing.T) {
	req := &fakeRequester{}
	r := runner.New(runner.Options{
		Concurrency:    20,
		TotalRequests:  1000,
		RatePerSecond:  100,
		Requester:      req,
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 1) },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	// ~100 RPS over 100ms allows roughly 10 starts; give generous slack.
	if calls := atomic.LoadInt64(&req.calls); calls > 40 {
		t.Fatalf("rate limiter exceeded: %d calls in 100ms at 100 RPS", calls)
	}
}

func TestRunnerStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &fakeRequester{latency: time.Millisecond}
	r := runner.New(runner.Options{
		Concurrency:   2,
		TotalRequests: 50,
		Requester:     req,
	})

	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case res := <-done:
		if res.Total != 50 {
			t.Fatalf("expected total 50, got %d", res.Total)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not return after context cancellation")
	}
}

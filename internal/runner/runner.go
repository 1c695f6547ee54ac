package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result captures execution summary.
type Result struct {
	Total    int64
	Errors   int64
	Duration time.Duration
}

// Runner coordinates concurrent execution behind a permit pool.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run launches all TotalRequests work items at once and returns only after
// every one of them has reached a terminal outcome. The permit channel is
// solely responsible for limiting how many requests are in flight; unstarted
// items park on it without consuming anything but a goroutine.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var errs int64

	if ctx == nil {
		ctx = context.Background()
	}

	limiter := r.opt.LimiterFactory(r.opt.RatePerSecond)
	permits := make(chan struct{}, r.opt.Concurrency)

	var wg sync.WaitGroup
	wg.Add(r.opt.TotalRequests)
	for i := 0; i < r.opt.TotalRequests; i++ {
		go func() {
			defer wg.Done()

			// Pace before taking a permit so the permit is held only
			// across the request itself.
			if err := limiter.Wait(ctx); err != nil {
				atomic.AddInt64(&errs, 1)
				return
			}

			select {
			case permits <- struct{}{}:
			case <-ctx.Done():
				atomic.AddInt64(&errs, 1)
				return
			}
			defer func() { <-permits }()

			if r.opt.Requester != nil {
				if err := r.opt.Requester.Do(ctx); err != nil {
					atomic.AddInt64(&errs, 1)
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Total:    int64(r.opt.TotalRequests),
		Errors:   atomic.LoadInt64(&errs),
		Duration: time.Since(start),
	}
}

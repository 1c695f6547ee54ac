// Package runner provides the request-dispatch engine for promptfire.
//
// The runner launches every work item as its own goroutine up front and
// admits at most Concurrency of them to in-flight execution through a
// permit pool. Per-item failures are counted, never propagated: a failed
// request cannot abort sibling items or the run.
//
// # Basic Usage
//
//	opts := runner.Options{
//		Concurrency:   10,
//		TotalRequests: 1000,
//		Requester:     myRequester,
//	}
//	r := runner.New(opts)
//	result := r.Run(ctx)
//
// # Requester Interface
//
// The [Requester] interface defines what a runner executes:
//
//	type Requester interface {
//		Do(ctx context.Context) error
//	}
//
// # Middleware
//
// Enhance requesters with middleware:
//   - [WithLogging]: log request failures
//   - [WithObserver]: observe every terminal outcome (progress reporting)
//
// # Pacing
//
// An optional rate limiter paces work-item starts. Pacing happens before
// permit acquisition so a permit is only ever held across the request it
// bounds.
package runner

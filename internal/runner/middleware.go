package runner

import (
	"context"
	"fmt"
)

// HTTPError represents an HTTP request failure with status details.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// FailureLogger logs failed requests.
type FailureLogger interface {
	LogFailure(err error)
}

// loggingRequester wraps a Requester with failure logging.
type loggingRequester struct {
	inner  Requester
	logger FailureLogger
}

// WithLogging wraps a Requester to log failures.
func WithLogging(req Requester, logger FailureLogger) Requester {
	if logger == nil {
		return req
	}
	return &loggingRequester{
		inner:  req,
		logger: logger,
	}
}

func (l *loggingRequester) Do(ctx context.Context) error {
	err := l.inner.Do(ctx)
	if err != nil && l.logger != nil {
		l.logger.LogFailure(err)
	}
	return err
}

// observerRequester notifies fn after every completion, success or failure.
type observerRequester struct {
	inner Requester
	fn    func(err error)
}

// WithObserver wraps a Requester so fn fires once per terminal outcome.
// Progress indicators hang off this hook; it has no bearing on statistics.
func WithObserver(req Requester, fn func(err error)) Requester {
	if fn == nil {
		return req
	}
	return &observerRequester{
		inner: req,
		fn:    fn,
	}
}

func (o *observerRequester) Do(ctx context.Context) error {
	err := o.inner.Do(ctx)
	o.fn(err)
	return err
}

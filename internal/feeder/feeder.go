package feeder

import (
	"context"
)

// Feeder provides per-request prompts from a dataset.
// Implementations must be safe for concurrent use.
type Feeder interface {
	// Next returns a prompt drawn from the dataset.
	Next(ctx context.Context) (string, error)

	// Close releases any resources held by the feeder.
	Close() error

	// Len returns the total number of prompts in the dataset.
	Len() int
}

type emptyPoolError struct{}

func (emptyPoolError) Error() string { return "prompt pool is empty" }

// ErrEmptyPool is returned by Next when the feeder holds no prompts.
// Callers must treat it as a per-request failure, not a fatal condition.
var ErrEmptyPool error = emptyPoolError{}

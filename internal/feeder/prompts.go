package feeder

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// PromptFeeder serves uniformly random prompts from a newline-delimited
// text file. The pool is loaded once and immutable afterward; sampling is
// with repetition and independent across calls.
type PromptFeeder struct {
	prompts []string

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPromptFeeder loads the dataset at path. Each line is trimmed of
// surrounding whitespace; lines that are blank after trimming are dropped.
// An unreadable file is an error. A readable file with no usable lines
// yields an empty feeder whose Next fails with ErrEmptyPool.
func NewPromptFeeder(path string) (*PromptFeeder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	var prompts []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	return &PromptFeeder{
		prompts: prompts,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Next returns a uniformly random prompt from the pool.
// The emptiness check runs on every call, not only at startup.
func (f *PromptFeeder) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if len(f.prompts) == 0 {
		return "", ErrEmptyPool
	}

	f.mu.Lock()
	idx := f.rnd.Intn(len(f.prompts))
	f.mu.Unlock()

	return f.prompts[idx], nil
}

// Close releases resources. For a prompt feeder, this is a no-op.
func (f *PromptFeeder) Close() error {
	return nil
}

// Len returns the number of prompts in the pool.
func (f *PromptFeeder) Len() int {
	return len(f.prompts)
}

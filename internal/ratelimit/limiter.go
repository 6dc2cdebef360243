// Package ratelimit bounds outbound API usage two ways: request pacing
// (requests per second) and a cap on concurrently in-flight requests.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a name for logging/debugging.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a rate limiter allowing requestsPerSecond, with burst equal
// to the rate.
func New(name string, requestsPerSecond int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows a request to proceed.
// Returns an error if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	return l.name
}

// Slots is a counting semaphore capping in-flight requests. A single Slots
// value is shared by every fetch in the aggregation pipeline, so concurrent
// enrichments cannot multiply the number of open connections.
type Slots struct {
	sem *semaphore.Weighted
	cap int64
}

// NewSlots creates a semaphore with the given capacity. Capacities below
// one are raised to one.
func NewSlots(capacity int) *Slots {
	if capacity < 1 {
		capacity = 1
	}
	return &Slots{sem: semaphore.NewWeighted(int64(capacity)), cap: int64(capacity)}
}

// Acquire blocks until a slot is free or the context is cancelled.
func (s *Slots) Acquire(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire request slot: %w", err)
	}
	return nil
}

// Release frees a slot acquired with Acquire.
func (s *Slots) Release() {
	s.sem.Release(1)
}

// Cap returns the configured capacity.
func (s *Slots) Cap() int {
	return int(s.cap)
}

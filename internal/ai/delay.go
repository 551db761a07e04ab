package ai

import (
	"context"
	"time"
)

// SleepDelayer waits a fixed wall-clock interval.
type SleepDelayer struct {
	D time.Duration
}

func (s SleepDelayer) Wait(ctx context.Context) error {
	if s.D <= 0 {
		return nil
	}
	t := time.NewTimer(s.D)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelay completes immediately; used in tests.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error { return ctx.Err() }

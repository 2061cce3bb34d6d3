// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry repeats operations that fail transiently.
package retry

import (
	"context"
	"math"
	"time"
)

// BaseDelay controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var BaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// Do calls fn and retries while retryable reports its error as transient,
// with exponential backoff. The delay starts at BaseDelay and doubles each
// attempt: 2 s, 4 s, 8 s.
//
// When maxRetries is 0 the default (3) is used. If the context is cancelled
// during a backoff wait Do returns ctx.Err(). After exhausting retries the
// last error is returned.
func Do(ctx context.Context, maxRetries int, retryable func(error) bool, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !retryable(err) || attempt >= maxRetries {
			return err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * BaseDelay
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

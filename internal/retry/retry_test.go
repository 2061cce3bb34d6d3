// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("try again")

func init() {
	// Use a tiny base delay so tests finish quickly.
	BaseDelay = 1 * time.Millisecond
}

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDo_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, isTransient, func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, isTransient, func() error {
		calls++
		if calls <= 2 {
			return errTransient
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, isTransient, func() error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	// 1 initial + 3 retries = 4 total calls.
	assert.Equal(t, 4, calls)
}

func TestDo_DefaultMaxRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 0, isTransient, func() error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, calls)
}

func TestDo_PermanentErrorPassesThrough(t *testing.T) {
	permanent := errors.New("mailbox unavailable")
	calls := 0
	err := Do(context.Background(), 5, isTransient, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	old := BaseDelay
	BaseDelay = 500 * time.Millisecond
	defer func() { BaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Do(ctx, 5, isTransient, func() error { return errTransient })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry re-runs read operations that fail transiently.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// BaseDelay controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var BaseDelay = 50 * time.Millisecond

// Policy describes when and how often to retry.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retrying.
	MaxRetries int

	// Retryable reports whether an error is worth retrying. Nil retries
	// nothing.
	Retryable func(error) bool

	// Log receives one entry per retry. Nil is silent.
	Log logrus.FieldLogger
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// retries are exhausted. The delay starts at BaseDelay and doubles each
// attempt. If the context is cancelled during a backoff wait Do returns
// ctx.Err(). After exhausting retries the last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * BaseDelay
		if p.Log != nil {
			p.Log.WithError(err).WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"max":     p.MaxRetries,
				"backoff": backoff,
			}).Warn("transient failure, retrying")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

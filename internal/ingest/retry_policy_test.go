package ingest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyOnlyRetriesTransient(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy()

	if !p.ShouldRetry(ErrTransientIO, 0) {
		t.Fatal("transient error should be retryable on first attempt")
	}
	if p.ShouldRetry(ErrCorruptArchive, 0) {
		t.Fatal("corrupt archive must not be retried")
	}
	if p.ShouldRetry(ErrSchema, 0) {
		t.Fatal("schema error must not be retried")
	}
	if p.ShouldRetry(context.Canceled, 0) {
		t.Fatal("cancellation must not be retried")
	}
	if p.ShouldRetry(nil, 0) {
		t.Fatal("nil error must not be retried")
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicyWith(2, time.Millisecond, 10*time.Millisecond)
	wrapped := errors.Join(ErrTransientIO, errors.New("dial tcp: connection refused"))

	if !p.ShouldRetry(wrapped, 1) {
		t.Fatal("attempt below limit should retry")
	}
	if p.ShouldRetry(wrapped, 2) {
		t.Fatal("attempt at limit must stop")
	}
}

func TestRetryPolicyBackoffBounded(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicyWith(5, 100*time.Millisecond, time.Second)
	for attempt := 0; attempt < 10; attempt++ {
		d := p.Backoff(attempt)
		if d < 0 || d > time.Second {
			t.Fatalf("backoff(%d) = %v outside [0, 1s]", attempt, d)
		}
	}
}

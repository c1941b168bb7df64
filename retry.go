package tlproxy

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Attempts after the first one
	BaseDelay  time.Duration // Delay before the first retry, doubled each time
	MaxDelay   time.Duration // Upper bound for a single delay
}

// DefaultRetryConfig returns the retry settings used by the command line.
// They are sized to fit inside the Translator's default per-call timeout.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// delay returns the backoff before retry number attempt (0-based).
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.BaseDelay << attempt
	if d <= 0 || (c.MaxDelay > 0 && d > c.MaxDelay) {
		d = c.MaxDelay
	}
	return max(d, 0)
}

// RetryableStatus reports whether an HTTP status from a provider is worth
// retrying: 429 and 5xx. DeepL's 456 (quota exhausted) is permanent.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// IsRetryable reports whether err is a transient provider failure. A
// ProviderError carrying an HTTP status is classified by that status;
// otherwise its Retryable flag decides. Context errors and anything else
// are permanent.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	if pe.StatusCode != 0 {
		return RetryableStatus(pe.StatusCode)
	}
	return pe.Retryable
}

// RetryableProvider retries transient failures of the wrapped provider with
// exponential backoff. It never sleeps past the deadline of the call's
// context: when the next delay would not fit, the last error is returned at
// once so the caller can fall back to the source text.
type RetryableProvider struct {
	provider Provider
	config   RetryConfig
}

// NewRetryableProvider wraps provider with retry logic.
func NewRetryableProvider(provider Provider, cfg RetryConfig) *RetryableProvider {
	return &RetryableProvider{
		provider: provider,
		config:   cfg,
	}
}

// Translate implements Provider.
func (p *RetryableProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := p.provider.Translate(ctx, req)
		if err == nil || attempt >= p.config.MaxRetries || !IsRetryable(err) {
			return out, err
		}

		wait := p.config.delay(attempt)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= wait {
			return "", err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

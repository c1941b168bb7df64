package tlproxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// failingProvider fails its first failCount calls with err, or with a
// retryable ProviderError when err is nil.
type failingProvider struct {
	mu        sync.Mutex
	failCount int
	err       error
	callCount int
}

func (p *failingProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callCount++
	if p.callCount <= p.failCount {
		if p.err != nil {
			return "", p.err
		}
		return "", &ProviderError{Message: "temporary failure", Retryable: true}
	}
	return "translated", nil
}

func (p *failingProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxRetries: n, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryableProvider_RecoversFromTransientFailures(t *testing.T) {
	inner := &failingProvider{failCount: 2}

	result, err := NewRetryableProvider(inner, fastRetry(3)).Translate(context.Background(),
		TranslateRequest{Text: "hello", TargetLang: "ES"})

	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if result != "translated" {
		t.Errorf("Unexpected result: %q", result)
	}
	if inner.calls() != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.calls())
	}
}

func TestRetryableProvider_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &failingProvider{failCount: 10}

	_, err := NewRetryableProvider(inner, fastRetry(2)).Translate(context.Background(), TranslateRequest{Text: "hello"})

	if !IsRetryable(err) {
		t.Errorf("Expected the last provider error, got: %v", err)
	}
	// Initial attempt + 2 retries
	if inner.calls() != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.calls())
	}
}

func TestRetryableProvider_StatusDecides(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		calls int
	}{
		{"quota exhausted", &ProviderError{Provider: "deepl", StatusCode: 456, Retryable: true}, 1},
		{"bad request", &ProviderError{Provider: "google", StatusCode: 400}, 1},
		{"too many requests", &ProviderError{Provider: "deepl", StatusCode: 429}, 2},
		{"bad gateway", &ProviderError{Provider: "google", StatusCode: 502}, 2},
		{"network error without status", &ProviderError{Provider: "deepl", Retryable: true}, 2},
		{"plain error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &failingProvider{failCount: 1, err: tt.err}
			_, _ = NewRetryableProvider(inner, fastRetry(1)).Translate(context.Background(), TranslateRequest{Text: "x"})
			if inner.calls() != tt.calls {
				t.Errorf("Expected %d calls, got %d", tt.calls, inner.calls())
			}
		})
	}
}

func TestRetryableProvider_SkipsSleepPastDeadline(t *testing.T) {
	inner := &failingProvider{failCount: 10}
	p := NewRetryableProvider(inner, RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Translate(ctx, TranslateRequest{Text: "x"})

	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Backoff should be skipped when it cannot fit the deadline, took %v", elapsed)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Errorf("Expected the provider error, got: %v", err)
	}
	if inner.calls() != 1 {
		t.Errorf("Expected 1 call, got %d", inner.calls())
	}
}

func TestRetryableProvider_ContextCanceledDuringBackoff(t *testing.T) {
	inner := &failingProvider{failCount: 10}
	p := NewRetryableProvider(inner, RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := p.Translate(ctx, TranslateRequest{Text: "x"})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRetryableProvider_WithTranslatorTimeout(t *testing.T) {
	inner := &failingProvider{failCount: 10}
	tr := NewTranslator(Credentials{DeepLKey: "dk"},
		WithClient(ProviderDeepL, NewRetryableProvider(inner, RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second})),
		WithTimeout(200*time.Millisecond),
	)

	start := time.Now()
	got := tr.Translate(context.Background(), "hello", "DE", ProviderDeepL)

	if got != "hello" {
		t.Errorf("Expected fallback to source text, got %q", got)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("Fallback should not wait for the timeout, took %v", elapsed)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"flag without status", &ProviderError{Retryable: true}, true},
		{"no flag without status", &ProviderError{}, false},
		{"429", &ProviderError{StatusCode: 429}, true},
		{"503 without flag", &ProviderError{StatusCode: 503}, true},
		{"456 with flag", &ProviderError{StatusCode: 456, Retryable: true}, false},
		{"wrapped", fmt.Errorf("calling deepl: %w", &ProviderError{StatusCode: 500}), true},
		{"generic error", errors.New("some error"), false},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	tests := map[int]bool{
		200: false,
		400: false,
		403: false,
		429: true,
		456: false,
		500: true,
		503: true,
	}
	for code, want := range tests {
		if got := RetryableStatus(code); got != want {
			t.Errorf("RetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for attempt, w := range want {
		if got := cfg.delay(attempt); got != w {
			t.Errorf("delay(%d) = %v, want %v", attempt, got, w)
		}
	}

	if got := DefaultRetryConfig().delay(62); got != 2*time.Second {
		t.Errorf("Overflowing shift should cap at MaxDelay, got %v", got)
	}
}

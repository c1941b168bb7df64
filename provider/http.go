package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZaguanLabs/tlproxy"
)

// maxResponseSize caps how much of a provider response is read.
const maxResponseSize = 1 << 20

// defaultHTTPTimeout applies when no HTTP client is supplied. The Translator
// usually enforces a shorter per-call deadline through the context.
const defaultHTTPTimeout = 30 * time.Second

// HTTPDoer is the subset of *http.Client the providers need.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func defaultHTTPClient() HTTPDoer {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// doJSON sends req and decodes a 2xx JSON body into out. Every failure is
// returned as a *tlproxy.ProviderError.
func doJSON(client HTTPDoer, req *http.Request, provider string, out any) error {
	req.Header.Set("User-Agent", tlproxy.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &tlproxy.ProviderError{
			Provider:  provider,
			Message:   "request failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &tlproxy.ProviderError{
			Provider:   provider,
			Message:    "reading response",
			StatusCode: resp.StatusCode,
			Cause:      err,
			Retryable:  true,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &tlproxy.ProviderError{
			Provider:   provider,
			Message:    fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, snippet(body)),
			StatusCode: resp.StatusCode,
			Retryable:  tlproxy.RetryableStatus(resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &tlproxy.ProviderError{
			Provider:   provider,
			Message:    "invalid JSON response",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	return nil
}

func isRetryableError(err error) bool {
	// Check for common retryable conditions
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"connection refused",
		"connection reset",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:197] + "..."
	}
	return s
}

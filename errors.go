package tlproxy

import "fmt"

// ProviderError indicates a translation provider failure (HTTP error, quota,
// malformed response, etc.).
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int // HTTP status, 0 when the request never completed
	Cause      error
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	prefix := "provider error"
	if e.Provider != "" {
		prefix = fmt.Sprintf("provider error (%s)", e.Provider)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure (read error, etc.).
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

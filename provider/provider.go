// Package provider implements the translation backends: DeepL, Google
// Translate and OpenAI-compatible chat models.
package provider

import "github.com/ZaguanLabs/tlproxy"

// Provider is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Provider = tlproxy.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = tlproxy.TranslateRequest

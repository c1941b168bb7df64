// Package processor turns an HTML document into a stream of events and
// rewrites that stream: text is translated, internal links are pointed back
// at the translating entry point and protected regions are left alone.
package processor

import "github.com/ZaguanLabs/tlproxy"

// FragmentTranslator is an alias to the main package interface.
type FragmentTranslator = tlproxy.FragmentTranslator

// RenderContext is an alias to the main package type.
type RenderContext = tlproxy.RenderContext

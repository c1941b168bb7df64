package tlproxy

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

// Provider is the interface for translation backends.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// FragmentTranslator translates the text fragments of one document. Results
// are returned in input order, one per fragment, and a fragment that cannot
// be translated comes back unchanged.
type FragmentTranslator interface {
	TranslateAll(ctx context.Context, texts []string, lang string, kind ProviderKind) []string
}

// Translator dispatches fragments to the provider chosen for a request.
type Translator struct {
	creds       Credentials
	clients     map[ProviderKind]Provider
	sourceLang  string
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithClient registers the client used for kind.
func WithClient(kind ProviderKind, p Provider) TranslatorOption {
	return func(t *Translator) {
		if p != nil && kind != ProviderNone {
			t.clients[kind] = p
		}
	}
}

// WithSourceLang sets the language documents are written in. Empty keeps
// DefaultLang.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		if lang = strings.TrimSpace(lang); lang != "" {
			t.sourceLang = lang
		}
	}
}

// WithTimeout bounds every provider call. Zero disables the bound.
func WithTimeout(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.timeout = d
	}
}

// WithConcurrency sets how many provider calls one document may have in
// flight. Values below 1 are treated as 1.
func WithConcurrency(n int) TranslatorOption {
	return func(t *Translator) {
		t.concurrency = max(n, 1)
	}
}

// WithLogger sets the logger used for fallbacks and per-call debug output.
func WithLogger(l *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTranslator creates a Translator for the given credentials.
func NewTranslator(creds Credentials, opts ...TranslatorOption) *Translator {
	t := &Translator{
		creds:       creds,
		clients:     make(map[ProviderKind]Provider),
		sourceLang:  DefaultLang,
		timeout:     10 * time.Second,
		concurrency: 1,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Credentials returns the credentials the Translator selects providers with.
func (t *Translator) Credentials() Credentials {
	return t.creds
}

// Select picks a provider for code using the Translator's credentials.
func (t *Translator) Select(code string) (ProviderKind, string) {
	return Select(code, t.creds)
}

// Translate returns text translated into lang by kind. It returns text
// unchanged, without any provider call, when kind is ProviderNone, lang is
// the default language or text is blank. Provider failures are logged and
// also yield the original text.
func (t *Translator) Translate(ctx context.Context, text, lang string, kind ProviderKind) string {
	if kind == ProviderNone || IsDefaultLang(lang) {
		return text
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || ctx.Err() != nil {
		return text
	}

	client, ok := t.clients[kind]
	if !ok {
		t.logger.WarnContext(ctx, "no client registered for provider",
			slog.String("provider", kind.String()))
		return text
	}

	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	translated, err := client.Translate(callCtx, TranslateRequest{
		Text:       trimmed,
		TargetLang: lang,
		SourceLang: t.sourceLang,
	})
	if err == nil && translated == "" {
		err = &ProviderError{Provider: kind.String(), Message: "empty translation"}
	}
	if err != nil {
		t.logger.WarnContext(ctx, "translation failed, keeping original text",
			slog.String("provider", kind.String()),
			slog.String("lang", lang),
			slog.String("fragment", FragmentID(trimmed)),
			slog.Any("error", err),
		)
		return text
	}

	t.logger.DebugContext(ctx, "fragment translated",
		slog.String("provider", kind.String()),
		slog.String("lang", lang),
		slog.String("fragment", FragmentID(trimmed)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return preserveWhitespace(text, translated)
}

// preserveWhitespace puts the original leading and trailing whitespace back
// around translated. Whitespace is any Unicode space, matching the
// strings.TrimSpace applied before the provider call.
func preserveWhitespace(original, translated string) string {
	body := strings.TrimLeftFunc(original, unicode.IsSpace)
	if body == "" {
		return original
	}
	leading := original[:len(original)-len(body)]
	trailing := body[len(strings.TrimRightFunc(body, unicode.IsSpace)):]

	return leading + strings.TrimSpace(translated) + trailing
}

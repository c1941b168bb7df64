package tlproxy

import "strings"

// DefaultLang is the language of the source documents. Text targeting it is
// never sent to a provider.
const DefaultLang = "EN"

// ProviderKind identifies a translation backend. The set is closed; the
// declaration order is the selection priority.
type ProviderKind int

const (
	// ProviderNone means no translation: text passes through unchanged.
	ProviderNone ProviderKind = iota
	// ProviderDeepL is the DeepL API (free tier endpoint).
	ProviderDeepL
	// ProviderGoogle is the Google Cloud Translation v2 API.
	ProviderGoogle
	// ProviderOpenAI is an OpenAI-compatible chat completion API.
	ProviderOpenAI
)

// providerPriority is the order in which Select tries providers.
var providerPriority = []ProviderKind{ProviderDeepL, ProviderGoogle, ProviderOpenAI}

// String returns the lower-case provider name used in logs and config.
func (k ProviderKind) String() string {
	switch k {
	case ProviderDeepL:
		return "deepl"
	case ProviderGoogle:
		return "google"
	case ProviderOpenAI:
		return "openai"
	default:
		return "none"
	}
}

// placeholderKey marks a credential that is present in config but unset.
const placeholderKey = "none"

// Credentials holds the API keys of every provider. A provider is usable iff
// its key is neither empty nor the "none" placeholder.
type Credentials struct {
	DeepLKey  string
	GoogleKey string
	OpenAIKey string
}

// Key returns the credential configured for kind.
func (c Credentials) Key(kind ProviderKind) string {
	switch kind {
	case ProviderDeepL:
		return c.DeepLKey
	case ProviderGoogle:
		return c.GoogleKey
	case ProviderOpenAI:
		return c.OpenAIKey
	default:
		return ""
	}
}

// Usable reports whether kind has a real credential.
func (c Credentials) Usable(kind ProviderKind) bool {
	key := strings.TrimSpace(c.Key(kind))
	return key != "" && !strings.EqualFold(key, placeholderKey)
}

// TranslateRequest contains the parameters for a single fragment translation.
type TranslateRequest struct {
	Text       string // Fragment to translate, already trimmed
	TargetLang string // Code in the provider's own casing convention
	SourceLang string // Source language, DefaultLang unless configured otherwise
}

// RenderContext is the request-scoped, read-only state threaded through a
// document transform. Build it once per request and call Resolve before use.
type RenderContext struct {
	TargetLang   string       // Language carried in rewritten links
	AcceptLang   string       // Best Accept-Language tag, "" when absent
	ExplicitLang bool         // The request carried an explicit lang parameter
	Provider     ProviderKind // Filled by Resolve
	ProviderLang string       // Effective code in Provider's casing, filled by Resolve

	ScriptPath    string // Path of the translating entry point, e.g. "/app.cgi"
	PageParam     string // Query parameter naming the page, e.g. "page"
	DocRoot       string // Suffix appended to rewritten hrefs
	LinkKeyword   string // Anchors whose href contains this are rewritten
	CodeSentinel  string // Marker inserted after code-block opening tags
	ScrubComments bool   // Replace comment bodies with a placeholder
}

// EffectiveLang returns the language text should be translated into: the
// detected Accept-Language when it is non-default and no explicit language
// was requested, otherwise TargetLang.
func (rc RenderContext) EffectiveLang() string {
	if rc.AcceptLang != "" && !IsDefaultLang(rc.AcceptLang) && !rc.ExplicitLang {
		return rc.AcceptLang
	}
	return rc.TargetLang
}

// Resolve selects the provider for the effective language and returns a copy
// of rc with Provider and ProviderLang set.
func (rc RenderContext) Resolve(creds Credentials) RenderContext {
	lang := rc.EffectiveLang()
	if lang == "" || IsDefaultLang(lang) {
		rc.Provider, rc.ProviderLang = ProviderNone, DefaultLang
		return rc
	}
	rc.Provider, rc.ProviderLang = Select(lang, creds)
	return rc
}

// Passthrough reports whether no text in the document will be translated.
func (rc RenderContext) Passthrough() bool {
	return rc.Provider == ProviderNone || IsDefaultLang(rc.ProviderLang)
}

// IgnoredTags contains HTML tags whose content is never translated.
var IgnoredTags = map[string]bool{
	"script": true,
	"style":  true,
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

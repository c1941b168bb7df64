package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ZaguanLabs/tlproxy"
)

// DeepLFreeURL is the DeepL free-tier translate endpoint.
const DeepLFreeURL = "https://api-free.deepl.com/v2/translate"

// DeepLConfig holds configuration for the DeepL provider.
type DeepLConfig struct {
	APIKey     string   // DeepL authentication key
	BaseURL    string   // Translate endpoint (default: DeepLFreeURL)
	HTTPClient HTTPDoer // Optional client (default: http.Client with 30s timeout)
}

// DeepLProvider translates through the DeepL REST API.
type DeepLProvider struct {
	apiKey   string
	endpoint string
	client   HTTPDoer
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// NewDeepLProvider creates a new DeepL provider.
func NewDeepLProvider(cfg DeepLConfig) *DeepLProvider {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = DeepLFreeURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}

	return &DeepLProvider{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   client,
	}
}

// Translate sends one fragment as a form POST with auth_key, text and an
// upper-case target_lang, and returns translations[0].text.
func (p *DeepLProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	form := url.Values{}
	form.Set("auth_key", p.apiKey)
	form.Set("text", req.Text)
	form.Set("target_lang", tlproxy.NormalizeCode(tlproxy.ProviderDeepL, req.TargetLang))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &tlproxy.ProviderError{Provider: "deepl", Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp deeplResponse
	if err := doJSON(p.client, httpReq, "deepl", &resp); err != nil {
		return "", err
	}

	if len(resp.Translations) == 0 {
		return "", &tlproxy.ProviderError{Provider: "deepl", Message: "no translations in response"}
	}

	return resp.Translations[0].Text, nil
}

// Verify DeepLProvider implements Provider
var _ Provider = (*DeepLProvider)(nil)

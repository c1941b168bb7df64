package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ZaguanLabs/tlproxy"
)

// GoogleURL is the Google Translate v2 endpoint.
const GoogleURL = "https://www.googleapis.com/language/translate/v2"

// GoogleConfig holds configuration for the Google provider.
type GoogleConfig struct {
	APIKey     string   // Google Cloud API key
	BaseURL    string   // Translate endpoint (default: GoogleURL)
	HTTPClient HTTPDoer // Optional client (default: http.Client with 30s timeout)
}

// GoogleProvider translates through the Google Translate v2 REST API.
type GoogleProvider struct {
	apiKey   string
	endpoint string
	client   HTTPDoer
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// NewGoogleProvider creates a new Google Translate provider.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = GoogleURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}

	return &GoogleProvider{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   client,
	}
}

// Translate POSTs key, source, target (lower-case) and q as query
// parameters, in that order, and returns data.translations[0].translatedText.
func (p *GoogleProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	source := tlproxy.BaseLang(req.SourceLang)
	if source == "" {
		source = "en"
	}

	query := "key=" + url.QueryEscape(p.apiKey) +
		"&source=" + url.QueryEscape(source) +
		"&target=" + url.QueryEscape(tlproxy.NormalizeCode(tlproxy.ProviderGoogle, req.TargetLang)) +
		"&q=" + url.QueryEscape(req.Text)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"?"+query, nil)
	if err != nil {
		return "", &tlproxy.ProviderError{Provider: "google", Message: "building request", Cause: err}
	}

	var resp googleResponse
	if err := doJSON(p.client, httpReq, "google", &resp); err != nil {
		return "", err
	}

	if len(resp.Data.Translations) == 0 {
		return "", &tlproxy.ProviderError{Provider: "google", Message: "no translations in response"}
	}

	return resp.Data.Translations[0].TranslatedText, nil
}

// Verify GoogleProvider implements Provider
var _ Provider = (*GoogleProvider)(nil)

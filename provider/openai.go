package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider translates single fragments through an OpenAI-compatible
// chat completion API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates one text fragment using OpenAI.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		pe := &tlproxy.ProviderError{
			Provider:  "openai",
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			pe.StatusCode = apiErr.HTTPStatusCode
			pe.Retryable = pe.Retryable || tlproxy.RetryableStatus(apiErr.HTTPStatusCode)
		}
		return "", pe
	}

	if len(resp.Choices) == 0 {
		return "", &tlproxy.ProviderError{
			Provider:  "openai",
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = tlproxy.DefaultLang
	}

	targetName := tlproxy.GetLanguageName(req.TargetLang)
	sourceName := tlproxy.GetLanguageName(sourceLang)

	prompt := fmt.Sprintf(`# Role
You are an expert native translator. You translate web page text from %s to %s with the fluency of a highly educated native speaker.

# Task
Translate the provided text fragment into idiomatic %s. The fragment is one text node taken from an HTML page, so it may be a partial sentence.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase to sound natural to a native speaker.
- **Markup Safety**: Do NOT translate HTML entities, URLs, email addresses, or code.
- **Interpolation**: Do NOT translate variables or placeholders (e.g., {{name}}, {count}, %%s, $1).
- **Formatting**: Preserve meaningful whitespace and use idiomatic punctuation for the target language.`, sourceName, targetName, targetName)

	if tlproxy.IsRTL(req.TargetLang) {
		prompt += "\n- **Direction**: The target language is written right-to-left; do not insert directional control characters."
	}

	prompt += `

# Format
Return a valid JSON object with a single key "translation" containing the translated string.
Example: { "translation": "translated text" }
- Do NOT wrap in Markdown code blocks.`

	return prompt
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	data, _ := json.Marshal(map[string]string{"text": req.Text})
	return string(data)
}

func (p *OpenAIProvider) parseResponse(content string) (string, error) {
	content = strings.TrimSpace(content)

	// Try parsing as object first
	var objResult map[string]any
	if err := json.Unmarshal([]byte(content), &objResult); err == nil {
		if s, ok := objResult["translation"].(string); ok {
			return s, nil
		}

		// Some models pick their own key. Only a single string value is
		// unambiguous.
		var found []string
		for _, v := range objResult {
			if s, ok := v.(string); ok {
				found = append(found, s)
			}
		}
		if len(found) == 1 {
			return found[0], nil
		}
		if len(found) > 1 {
			return "", &tlproxy.ProviderError{
				Provider: "openai",
				Message:  fmt.Sprintf("ambiguous response: %d string fields and no \"translation\" key", len(found)),
			}
		}
	}

	// Try parsing as a bare JSON string
	var strResult string
	if err := json.Unmarshal([]byte(content), &strResult); err == nil {
		return strResult, nil
	}

	return "", &tlproxy.ProviderError{
		Provider:  "openai",
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)

// Package config holds the process configuration. Values come from built-in
// defaults, then an optional YAML file, then TLPROXY_* environment
// variables; the command line applies its flags last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/processor"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TLPROXY_"

// ProviderConfig configures one translation provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Model   string `yaml:"model" env:"MODEL"` // OpenAI only
}

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Listen          string `yaml:"listen" env:"LISTEN"`
	DocRoot         string `yaml:"doc_root" env:"DOC_ROOT"`
	DefaultDocument string `yaml:"default_document" env:"DEFAULT_DOCUMENT"`

	// Links
	ScriptPath  string `yaml:"script_path" env:"SCRIPT_PATH"`
	PageParam   string `yaml:"page_param" env:"PAGE_PARAM"`
	LinkKeyword string `yaml:"link_keyword" env:"LINK_KEYWORD"`
	LinkSuffix  string `yaml:"link_suffix" env:"LINK_SUFFIX"`

	// Document handling
	CodeTag       string   `yaml:"code_tag" env:"CODE_TAG"`
	CodeSentinel  string   `yaml:"code_sentinel" env:"CODE_SENTINEL"`
	ScrubComments bool     `yaml:"scrub_comments" env:"SCRUB_COMMENTS"`
	Sanitize      bool     `yaml:"sanitize" env:"SANITIZE"`
	ProtectedTags []string `yaml:"protected_tags" env:"PROTECTED_TAGS" envSeparator:","`
	ToolbarLangs  []string `yaml:"toolbar_langs" env:"TOOLBAR_LANGS" envSeparator:","`
	SourceLang    string   `yaml:"source_lang" env:"SOURCE_LANG"`

	// Providers
	DeepL  ProviderConfig `yaml:"deepl" envPrefix:"DEEPL_"`
	Google ProviderConfig `yaml:"google" envPrefix:"GOOGLE_"`
	OpenAI ProviderConfig `yaml:"openai" envPrefix:"OPENAI_"`

	// Provider calls
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Concurrency       int           `yaml:"concurrency" env:"CONCURRENCY"`
	Retries           int           `yaml:"retries" env:"RETRIES"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	RedisURL          string        `yaml:"redis_url" env:"REDIS_URL"`

	// Server
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:          ":8080",
		DocRoot:         ".",
		DefaultDocument: "index.html",
		ScriptPath:      "/",
		PageParam:       "page",
		LinkKeyword:     "",
		LinkSuffix:      "",
		CodeTag:         processor.DefaultCodeTag,
		CodeSentinel:    processor.DefaultCodeSentinel,
		ProtectedTags:   []string{"script", "style"},
		ToolbarLangs:    []string{"en", "de", "fr", "es"},
		SourceLang:      "en",
		DeepL:           ProviderConfig{APIKey: "none"},
		Google:          ProviderConfig{APIKey: "none"},
		OpenAI:          ProviderConfig{APIKey: "none", Model: "gpt-4o-mini"},
		Timeout:         10 * time.Second,
		Concurrency:     1,
		Retries:         0,
		RequestTimeout:  60 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &tlproxy.ConfigError{Field: path, Message: err.Error()}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, &tlproxy.ConfigError{Field: "environment", Message: err.Error()}
	}

	return cfg, nil
}

// Validate checks the configuration. All problems are reported, joined.
func (c Config) Validate() error {
	var errs []error
	fail := func(field, msg string) {
		errs = append(errs, &tlproxy.ConfigError{Field: field, Message: msg})
	}

	if strings.TrimSpace(c.DocRoot) == "" {
		fail("doc_root", "must not be empty")
	}
	if strings.TrimSpace(c.DefaultDocument) == "" {
		fail("default_document", "must not be empty")
	}
	if !strings.HasPrefix(c.ScriptPath, "/") {
		fail("script_path", "must start with /")
	}
	if c.PageParam == "" || c.PageParam == "lang" {
		fail("page_param", `must be set and differ from "lang"`)
	}
	if c.CodeTag != "" && c.CodeSentinel == "" {
		fail("code_sentinel", "required when code_tag is set")
	}
	if c.Timeout <= 0 {
		fail("timeout", "must be positive")
	}
	if c.Concurrency < 1 {
		fail("concurrency", "must be at least 1")
	}
	if c.Retries < 0 {
		fail("retries", "must not be negative")
	}
	if c.RequestsPerMinute < 0 {
		fail("requests_per_minute", "must not be negative")
	}
	if c.RedisURL != "" && c.RequestsPerMinute == 0 {
		fail("requests_per_minute", "required when redis_url is set")
	}

	return errors.Join(errs...)
}

// Credentials returns the provider keys in the form the selector uses.
func (c Config) Credentials() tlproxy.Credentials {
	return tlproxy.Credentials{
		DeepLKey:  c.DeepL.APIKey,
		GoogleKey: c.Google.APIKey,
		OpenAIKey: c.OpenAI.APIKey,
	}
}

// RenderContext returns a context carrying the link and document settings.
// The per-request language fields are left for the caller.
func (c Config) RenderContext() tlproxy.RenderContext {
	return tlproxy.RenderContext{
		ScriptPath:    c.ScriptPath,
		PageParam:     c.PageParam,
		DocRoot:       c.LinkSuffix,
		LinkKeyword:   c.LinkKeyword,
		CodeSentinel:  c.CodeSentinel,
		ScrubComments: c.ScrubComments,
	}
}

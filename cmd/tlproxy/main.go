// Command tlproxy serves a directory of HTML pages translated on the fly.
// With -file it translates a single document and exits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/internal/config"
	"github.com/ZaguanLabs/tlproxy/internal/logger"
	"github.com/ZaguanLabs/tlproxy/internal/server"
	"github.com/ZaguanLabs/tlproxy/limiter"
	"github.com/ZaguanLabs/tlproxy/processor"
	"github.com/ZaguanLabs/tlproxy/provider"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = tlproxy.Version
	commit    = tlproxy.GitCommit
	buildDate = tlproxy.BuildDate
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// fileOptions are the flags that only apply with -file.
type fileOptions struct {
	path   string
	lang   string
	output string
	dryRun bool
	json   bool
	quiet  bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(tlproxy.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML configuration file")
	listen := fs.String("listen", "", "Address to listen on (overrides config)")
	root := fs.String("root", "", "Document root (overrides config)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logFormat := fs.String("log-format", "", "Log format: json or text (overrides config)")
	showVersion := fs.Bool("version", false, "Show version")

	var fo fileOptions
	fs.StringVar(&fo.path, "file", "", "Translate one HTML file ('-' for stdin) and exit")
	fs.StringVar(&fo.lang, "lang", "", "Target language for -file")
	fs.StringVar(&fo.output, "output", "", "Output file for -file (default: stdout)")
	fs.StringVar(&fo.output, "o", "", "Output file (short for -output)")
	fs.BoolVar(&fo.dryRun, "dry-run", false, "Show what would be translated without calling any provider")
	fs.BoolVar(&fo.json, "json", false, "Output -file results as JSON")
	fs.BoolVar(&fo.quiet, "quiet", false, "Suppress progress output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", tlproxy.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Flags given on the command line win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "root":
			cfg.DocRoot = *root
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(stderr, cfg.LogLevel, cfg.LogFormat, logger.RequestIDExtractor)
	if err != nil {
		return err
	}

	if fo.path != "" {
		return translateFile(ctx, cfg, log, fo, stdin, stdout, stderr)
	}
	return serve(ctx, cfg, log)
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	root, err := os.OpenRoot(cfg.DocRoot)
	if err != nil {
		return fmt.Errorf("opening document root: %w", err)
	}
	defer root.Close()

	translator, quota, err := newTranslator(cfg, log)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(log)}
	if quota != nil {
		defer quota.Close()
		opts = append(opts, server.WithHealthCheck("redis", quota.Ping))
	}

	log.Info("tlproxy starting",
		slog.String("version", tlproxy.FullVersion()),
		slog.String("doc_root", cfg.DocRoot),
		slog.String("script_path", cfg.ScriptPath),
		slog.Any("providers", enabledProviders(cfg.Credentials())))

	return server.New(cfg, translator, root.FS(), opts...).Run(ctx)
}

// newTranslator registers a client for every provider with a usable key.
// Each client is rate limited, shared across processes through Redis when
// configured, and retried on transient failures.
func newTranslator(cfg config.Config, log *slog.Logger) (*tlproxy.Translator, *limiter.RedisLimiter, error) {
	creds := cfg.Credentials()

	var quota *limiter.RedisLimiter
	if cfg.RedisURL != "" && cfg.RequestsPerMinute > 0 {
		var err error
		quota, err = limiter.NewRedisLimiter(limiter.RedisConfig{
			URL:    cfg.RedisURL,
			Limit:  cfg.RequestsPerMinute,
			Window: time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	wrap := func(kind tlproxy.ProviderKind, p tlproxy.Provider) tlproxy.Provider {
		if cfg.RequestsPerMinute > 0 {
			var l tlproxy.Limiter = tlproxy.NewRateLimiter(tlproxy.RateLimitConfig{
				RequestsPerMinute: cfg.RequestsPerMinute,
			})
			if quota != nil {
				l = quota.Scope(kind.String())
			}
			p = tlproxy.NewRateLimitedProvider(p, l)
		}
		if cfg.Retries > 0 {
			rc := tlproxy.DefaultRetryConfig()
			rc.MaxRetries = cfg.Retries
			p = tlproxy.NewRetryableProvider(p, rc)
		}
		return p
	}

	opts := []tlproxy.TranslatorOption{
		tlproxy.WithSourceLang(cfg.SourceLang),
		tlproxy.WithTimeout(cfg.Timeout),
		tlproxy.WithConcurrency(cfg.Concurrency),
		tlproxy.WithLogger(log),
	}
	if creds.Usable(tlproxy.ProviderDeepL) {
		opts = append(opts, tlproxy.WithClient(tlproxy.ProviderDeepL, wrap(tlproxy.ProviderDeepL,
			provider.NewDeepLProvider(provider.DeepLConfig{APIKey: cfg.DeepL.APIKey, BaseURL: cfg.DeepL.BaseURL}))))
	}
	if creds.Usable(tlproxy.ProviderGoogle) {
		opts = append(opts, tlproxy.WithClient(tlproxy.ProviderGoogle, wrap(tlproxy.ProviderGoogle,
			provider.NewGoogleProvider(provider.GoogleConfig{APIKey: cfg.Google.APIKey, BaseURL: cfg.Google.BaseURL}))))
	}
	if creds.Usable(tlproxy.ProviderOpenAI) {
		opts = append(opts, tlproxy.WithClient(tlproxy.ProviderOpenAI, wrap(tlproxy.ProviderOpenAI,
			provider.NewOpenAIProvider(provider.OpenAIConfig{
				APIKey:  cfg.OpenAI.APIKey,
				Model:   cfg.OpenAI.Model,
				BaseURL: cfg.OpenAI.BaseURL,
			}))))
	}

	return tlproxy.NewTranslator(creds, opts...), quota, nil
}

func enabledProviders(creds tlproxy.Credentials) []string {
	var names []string
	for _, kind := range []tlproxy.ProviderKind{tlproxy.ProviderDeepL, tlproxy.ProviderGoogle, tlproxy.ProviderOpenAI} {
		if creds.Usable(kind) {
			names = append(names, kind.String())
		}
	}
	return names
}

// fileRenderContext builds the context for -file mode. An empty lang
// passes the document through.
func fileRenderContext(cfg config.Config, lang string) tlproxy.RenderContext {
	rc := cfg.RenderContext()
	rc.TargetLang = strings.TrimSpace(lang)
	rc.ExplicitLang = rc.TargetLang != ""
	if rc.TargetLang == "" {
		rc.TargetLang = tlproxy.DefaultLang
	}
	return rc.Resolve(cfg.Credentials())
}

func translateFile(ctx context.Context, cfg config.Config, log *slog.Logger, fo fileOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	input, name, err := readInput(fo.path, stdin)
	if err != nil {
		return err
	}

	rc := fileRenderContext(cfg, fo.lang)
	doc := processor.MarkCodeBlocks(input, cfg.CodeTag, cfg.CodeSentinel)

	topts := []processor.Option{
		processor.WithProtectedTags(cfg.ProtectedTags...),
		processor.WithLogger(log),
	}
	if cfg.Sanitize {
		topts = append(topts, processor.WithSanitizer(nil))
	}

	if fo.dryRun {
		summary, err := processor.NewTransformer(nil, topts...).Inspect(strings.NewReader(doc), rc)
		if err != nil {
			return fmt.Errorf("inspecting document: %w", err)
		}
		return writeDryRun(stdout, name, rc, summary, fo.json)
	}

	translator, quota, err := newTranslator(cfg, log)
	if err != nil {
		return err
	}
	if quota != nil {
		defer quota.Close()
	}

	if !fo.quiet {
		fmt.Fprintf(stderr, "Translating %s to %s (%s)...\n", name, rc.ProviderLang, rc.Provider)
	}

	start := time.Now()
	var out strings.Builder
	res, err := processor.NewTransformer(translator, topts...).Transform(ctx, strings.NewReader(doc), rc, &out)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	var w io.Writer = stdout
	if fo.output != "" {
		f, err := os.Create(fo.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if fo.json {
		return outputJSON(w, out.String(), res, elapsed)
	}

	if _, err := io.WriteString(w, out.String()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if !fo.quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Fragments:   %d\n", res.Fragments)
		fmt.Fprintf(stderr, "  Translated:  %d\n", res.Translated)
		fmt.Fprintf(stderr, "  Protected:   %d\n", res.Protected)
		fmt.Fprintf(stderr, "  Links:       %d\n", res.LinksRewritten)
	}

	return nil
}

func readInput(path string, stdin io.Reader) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), path, nil
}

func writeDryRun(w io.Writer, name string, rc tlproxy.RenderContext, s *processor.Summary, jsonOut bool) error {
	if jsonOut {
		type dryRunOutput struct {
			InputFile string                    `json:"input_file"`
			Provider  string                    `json:"provider"`
			Lang      string                    `json:"lang"`
			Title     string                    `json:"title,omitempty"`
			Texts     []processor.InspectedText `json:"texts"`
			Links     []processor.InspectedLink `json:"links"`
			Protected int                       `json:"protected"`
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dryRunOutput{
			InputFile: name,
			Provider:  rc.Provider.String(),
			Lang:      rc.ProviderLang,
			Title:     s.Title,
			Texts:     s.Texts,
			Links:     s.Links,
			Protected: s.Protected,
		})
	}

	fmt.Fprintf(w, "Dry run: %s -> %s (%s)\n", name, rc.ProviderLang, rc.Provider)
	fmt.Fprintf(w, "Found %d translatable text nodes:\n\n", len(s.Texts))

	for i, t := range s.Texts {
		text := t.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		fmt.Fprintf(w, "%3d. %q\n", i+1, text)
		if t.Context != "" {
			fmt.Fprintf(w, "     Context: %s\n", t.Context)
		}
	}

	if len(s.Links) > 0 {
		fmt.Fprintf(w, "\nLinks:\n")
		for _, l := range s.Links {
			fmt.Fprintf(w, "  %s -> %s\n", l.Href, l.Rewritten)
		}
	}

	return nil
}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	Content        string `json:"content"`
	Provider       string `json:"provider"`
	Lang           string `json:"lang"`
	Fragments      int    `json:"fragments"`
	Translated     int    `json:"translated"`
	Protected      int    `json:"protected"`
	LinksRewritten int    `json:"links_rewritten"`
	ElapsedMs      int64  `json:"elapsed_ms"`
}

// outputJSON writes the result as JSON.
func outputJSON(w io.Writer, content string, res *processor.Result, elapsed time.Duration) error {
	out := JSONOutput{
		Content:        content,
		Provider:       res.Provider.String(),
		Lang:           res.Lang,
		Fragments:      res.Fragments,
		Translated:     res.Translated,
		Protected:      res.Protected,
		LinksRewritten: res.LinksRewritten,
		ElapsedMs:      elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

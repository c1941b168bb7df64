package processor

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/microcosm-cc/bluemonday"
)

// commentPlaceholder replaces every comment when scrubbing is enabled.
const commentPlaceholder = "<!-- -->"

// voidElements never have an end tag, so they never open a protected region.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// attrEscaper re-escapes attribute values of reserialized tags.
var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// Transformer rewrites HTML documents: text is translated, matching anchors
// are pointed back at the translating entry point and everything else is
// copied through unchanged. It holds no per-document state and is safe for
// concurrent use.
type Transformer struct {
	translator FragmentTranslator
	protected  map[string]bool
	sanitizer  *bluemonday.Policy
	logger     *slog.Logger
}

// Option is a functional option for configuring the Transformer.
type Option func(*Transformer)

// WithSanitizer passes every translated fragment through policy before it is
// written. A nil policy means bluemonday.StrictPolicy, which strips markup
// and escapes the text. Without this option translations are written as
// returned by the provider.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(t *Transformer) {
		if policy == nil {
			policy = bluemonday.StrictPolicy()
		}
		t.sanitizer = policy
	}
}

// WithProtectedTags replaces the set of elements whose content is never
// translated (default: tlproxy.IgnoredTags).
func WithProtectedTags(tags ...string) Option {
	return func(t *Transformer) {
		t.protected = make(map[string]bool, len(tags))
		for _, tag := range tags {
			t.protected[strings.ToLower(strings.TrimSpace(tag))] = true
		}
	}
}

// WithLogger sets the logger for per-document summaries.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTransformer creates a transformer that sends text to tr. A nil tr
// disables translation; links and comments are still rewritten.
func NewTransformer(tr FragmentTranslator, opts ...Option) *Transformer {
	t := &Transformer{
		translator: tr,
		protected:  tlproxy.IgnoredTags,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Result summarizes one Transform call.
type Result struct {
	Provider       tlproxy.ProviderKind
	Lang           string
	Fragments      int // Text fragments sent for translation
	Translated     int // Fragments whose output differs from the source
	Protected      int // Non-blank text events left alone inside protected regions
	LinksRewritten int
}

// piece is one output segment. frag >= 0 refers to a pending fragment.
type piece struct {
	text string
	frag int
}

type fragment struct {
	raw  string
	text string
}

// Transform reads a document from src and writes the rewritten document to
// w. rc must already be resolved (see tlproxy.RenderContext.Resolve).
//
// The html start tag and any DOCTYPE are dropped; the caller writes its own
// wrapper. Provider failures never fail the transform; only read and write
// errors are returned, as *tlproxy.ProcessorError.
func (t *Transformer) Transform(ctx context.Context, src io.Reader, rc RenderContext, w io.Writer) (*Result, error) {
	res := &Result{Provider: rc.Provider, Lang: rc.ProviderLang}
	translate := t.translator != nil && !rc.Passthrough()

	strip := func(s string) string {
		if rc.CodeSentinel == "" {
			return s
		}
		return strings.ReplaceAll(s, rc.CodeSentinel, "")
	}

	var (
		pieces    []piece
		frags     []fragment
		region    *protectedRegion
		lastStart string
	)
	emit := func(s string) {
		pieces = append(pieces, piece{text: s, frag: -1})
	}

	for ev, err := range Events(src) {
		if err != nil {
			return nil, err
		}

		prevStart := lastStart
		lastStart = ""

		switch ev.Kind {
		case StartTag:
			if ev.Name == "html" {
				continue
			}
			if region != nil && region.start(ev.Name) {
				region = nil
			}
			if region == nil && t.protects(ev) {
				region = &protectedRegion{name: ev.Name}
			}
			if !voidElements[ev.Name] {
				lastStart = ev.Name
			}
			emit(strip(t.startTag(ev, rc, res)))

		case EndTag:
			if region != nil && region.end(ev.Name) {
				region = nil
			}
			emit(strip(ev.Raw))

		case Text:
			marked := rc.CodeSentinel != "" && strings.Contains(ev.Raw, rc.CodeSentinel)
			switch {
			case marked:
				if region == nil && prevStart != "" {
					region = &protectedRegion{name: prevStart}
				}
				if strings.TrimSpace(strip(ev.Data)) != "" {
					res.Protected++
				}
				emit(strip(ev.Raw))
			case strings.TrimSpace(ev.Data) == "":
				emit(ev.Raw)
			case region != nil:
				res.Protected++
				emit(ev.Raw)
			case !translate:
				emit(ev.Raw)
			default:
				pieces = append(pieces, piece{frag: len(frags)})
				frags = append(frags, fragment{raw: ev.Raw, text: ev.Data})
			}

		case Declaration:
			if isDoctype(ev.Data) {
				continue
			}
			emit(strip(ev.Raw))

		case Comment:
			if rc.ScrubComments {
				emit(commentPlaceholder)
				continue
			}
			emit(strip(ev.Raw))

		default:
			// Self-closing tags are copied as written; their links are not rewritten.
			emit(strip(ev.Raw))
		}
	}

	var translated []string
	if len(frags) > 0 {
		texts := make([]string, len(frags))
		for i, f := range frags {
			texts[i] = f.text
		}
		translated = t.translator.TranslateAll(ctx, texts, rc.ProviderLang, rc.Provider)
		if len(translated) != len(texts) {
			t.logger.WarnContext(ctx, "translator returned wrong fragment count, keeping source text",
				slog.Int("expected", len(texts)),
				slog.Int("got", len(translated)))
			translated = texts
		}
		res.Fragments = len(frags)
	}

	bw := bufio.NewWriter(w)
	for _, p := range pieces {
		s := p.text
		if p.frag >= 0 {
			s = t.render(frags[p.frag], translated[p.frag], res)
		}
		if _, err := bw.WriteString(s); err != nil {
			return res, writeError(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return res, writeError(err)
	}

	t.logger.DebugContext(ctx, "document transformed",
		slog.String("provider", res.Provider.String()),
		slog.String("lang", res.Lang),
		slog.Int("fragments", res.Fragments),
		slog.Int("translated", res.Translated),
		slog.Int("protected", res.Protected),
		slog.Int("links", res.LinksRewritten))

	return res, nil
}

// render returns the output for one fragment. An untouched fragment keeps
// its source bytes, entities included.
func (t *Transformer) render(f fragment, out string, res *Result) string {
	if out == f.text {
		return f.raw
	}
	res.Translated++
	if t.sanitizer != nil {
		return t.sanitizer.Sanitize(out)
	}
	return out
}

func (t *Transformer) protects(ev Event) bool {
	if voidElements[ev.Name] {
		return false
	}
	if t.protected[ev.Name] {
		return true
	}
	_, ok := ev.Attr("data-no-translate")
	return ok
}

// startTag returns the output for a start tag: the source bytes, or a
// reserialized anchor when its href is rewritten.
func (t *Transformer) startTag(ev Event, rc RenderContext, res *Result) string {
	if ev.Name != "a" {
		return ev.Raw
	}
	href, ok := ev.Attr("href")
	if !ok || !ShouldRewrite(href, rc.LinkKeyword) {
		return ev.Raw
	}
	res.LinksRewritten++

	var b strings.Builder
	b.WriteString("<a")
	for _, a := range ev.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		if a.Key == "href" {
			b.WriteString(`="`)
			b.WriteString(strings.ReplaceAll(RewriteLink(a.Val, rc), `"`, "&quot;"))
			b.WriteByte('"')
			continue
		}
		if a.Val == "" {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

func isDoctype(data string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(data)), "DOCTYPE")
}

func writeError(err error) error {
	return &tlproxy.ProcessorError{
		Message:     "failed to write output",
		Cause:       err,
		ContentType: "html",
	}
}

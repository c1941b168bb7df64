package server

import (
	"bytes"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/processor"
	"golang.org/x/text/language"
)

// maxAcceptLanguageLength bounds the header before parsing.
const maxAcceptLanguageLength = 4096

// handlePage serves the document named by the page parameter.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.serveDocument(w, r, q.Get(s.cfg.PageParam), strings.TrimSpace(q.Get("lang")))
}

// handleFile serves HTML files and directories requested by path through
// the transformer and everything else as static content.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	switch ext := strings.ToLower(path.Ext(p)); {
	case strings.HasSuffix(p, "/"), ext == ".html", ext == ".htm":
		s.serveDocument(w, r, p, strings.TrimSpace(r.URL.Query().Get("lang")))
	default:
		http.FileServerFS(s.docs).ServeHTTP(w, r)
	}
}

func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, page, lang string) {
	ctx := r.Context()

	name, doc, err := s.loadDocument(page)
	if err != nil {
		s.logger.WarnContext(ctx, "default document unreadable",
			slog.String("document", s.cfg.DefaultDocument),
			slog.Any("error", err))
		http.NotFound(w, r)
		return
	}

	rc := s.renderContext(r, lang)

	outLang := tlproxy.DefaultLang
	if !rc.Passthrough() {
		outLang = rc.ProviderLang
	}
	htmlLang := tlproxy.ToHTMLLang(outLang)

	var body bytes.Buffer
	fmt.Fprintf(&body, "<!DOCTYPE html>\n<html lang=\"%s\" dir=\"%s\">\n",
		html.EscapeString(htmlLang), tlproxy.GetDirection(outLang))
	s.writeToolbar(&body, name, rc)

	src := strings.NewReader(processor.MarkCodeBlocks(doc, s.cfg.CodeTag, s.cfg.CodeSentinel))
	if _, err := s.transformer.Transform(ctx, src, rc, &body); err != nil {
		s.logger.ErrorContext(ctx, "transform failed",
			slog.String("document", name),
			slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", htmlLang)
	w.Header().Add("Vary", "Accept-Language")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

// renderContext builds the request's RenderContext from one parse of the
// query and headers, with the provider already selected.
func (s *Server) renderContext(r *http.Request, lang string) tlproxy.RenderContext {
	rc := s.cfg.RenderContext()
	rc.ExplicitLang = lang != ""
	rc.TargetLang = lang
	if rc.TargetLang == "" {
		rc.TargetLang = tlproxy.DefaultLang
	}
	rc.AcceptLang = acceptLanguage(r.Header.Get("Accept-Language"))
	// Links must keep the language the visitor is reading.
	rc.TargetLang = rc.EffectiveLang()
	return rc.Resolve(s.creds)
}

// loadDocument reads the requested page, falling back to the default
// document when the page is missing or invalid.
func (s *Server) loadDocument(page string) (string, string, error) {
	if name, ok := s.resolvePage(page); ok {
		if data, err := fs.ReadFile(s.docs, name); err == nil {
			return name, string(data), nil
		}
	}

	data, err := fs.ReadFile(s.docs, s.cfg.DefaultDocument)
	if err != nil {
		return "", "", err
	}
	return s.cfg.DefaultDocument, string(data), nil
}

// resolvePage maps a page parameter to a file name inside the document
// root. Directories resolve to their default document.
func (s *Server) resolvePage(page string) (string, bool) {
	page = strings.TrimSpace(page)
	if page == "" {
		return "", false
	}

	name := strings.TrimPrefix(path.Clean("/"+page), "/")
	if name == "" {
		return s.cfg.DefaultDocument, true
	}
	if info, err := fs.Stat(s.docs, name); err == nil && info.IsDir() {
		name = path.Join(name, s.cfg.DefaultDocument)
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// acceptLanguage returns the most preferred tag of an Accept-Language
// header, or "" when there is none.
func acceptLanguage(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	for _, tag := range tags {
		if tag != language.Und {
			return tag.String()
		}
	}
	return ""
}

package server

import (
	"bytes"
	"html"
	"strings"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/processor"
)

// writeToolbar writes the language switcher for page. The current language
// is marked with aria-current.
func (s *Server) writeToolbar(b *bytes.Buffer, page string, rc tlproxy.RenderContext) {
	if len(s.cfg.ToolbarLangs) == 0 {
		return
	}

	current := tlproxy.BaseLang(rc.TargetLang)
	if !rc.Passthrough() {
		current = tlproxy.BaseLang(rc.ProviderLang)
	}

	// Toolbar links point at the page itself, without the link suffix.
	link := rc
	link.DocRoot = ""

	b.WriteString(`<nav class="tlproxy-toolbar" data-no-translate>`)
	first := true
	for _, code := range s.cfg.ToolbarLangs {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if !first {
			b.WriteString(" | ")
		}
		first = false

		link.TargetLang = code
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(processor.RewriteLink(page, link)))
		b.WriteString(`" hreflang="`)
		b.WriteString(html.EscapeString(tlproxy.ToHTMLLang(code)))
		b.WriteByte('"')
		if tlproxy.BaseLang(code) == current {
			b.WriteString(` aria-current="true"`)
		}
		b.WriteByte('>')
		b.WriteString(html.EscapeString(tlproxy.GetLanguageName(code)))
		b.WriteString("</a>")
	}
	b.WriteString("</nav>\n")
}

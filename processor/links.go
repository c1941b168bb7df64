package processor

import "strings"

// ShouldRewrite reports whether an anchor's href is sent back through the
// translating entry point: the site root, or any href containing keyword.
// An empty keyword matches only the root.
func ShouldRewrite(href, keyword string) bool {
	if href == "/" {
		return true
	}
	return keyword != "" && strings.Contains(href, keyword)
}

// RewriteLink builds the self-referential URL for href. The result is not
// validated and DocRoot is appended directly to href:
//
//	RewriteLink("posts/a.html", rc) == "/app.cgi?page=posts/a.htmlindex.html&lang=fr"
func RewriteLink(href string, rc RenderContext) string {
	return rc.ScriptPath + "?" + rc.PageParam + "=" + href + rc.DocRoot + "&lang=" + rc.TargetLang
}

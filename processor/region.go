package processor

// closesP lists the start tags that end an open <p>.
var closesP = set("address", "article", "aside", "blockquote", "details", "dialog",
	"div", "dl", "fieldset", "figcaption", "figure", "footer", "form", "h1", "h2",
	"h3", "h4", "h5", "h6", "header", "hgroup", "hr", "main", "menu", "nav", "ol",
	"p", "pre", "section", "table", "ul")

// impliedEnds maps elements whose end tag may be omitted to the start tags
// that close them, following the HTML parsing rules.
var impliedEnds = map[string]map[string]bool{
	"p":        closesP,
	"li":       set("li"),
	"dt":       set("dt", "dd"),
	"dd":       set("dt", "dd"),
	"option":   set("option", "optgroup"),
	"optgroup": set("optgroup"),
	"tr":       set("tr"),
	"td":       set("td", "th", "tr"),
	"th":       set("td", "th", "tr"),
	"thead":    set("tbody", "tfoot"),
	"tbody":    set("tbody", "tfoot"),
	"rt":       set("rt", "rp"),
	"rp":       set("rt", "rp"),
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// protectedRegion tracks the outermost element whose content is never
// translated. Elements opened inside it are kept on a stack so that end
// tags, including implied ones, are matched the way a parser would.
type protectedRegion struct {
	name string
	open []string
}

// start records a start tag inside the region and reports whether it
// implicitly closed the protected element itself.
func (r *protectedRegion) start(name string) bool {
	current := r.name
	if n := len(r.open); n > 0 {
		current = r.open[n-1]
	}
	if impliedEnds[current][name] {
		if len(r.open) == 0 {
			return true
		}
		r.open = r.open[:len(r.open)-1]
	}
	if !voidElements[name] {
		r.open = append(r.open, name)
	}
	return false
}

// end records an end tag and reports whether it closed the protected
// element. An unmatched end tag closes an element with an optional end
// tag, since it can only belong to an ancestor.
func (r *protectedRegion) end(name string) bool {
	for i := len(r.open) - 1; i >= 0; i-- {
		if r.open[i] == name {
			r.open = r.open[:i]
			return false
		}
	}
	if name == r.name {
		return true
	}
	_, optional := impliedEnds[r.name]
	return optional
}

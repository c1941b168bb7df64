package processor

import (
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/ZaguanLabs/tlproxy"
	"golang.org/x/net/html"
)

// EventKind classifies a document event.
type EventKind int

const (
	StartTag EventKind = iota
	EndTag
	SelfClosingTag
	Text
	Declaration
	ProcessingInstruction
	Comment
	UnknownDeclaration
)

func (k EventKind) String() string {
	switch k {
	case StartTag:
		return "start_tag"
	case EndTag:
		return "end_tag"
	case SelfClosingTag:
		return "self_closing_tag"
	case Text:
		return "text"
	case Declaration:
		return "declaration"
	case ProcessingInstruction:
		return "processing_instruction"
	case Comment:
		return "comment"
	case UnknownDeclaration:
		return "unknown_declaration"
	default:
		return "unknown"
	}
}

// Attr is one tag attribute, value unescaped.
type Attr struct {
	Key string
	Val string
}

// Event is one lexical item of a document.
//
// Raw always holds the exact source bytes, so concatenating the Raw of every
// event reproduces the input. Name is the lower-case tag name for tag events.
// Data is the unescaped text for Text, the comment body for Comment, and the
// bytes between the delimiters for the declaration kinds.
type Event struct {
	Kind  EventKind
	Name  string
	Attrs []Attr
	Data  string
	Raw   string
}

// Attr returns the value of the named attribute.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Events tokenizes r lazily. The sequence stops at end of input; a read
// error is yielded once as a *tlproxy.ProcessorError and ends the sequence.
func Events(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		z := html.NewTokenizer(r)
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				if err := z.Err(); !errors.Is(err, io.EOF) {
					yield(Event{}, &tlproxy.ProcessorError{
						Message:     "failed to tokenize HTML",
						Cause:       err,
						ContentType: "html",
					})
				}
				return
			}

			// Copy before Token(): TagName lower-cases the buffer in place.
			raw := string(z.Raw())
			if !yield(newEvent(tt, z.Token(), raw), nil) {
				return
			}
		}
	}
}

var tagKinds = map[html.TokenType]EventKind{
	html.StartTagToken:       StartTag,
	html.EndTagToken:         EndTag,
	html.SelfClosingTagToken: SelfClosingTag,
}

func newEvent(tt html.TokenType, tok html.Token, raw string) Event {
	ev := Event{Raw: raw}

	switch tt {
	case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
		ev.Kind = tagKinds[tt]
		ev.Name = tok.Data
		if len(tok.Attr) > 0 {
			ev.Attrs = make([]Attr, len(tok.Attr))
			for i, a := range tok.Attr {
				ev.Attrs[i] = Attr{Key: a.Key, Val: a.Val}
			}
		}
	case html.TextToken:
		ev.Kind = Text
		ev.Data = tok.Data
	case html.DoctypeToken:
		ev.Kind = Declaration
		ev.Data = between(raw, "<!")
	case html.CommentToken:
		ev.Kind, ev.Data = classifyComment(raw, tok.Data)
	}

	return ev
}

// classifyComment splits what the tokenizer reports as comments back into
// the markup forms they came from.
func classifyComment(raw, body string) (EventKind, string) {
	switch {
	case strings.HasPrefix(raw, "<!--"):
		return Comment, body
	case strings.HasPrefix(raw, "<?"):
		return ProcessingInstruction, between(raw, "<?")
	case strings.HasPrefix(raw, "<!["):
		return UnknownDeclaration, between(raw, "<!")
	case strings.HasPrefix(raw, "<!"):
		return Declaration, between(raw, "<!")
	default:
		return UnknownDeclaration, between(raw, raw[:min(2, len(raw))])
	}
}

func between(raw, open string) string {
	return strings.TrimSuffix(strings.TrimPrefix(raw, open), ">")
}

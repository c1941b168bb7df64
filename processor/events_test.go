package processor

import (
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/tlproxy"
)

func collect(t *testing.T, input string) []Event {
	t.Helper()
	var events []Event
	for ev, err := range Events(strings.NewReader(input)) {
		if err != nil {
			t.Fatalf("Events failed: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func TestEvents_Kinds(t *testing.T) {
	input := `<!DOCTYPE html><html lang="en"><head><?xml-stylesheet href="a.css"?></head>` +
		`<body><!-- note --><p class="x">Fish &amp; Chips</p><br/><![CDATA[raw]]></body></html>`

	events := collect(t, input)

	want := []struct {
		kind EventKind
		name string
		data string
	}{
		{Declaration, "", "DOCTYPE html"},
		{StartTag, "html", ""},
		{StartTag, "head", ""},
		{ProcessingInstruction, "", `xml-stylesheet href="a.css"?`},
		{EndTag, "head", ""},
		{StartTag, "body", ""},
		{Comment, "", " note "},
		{StartTag, "p", ""},
		{Text, "", "Fish & Chips"},
		{EndTag, "p", ""},
		{SelfClosingTag, "br", ""},
		{UnknownDeclaration, "", "[CDATA[raw]]"},
		{EndTag, "body", ""},
		{EndTag, "html", ""},
	}

	if len(events) != len(want) {
		for _, ev := range events {
			t.Logf("%s %q %q", ev.Kind, ev.Name, ev.Raw)
		}
		t.Fatalf("Expected %d events, got %d", len(want), len(events))
	}

	for i, w := range want {
		ev := events[i]
		if ev.Kind != w.kind {
			t.Errorf("event %d: kind = %s, want %s", i, ev.Kind, w.kind)
		}
		if ev.Name != w.name {
			t.Errorf("event %d: name = %q, want %q", i, ev.Name, w.name)
		}
		if w.data != "" && ev.Data != w.data {
			t.Errorf("event %d: data = %q, want %q", i, ev.Data, w.data)
		}
	}

	if v, ok := events[7].Attr("class"); !ok || v != "x" {
		t.Errorf("Expected class=x on <p>, got %q, %v", v, ok)
	}
	if events[8].Raw != "Fish &amp; Chips" {
		t.Errorf("Text Raw should keep entities, got %q", events[8].Raw)
	}
}

func TestEvents_RawReproducesInput(t *testing.T) {
	inputs := []string{
		`<DIV CLASS="Main" data-x='1'>Hello <B>World</B></DIV>`,
		"<ul>\n  <li>One</li>\n  <li>Two &nbsp; three</li>\n</ul>\n",
		`<script>if (a < b && c > d) { x = "<p>"; }</script><style>p > a { color: red }</style>`,
		`<p>unclosed <i>tags<p>and a stray </span> end`,
		`<!-- unterminated comment`,
		`plain text only`,
	}

	for _, input := range inputs {
		var b strings.Builder
		for _, ev := range collect(t, input) {
			b.WriteString(ev.Raw)
		}
		if b.String() != input {
			t.Errorf("Raw concatenation mismatch\n got: %q\nwant: %q", b.String(), input)
		}
	}
}

func TestEvents_NamesAreLowerCase(t *testing.T) {
	events := collect(t, `<DIV CLASS="A"></DIV>`)

	if events[0].Name != "div" || events[1].Name != "div" {
		t.Errorf("Expected lower-case names, got %q and %q", events[0].Name, events[1].Name)
	}
	if events[0].Raw != `<DIV CLASS="A">` {
		t.Errorf("Raw should keep source casing, got %q", events[0].Raw)
	}
	if v, ok := events[0].Attr("class"); !ok || v != "A" {
		t.Errorf("Expected class attribute, got %q", v)
	}
}

func TestEvents_StopEarly(t *testing.T) {
	count := 0
	for range Events(strings.NewReader(`<p>a</p><p>b</p><p>c</p>`)) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("Expected to stop after 2 events, got %d", count)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestEvents_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")

	var gotErr error
	for _, err := range Events(errReader{err: boom}) {
		if err != nil {
			gotErr = err
		}
	}

	var pe *tlproxy.ProcessorError
	if !errors.As(gotErr, &pe) {
		t.Fatalf("Expected *ProcessorError, got %v", gotErr)
	}
	if !errors.Is(gotErr, boom) {
		t.Errorf("Expected cause to be preserved, got %v", gotErr)
	}
}

func TestClassifyComment(t *testing.T) {
	tests := []struct {
		raw      string
		body     string
		wantKind EventKind
		wantData string
	}{
		{"<!-- hi -->", " hi ", Comment, " hi "},
		{"<?php echo 1 ?>", "", ProcessingInstruction, "php echo 1 ?"},
		{"<![if IE]>", "", UnknownDeclaration, "[if IE]"},
		{"<!ELEMENT br EMPTY>", "", Declaration, "ELEMENT br EMPTY"},
		{"</3>", "", UnknownDeclaration, "3"},
	}

	for _, tt := range tests {
		kind, data := classifyComment(tt.raw, tt.body)
		if kind != tt.wantKind || data != tt.wantData {
			t.Errorf("classifyComment(%q) = %s %q, want %s %q", tt.raw, kind, data, tt.wantKind, tt.wantData)
		}
	}
}

func TestEventKind_String(t *testing.T) {
	if StartTag.String() != "start_tag" {
		t.Errorf("StartTag.String() = %q", StartTag.String())
	}
	if EventKind(99).String() != "unknown" {
		t.Errorf("EventKind(99).String() = %q", EventKind(99).String())
	}
}

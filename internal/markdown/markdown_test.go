package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	html := ToHTML([]byte("## Heading\n\nSome **bold** prose."))
	if !strings.Contains(html, "<h2") {
		t.Errorf("expected an h2 element, got %q", html)
	}
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("expected bold markup, got %q", html)
	}
}

func TestToPlainText_StripsDecoration(t *testing.T) {
	md := "## Heading\n\n> **TL;DR** quoted\n\n- item one\n- item two\n\nProse with *emphasis*."
	plain := ToPlainText([]byte(md))

	for _, marker := range []string{"##", "**", ">", "<", "*"} {
		if strings.Contains(plain, marker) {
			t.Errorf("plain text still contains %q: %q", marker, plain)
		}
	}
	for _, word := range []string{"Heading", "TL;DR", "item one", "emphasis"} {
		if !strings.Contains(plain, word) {
			t.Errorf("plain text lost %q: %q", word, plain)
		}
	}
}

func TestStripHTMLTags(t *testing.T) {
	got := StripHTMLTags(`<p>hello <a href="x">world</a></p>`)
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
}

// Package sanitize turns model output into plain text for chat clients that
// do not render markdown.
package sanitize

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	// Only real HTML elements are stripped; anything else that merely looks
	// like a tag ("x<y>") is kept as typed.
	htmlTagRe = regexp.MustCompile(`(?i)^</?(a|abbr|b|blockquote|br|code|del|details|div|em|h[1-6]|hr|i|img|ins|kbd|li|mark|ol|p|pre|s|script|small|span|strong|style|sub|summary|sup|table|tbody|td|th|thead|tr|u|ul)(\s|/?>)`)
	brTagRe   = regexp.MustCompile(`(?i)^<br\s*/?>$`)

	blankRunsRe = regexp.MustCompile(`\n\s*\n+`)
)

// Policy represents a sanitization policy for text content
type Policy struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewPlainTextPolicy creates a Policy that strips HTML and markdown.
func NewPlainTextPolicy() *Policy {
	return &Policy{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// PlainText parses markdown and writes back only its text. Paragraphs and
// list items keep their line structure, ordered lists keep their numbers and
// links keep their target as "text (url)". Emphasis between ASCII letters or
// digits ("2*3*4") and tag-like text that is not HTML are left untouched.
func (p *Policy) PlainText(s string) string {
	if s == "" {
		return ""
	}

	src := []byte(s)
	doc := p.markdown.Parser().Parse(text.NewReader(src))

	w := &plainWriter{src: src, policy: p.policy}
	w.blocks(doc, "")

	out := blankRunsRe.ReplaceAllString(w.buf.String(), "\n\n")
	return strings.TrimSpace(out)
}

type plainWriter struct {
	src    []byte
	policy *bluemonday.Policy
	buf    strings.Builder
}

func (w *plainWriter) blocks(parent ast.Node, indent string) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, indent)
	}
}

func (w *plainWriter) block(n ast.Node, indent string) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.Heading:
		w.inlines(n)
		w.buf.WriteString("\n\n")
	case *ast.TextBlock:
		w.inlines(n)
		w.buf.WriteString("\n")
	case *ast.List:
		w.list(n, indent)
		w.buf.WriteString("\n")
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		w.lines(n.Lines())
		w.buf.WriteString("\n")
	case *ast.HTMLBlock:
		var raw strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			raw.Write(seg.Value(w.src))
		}
		if n.HasClosure() {
			raw.Write(n.ClosureLine.Value(w.src))
		}
		w.buf.WriteString(w.html(strings.TrimSpace(raw.String())))
		w.buf.WriteString("\n\n")
	case *ast.ThematicBreak:
		w.buf.WriteString("\n")
	default:
		w.blocks(n, indent)
	}
}

func (w *plainWriter) list(l *ast.List, indent string) {
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		w.buf.WriteString(indent)
		if l.IsOrdered() {
			fmt.Fprintf(&w.buf, "%d%c ", num, l.Marker)
			num++
		} else {
			w.buf.WriteString("- ")
		}
		w.blocks(item, indent+"  ")
	}
}

func (w *plainWriter) lines(lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.buf.Write(seg.Value(w.src))
	}
}

func (w *plainWriter) inlines(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.inline(n)
	}
}

func (w *plainWriter) inline(n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		if n.IsRaw() {
			w.buf.Write(n.Segment.Value(w.src))
		} else {
			w.text(n.Segment.Value(w.src))
		}
		if n.SoftLineBreak() || n.HardLineBreak() {
			w.buf.WriteByte('\n')
		}
	case *ast.String:
		if n.IsCode() || n.IsRaw() {
			w.buf.Write(n.Value)
		} else {
			w.text(n.Value)
		}
	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				w.buf.WriteString(strings.ReplaceAll(string(t.Segment.Value(w.src)), "\n", " "))
			}
		}
	case *ast.Emphasis:
		w.emphasis(n)
	case *ast.Link:
		start := w.buf.Len()
		w.inlines(n)
		label := w.buf.String()[start:]
		if dest := string(n.Destination); dest != "" && dest != label {
			fmt.Fprintf(&w.buf, " (%s)", dest)
		}
	case *ast.AutoLink:
		w.buf.Write(n.Label(w.src))
	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			raw.Write(seg.Value(w.src))
		}
		w.buf.WriteString(w.html(raw.String()))
	default:
		w.inlines(n)
	}
}

// text writes markdown text with backslash escapes and entities resolved.
func (w *plainWriter) text(b []byte) {
	b = util.UnescapePunctuations(b)
	b = util.ResolveNumericReferences(b)
	b = util.ResolveEntityNames(b)
	w.buf.Write(b)
}

// emphasis drops the delimiters unless they sit between ASCII letters or
// digits on every side, which is arithmetic or an identifier, not styling.
func (w *plainWriter) emphasis(n *ast.Emphasis) {
	delim := w.intraword(n)
	w.buf.WriteString(delim)
	w.inlines(n)
	w.buf.WriteString(delim)
}

func (w *plainWriter) intraword(n *ast.Emphasis) string {
	first, ok1 := n.FirstChild().(*ast.Text)
	last, ok2 := n.LastChild().(*ast.Text)
	if !ok1 || !ok2 {
		return ""
	}

	open := first.Segment.Start - n.Level
	end := last.Segment.Stop + n.Level
	if open < 1 || end >= len(w.src) || first.Segment.Start >= last.Segment.Stop {
		return ""
	}

	d := w.src[open]
	if d != '*' && d != '_' || w.src[end-1] != d {
		return ""
	}
	for _, c := range []byte{w.src[open-1], w.src[first.Segment.Start], w.src[last.Segment.Stop-1], w.src[end]} {
		if !isASCIIAlnum(c) {
			return ""
		}
	}
	return strings.Repeat(string(d), n.Level)
}

func isASCIIAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// html strips real HTML with the strict policy and keeps everything else.
func (w *plainWriter) html(raw string) string {
	if !htmlTagRe.MatchString(raw) {
		return raw
	}
	if brTagRe.MatchString(raw) {
		return "\n"
	}
	return html.UnescapeString(w.policy.Sanitize(raw))
}

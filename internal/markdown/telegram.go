// Package markdown converts Markdown into the restricted HTML subset that
// Telegram accepts for message bodies.
package markdown

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// allowedTags is the raw-HTML passthrough allow-list. Tags outside this set
// are escaped so user content cannot inject markup Telegram rejects.
var allowedTags = map[string]bool{
	"a": true, "u": true, "s": true, "b": true, "i": true,
	"strong": true, "em": true, "tg-spoiler": true, "ins": true,
	"strike": true, "del": true, "span": true, "code": true,
	"pre": true, "blockquote": true,
}

var (
	spoilerRe = regexp.MustCompile(`\|\|(.+?)\|\|`)
	tagRe     = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9-]*)[^>]*>`)
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Convert renders Markdown as Telegram-safe HTML. It is total: malformed
// input never panics, empty input yields an empty string.
func Convert(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	c := &converter{source: source}
	var b strings.Builder
	c.renderChildren(&b, doc, renderContext{})

	return strings.TrimRight(b.String(), "\n")
}

// renderContext tracks where in the tree we are. Inside code no inline
// formatting or spoiler substitution is applied; inside a list block
// separators are suppressed.
type renderContext struct {
	inCode bool
	inList bool
}

type converter struct {
	source []byte
}

func (c *converter) renderChildren(b *strings.Builder, n ast.Node, ctx renderContext) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		c.renderNode(b, child, ctx)
	}
}

func (c *converter) renderNode(b *strings.Builder, n ast.Node, ctx renderContext) {
	switch node := n.(type) {
	case *ast.Heading, *ast.Paragraph:
		// Telegram has no heading concept; both render as a text block.
		c.renderChildren(b, n, ctx)
		if !ctx.inList {
			b.WriteString("\n\n")
		}

	case *ast.TextBlock:
		c.renderChildren(b, n, ctx)

	case *ast.Text:
		c.writeText(b, node, ctx)

	case *ast.String:
		b.WriteString(c.escapeText(string(node.Value), ctx))

	case *ast.CodeSpan:
		if ctx.inCode {
			c.renderChildren(b, n, ctx)
			return
		}
		b.WriteString("<code>")
		c.renderChildren(b, n, renderContext{inCode: true, inList: ctx.inList})
		b.WriteString("</code>")

	case *ast.Emphasis:
		if ctx.inCode {
			c.renderChildren(b, n, ctx)
			return
		}
		tag := "i"
		if node.Level == 2 {
			tag = "b"
		}
		b.WriteString("<" + tag + ">")
		c.renderChildren(b, n, ctx)
		b.WriteString("</" + tag + ">")

	case *east.Strikethrough:
		if ctx.inCode {
			c.renderChildren(b, n, ctx)
			return
		}
		b.WriteString("<s>")
		c.renderChildren(b, n, ctx)
		b.WriteString("</s>")

	case *ast.FencedCodeBlock:
		c.renderCodeBlock(b, n, string(node.Language(c.source)))

	case *ast.CodeBlock:
		c.renderCodeBlock(b, n, "")

	case *ast.Blockquote:
		var inner strings.Builder
		c.renderChildren(&inner, n, renderContext{inCode: ctx.inCode})
		b.WriteString("<blockquote>")
		b.WriteString(strings.TrimSpace(inner.String()))
		b.WriteString("</blockquote>\n\n")

	case *ast.List:
		c.renderList(b, node, ctx)

	case *ast.Link:
		b.WriteString(`<a href="` + escapeURL(string(node.Destination)) + `">`)
		c.renderChildren(b, n, ctx)
		b.WriteString("</a>")

	case *ast.AutoLink:
		url := string(node.URL(c.source))
		b.WriteString(`<a href="` + escapeURL(url) + `">`)
		b.WriteString(html.EscapeString(string(node.Label(c.source))))
		b.WriteString("</a>")

	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			raw.Write(seg.Value(c.source))
		}
		b.WriteString(sanitizeRawHTML(raw.String()))

	case *ast.HTMLBlock:
		var raw strings.Builder
		for i := 0; i < node.Lines().Len(); i++ {
			seg := node.Lines().At(i)
			raw.Write(seg.Value(c.source))
		}
		if node.HasClosure() {
			raw.Write(node.ClosureLine.Value(c.source))
		}
		b.WriteString(sanitizeRawHTML(raw.String()))
		b.WriteString("\n")

	case *ast.ThematicBreak:
		b.WriteString("\n")

	default:
		// Unknown node kinds (tables and friends) degrade to their
		// children so conversion always completes.
		c.renderChildren(b, n, ctx)
	}
}

func (c *converter) renderCodeBlock(b *strings.Builder, n ast.Node, language string) {
	if language != "" {
		b.WriteString(`<pre><code class="language-` + html.EscapeString(language) + `">`)
	} else {
		b.WriteString("<pre><code>")
	}
	for i := 0; i < n.Lines().Len(); i++ {
		seg := n.Lines().At(i)
		// Code text is escaped only; spoiler markers inside code stay literal.
		b.WriteString(html.EscapeString(string(seg.Value(c.source))))
	}
	b.WriteString("</code></pre>\n\n")
}

func (c *converter) renderList(b *strings.Builder, list *ast.List, ctx renderContext) {
	itemCtx := renderContext{inCode: ctx.inCode, inList: true}

	index := 0
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if list.IsOrdered() {
			b.WriteString(strconv.Itoa(list.Start+index) + ". ")
		} else {
			b.WriteString("• ")
		}
		c.renderChildren(b, item, itemCtx)
		b.WriteString("\n")
		index++
	}

	if !ctx.inList {
		b.WriteString("\n")
	}
}

func (c *converter) writeText(b *strings.Builder, node *ast.Text, ctx renderContext) {
	value := string(node.Segment.Value(c.source))
	b.WriteString(c.escapeText(value, ctx))

	if node.HardLineBreak() || node.SoftLineBreak() {
		b.WriteString("\n")
	}
}

// escapeText HTML-escapes raw text, then applies spoiler substitution when
// outside code. Running substitution after escaping means typed entities
// cannot forge spoiler markup.
func (c *converter) escapeText(value string, ctx renderContext) string {
	escaped := html.EscapeString(value)
	if ctx.inCode {
		return escaped
	}
	return spoilerRe.ReplaceAllString(escaped, "<tg-spoiler>$1</tg-spoiler>")
}

// sanitizeRawHTML passes through allow-listed tags and escapes everything
// else, including tags with names outside the allow-list.
func sanitizeRawHTML(raw string) string {
	var b strings.Builder
	last := 0

	for _, loc := range tagRe.FindAllStringSubmatchIndex(raw, -1) {
		b.WriteString(html.EscapeString(raw[last:loc[0]]))
		tag := raw[loc[0]:loc[1]]
		name := strings.ToLower(raw[loc[2]:loc[3]])
		if allowedTags[name] {
			b.WriteString(tag)
		} else {
			b.WriteString(html.EscapeString(tag))
		}
		last = loc[1]
	}
	b.WriteString(html.EscapeString(raw[last:]))

	return b.String()
}

// escapeURL percent-encodes a link destination the way encodeURI does,
// then escapes it for use inside an HTML attribute.
func escapeURL(raw string) string {
	const safe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789;,/?:@&=+$-_.!~*'()#%"

	var b strings.Builder
	for _, c := range []byte(raw) {
		if strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
		} else {
			b.WriteString("%" + upperHex(c))
		}
	}

	return html.EscapeString(b.String())
}

func upperHex(c byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{hex[c>>4], hex[c&0x0f]})
}

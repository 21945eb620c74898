package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertInlineFormatting(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bold", "**bold**", "<b>bold</b>"},
		{"italic", "*italic*", "<i>italic</i>"},
		{"strikethrough", "~~gone~~", "<s>gone</s>"},
		{"inline code", "`x := 1`", "<code>x := 1</code>"},
		{"empty input", "", ""},
		{"whitespace only", "   \n  ", ""},
		{"plain paragraph", "hello world", "hello world"},
		{"escapes angle brackets", "a < b > c", "a &lt; b &gt; c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Convert(tt.input))
		})
	}
}

func TestConvertHeadingsAsText(t *testing.T) {
	got := Convert("# Title\n\nbody")
	assert.Equal(t, "Title\n\nbody", got)
}

func TestConvertFencedCodeBlock(t *testing.T) {
	got := Convert("```go\nfmt.Println(\"hi\")\n```")
	assert.Equal(t, "<pre><code class=\"language-go\">fmt.Println(&#34;hi&#34;)\n</code></pre>", got)
}

func TestConvertCodeBlockNoSpoilerSubstitution(t *testing.T) {
	got := Convert("```\n||not a spoiler||\n```")
	assert.Contains(t, got, "||not a spoiler||")
	assert.NotContains(t, got, "tg-spoiler")
}

func TestConvertInlineCodeSuppressesFormatting(t *testing.T) {
	got := Convert("`**literal** ||x||`")
	assert.Equal(t, "<code>**literal** ||x||</code>", got)
}

func TestConvertSpoiler(t *testing.T) {
	got := Convert("before ||secret|| after")
	assert.Equal(t, "before <tg-spoiler>secret</tg-spoiler> after", got)
}

func TestConvertBlockquote(t *testing.T) {
	got := Convert("> quoted text")
	assert.Equal(t, "<blockquote>quoted text</blockquote>", got)
}

func TestConvertUnorderedList(t *testing.T) {
	got := Convert("- one\n- two")
	assert.Equal(t, "• one\n• two", got)
}

func TestConvertOrderedListRespectsStart(t *testing.T) {
	got := Convert("3. three\n4. four")
	assert.Equal(t, "3. three\n4. four", got)
}

func TestConvertLink(t *testing.T) {
	got := Convert("[text](https://example.com/café)")
	assert.Contains(t, got, `<a href="https://example.com/caf%C3%A9">text</a>`)
}

func TestConvertRawHTMLAllowList(t *testing.T) {
	got := Convert("a <b>bold</b> and <script>alert(1)</script>")
	assert.Contains(t, got, "<b>bold</b>")
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
}

func TestConvertNeverPanics(t *testing.T) {
	inputs := []string{
		"[unclosed link(",
		"```\nunclosed fence",
		"****",
		"|| ||",
		strings.Repeat("> ", 100) + "deep",
		"<div><span>mixed</div>",
		"\x00\xff weird bytes",
		strings.Repeat("- nested\n  - more\n", 50),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			out := Convert(in)
			_ = out
		})
	}
}

func TestConvertNestedList(t *testing.T) {
	got := Convert("- outer\n  - inner")
	assert.Contains(t, got, "• outer")
	assert.Contains(t, got, "• inner")
}

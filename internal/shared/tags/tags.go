// Package tags normalizes user-entered tag lists into platform-ready
// hashtag strings.
package tags

import (
	"strings"
	"unicode"
)

// Case identifies a tag case transform. The zero value leaves tags untouched.
type Case string

const (
	CaseNone           Case = ""
	CaseCamel          Case = "camel"
	CasePascal         Case = "pascal"
	CaseSnake          Case = "snake"
	CaseScreamingSnake Case = "screaming_snake"
	CaseKebab          Case = "kebab"
	CaseScreamingKebab Case = "screaming_kebab"
	CaseLowerSpace     Case = "lower_space"
	CaseUpperSpace     Case = "upper_space"
)

// Options controls tag formatting.
type Options struct {
	TagCase Case
}

// ToArray splits a comma-separated tag string, trims entries, drops empties,
// strips a single leading '#', applies the requested case transform and
// re-adds one '#' prefix per tag.
func ToArray(raw string, opts Options) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tag = strings.TrimPrefix(tag, "#")
		if tag == "" {
			continue
		}

		tag = applyCase(tag, opts.TagCase)
		result = append(result, "#"+tag)
	}

	return result
}

// Format renders a comma-separated tag string as space-joined hashtags.
func Format(raw string, opts Options) string {
	return strings.Join(ToArray(raw, opts), " ")
}

// applyCase reassembles a tag from its words in the requested case.
// Re-applying the same case is a no-op.
func applyCase(tag string, c Case) string {
	if c == CaseNone {
		return tag
	}

	words := splitWords(tag)
	if len(words) == 0 {
		return tag
	}

	switch c {
	case CaseCamel:
		out := strings.ToLower(words[0])
		for _, w := range words[1:] {
			out += titleWord(w)
		}
		return out
	case CasePascal:
		var out string
		for _, w := range words {
			out += titleWord(w)
		}
		return out
	case CaseSnake:
		return joinLower(words, "_")
	case CaseScreamingSnake:
		return joinUpper(words, "_")
	case CaseKebab:
		return joinLower(words, "-")
	case CaseScreamingKebab:
		return joinUpper(words, "-")
	case CaseLowerSpace:
		return joinLower(words, " ")
	case CaseUpperSpace:
		return joinUpper(words, " ")
	default:
		return tag
	}
}

// splitWords breaks a tag into words on '-', '_', whitespace and camelCase
// boundaries. An uppercase run like "HTTP" counts as a single word.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}

	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()

	return words
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	lower := strings.ToLower(w)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func joinLower(words []string, sep string) string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return strings.Join(out, sep)
}

func joinUpper(words []string, sep string) string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToUpper(w)
	}
	return strings.Join(out, sep)
}

package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes HTML/JSX markup from a prose fragment, keeping only the
// text content. Documentation descriptions freely mix prose with inline
// components, which must not leak into generated schema descriptions.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return normalizeSpace(s)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tokenizer.Text())
		}
	}
	return normalizeSpace(b.String())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package module

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titler upper-cases the first letter of each word and leaves the rest.
// Casers are stateful, so each call builds its own.
func titler() cases.Caser {
	return cases.Title(language.Und, cases.NoLower)
}

// Studly converts "blog-posts", "blog_posts" and "blog posts" to "BlogPosts".
// Letters already upper-cased inside a word are kept.
func Studly(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	title := titler()
	var b strings.Builder
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// Snake converts "BlogPosts" and "blog posts" to "blog_posts". Single
// lower-case words are returned unchanged.
func Snake(s string) string {
	if s == strings.ToLower(s) && !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}

	title := titler()
	var b strings.Builder
	for _, w := range strings.Fields(s) {
		w = title.String(w)
		for i, r := range w {
			if unicode.IsUpper(r) {
				if i > 0 || b.Len() > 0 {
					b.WriteByte('_')
				}
				b.WriteRune(unicode.ToLower(r))
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

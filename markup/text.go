package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VisibleText returns the text a reader sees once markup is rendered.
func VisibleText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	return doc.Text()
}

// Preview returns at most n visible characters of markup on a single line.
func Preview(markup string, n int) string {
	text := strings.Join(strings.Fields(VisibleText(markup)), " ")
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}

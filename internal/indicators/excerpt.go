package indicators

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VisibleText extracts the rendered text of a page, dropping scripts and styles
// and collapsing whitespace.
func VisibleText(markup string) string {
	if markup == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return collapseWhitespace(markup)
	}

	doc.Find("script, style, noscript, svg, template").Remove()

	return collapseWhitespace(doc.Find("body").Text())
}

// Excerpt returns the last limit runes of the visible text: chat replies
// render at the bottom of the conversation.
func Excerpt(markup string, limit int) string {
	text := VisibleText(markup)
	if limit <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return "…" + strings.TrimSpace(string(runes[len(runes)-limit:]))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

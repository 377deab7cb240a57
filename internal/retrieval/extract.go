// Package retrieval turns vector-search matches into ranked links and model context.
package retrieval

import (
	"strings"

	"ragqa/internal/domain"
)

// Extract keeps the order the search service returned. The context is the
// match texts concatenated with no separator.
func Extract(matches []domain.Match) domain.Retrieval {
	links := make([]domain.ScoredLink, 0, len(matches))
	var context strings.Builder
	for _, m := range matches {
		links = append(links, domain.ScoredLink{
			Score: m.Score,
			Link:  Anchor(m.Metadata.Link, m.Metadata.Title),
			Title: m.Metadata.Title,
			URL:   m.Metadata.Link,
		})
		context.WriteString(m.Metadata.Text)
	}
	return domain.Retrieval{Links: links, Context: context.String()}
}

// Anchor renders a link that opens in a new browsing context. Values are
// inserted verbatim; the index is trusted to hold safe markup.
func Anchor(href, title string) string {
	return `<a target="_blank" href="` + href + `">` + title + `</a>`
}

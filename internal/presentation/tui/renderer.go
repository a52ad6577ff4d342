package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/shindan/pkg/catalog"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// If the renderer cannot be built the markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ResultMarkdown formats a result and its recommended services as Markdown.
// Services the catalog does not know are listed by ID. c may be nil.
func ResultMarkdown(r *domain.Result, c *catalog.Catalog) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	if r.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", r.Description)
	}

	if len(r.RecommendedServices) > 0 {
		sb.WriteString("## おすすめのサービス\n\n")
		for _, id := range r.RecommendedServices {
			var s catalog.Service
			ok := false
			if c != nil {
				s, ok = c.Get(id)
			}
			if !ok {
				fmt.Fprintf(&sb, "- %s\n", id)
				continue
			}
			line := fmt.Sprintf("- **%s** (`%s`)", s.Title, s.Href())
			if s.PriceRange != "" {
				line += fmt.Sprintf(": %s %s", s.PriceRange, s.PriceUnit)
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "お問い合わせ: `%s`\n", catalog.ContactLink(r))
	return sb.String()
}

// Package markdown converts generated Markdown into HTML fragments.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var converter = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// ToHTML converts a Markdown document to an HTML fragment.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// Normalize strips a surrounding code fence that models sometimes wrap
// the whole document in, and trims outer whitespace.
func Normalize(source string) string {
	s := strings.TrimSpace(source)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			body := s[idx+1:]
			if end := strings.LastIndex(body, "```"); end >= 0 {
				s = strings.TrimSpace(body[:end])
			}
		}
	}

	return s
}

package markdown

import (
	"regexp"
	"strings"
)

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// ExtractTitle returns the first h1 heading of the document, or the
// fallback when the document has none.
func ExtractTitle(source, fallback string) string {
	if match := h1Regex.FindStringSubmatch(source); len(match) > 1 {
		if title := strings.TrimSpace(match[1]); title != "" {
			return title
		}
	}
	return fallback
}

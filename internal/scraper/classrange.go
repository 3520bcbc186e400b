package scraper

import (
	"fmt"
	"strings"
)

// classRange derives a class-range label from a download button's text.
// Button labels are inconsistent across journal vintages, so this is a
// fixed pattern table with a positional fallback.
func classRange(label string, index int) string {
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(label, "1-34") || strings.Contains(upper, "CLASS 1-34"):
		return "1-34"
	case strings.Contains(label, "35-45") || strings.Contains(upper, "CLASS 35-45"):
		return "35-45"
	case strings.Contains(label, "1-30"):
		return "1-30"
	case strings.Contains(label, "31-99") || strings.Contains(label, "31"):
		return "31-99"
	default:
		return fmt.Sprintf("Part-%d", index+1)
	}
}

// sanitizeFileName turns the server-side file path into a safe local name:
// the basename of a backslash-separated path with spaces replaced by
// underscores.
func sanitizeFileName(raw string) string {
	parts := strings.Split(raw, `\`)
	name := parts[len(parts)-1]
	return strings.ReplaceAll(name, " ", "_")
}

package convert

import (
	"fmt"
	"strings"
)

// PageMarker returns the comment that opens every page fragment.
func PageMarker(page int) string {
	return fmt.Sprintf("<!-- page %d -->", page)
}

// Normalize cleans one raw model response into a page fragment:
// it strips a single wrapping code fence, re-indents HTML table tags,
// strips trailing whitespace, and prepends the page marker. Applying it
// to already-clean text changes nothing.
func Normalize(raw string, page int) string {
	text := stripLeadingFence(raw)
	text = stripTrailingFence(text)
	text = reindentTableTags(text)
	text = stripTrailingWhitespace(text)
	text = strings.TrimRight(text, "\n")

	marker := PageMarker(page)
	if text == "" {
		return marker
	}
	if strings.HasPrefix(text, marker) {
		return text
	}
	return marker + "\n" + text
}

// stripLeadingFence removes leading blank lines and at most one fence
// opener line. Only bare or markdown/html-tagged openers count.
func stripLeadingFence(s string) string {
	lines := strings.Split(s, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start < len(lines) {
		switch strings.TrimSpace(lines[start]) {
		case "```", "```markdown", "```html":
			start++
		}
	}
	return strings.Join(lines[start:], "\n")
}

// stripTrailingFence removes trailing blank lines and at most one bare
// fence closer line.
func stripTrailingFence(s string) string {
	lines := strings.Split(s, "\n")
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if end > 0 && strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}

// reindentTableTags puts <tr at two spaces and <td/<th at four so table
// markup reads uniformly regardless of how the model indented it.
func reindentTableTags(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "<tr"):
			lines[i] = "  " + trimmed
		case strings.HasPrefix(lower, "<td"), strings.HasPrefix(lower, "<th"):
			lines[i] = "    " + trimmed
		}
	}
	return strings.Join(lines, "\n")
}

// stripTrailingWhitespace trims spaces and tabs from the end of each line.
func stripTrailingWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

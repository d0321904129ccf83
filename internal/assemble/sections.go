// Package assemble builds the per-step prompt context for agent invocations.
// It decides which prior artifacts to include, filters and compresses them to
// fit a token budget, and carries handoff state between sequential steps.
// Everything in this package is a pure function over strings.
package assemble

import (
	"strings"
	"unicode/utf8"
)

// Section is one markdown section: a header line and the lines under it.
// Content preceding the first header appears as a section with an empty heading.
type Section struct {
	// Heading is the header text without the leading '#' markers.
	Heading string
	// Level is the header depth (1 for '#', 2 for '##', ...). Zero for preamble.
	Level int
	// Body is the section content, excluding the header line.
	Body string
}

// Render returns the section as markdown, header line included.
func (s Section) Render() string {
	if s.Level == 0 {
		return s.Body
	}
	return strings.Repeat("#", s.Level) + " " + s.Heading + "\n" + s.Body
}

// SplitSections parses a markdown document into sections by ATX headers.
// Fenced code blocks are respected: a '#' inside a fence does not start a section.
func SplitSections(markdown string) []Section {
	var sections []Section
	var current Section
	var body strings.Builder
	inFence := false
	started := false

	flush := func() {
		current.Body = body.String()
		if current.Level > 0 || strings.TrimSpace(current.Body) != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		if !inFence {
			if level, heading, ok := parseHeader(line); ok {
				if started {
					flush()
				}
				started = true
				current = Section{Heading: heading, Level: level}
				continue
			}
		}

		body.WriteString(line)
		body.WriteString("\n")
		started = true
	}
	if started {
		flush()
	}

	return sections
}

// parseHeader returns the level and text of an ATX header line.
func parseHeader(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(trimmed[level:]), true
}

// JoinSections renders sections back into one markdown document.
func JoinSections(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, s.Render())
	}
	return strings.Join(parts, "")
}

// MatchesKeywords reports whether a section heading contains any of the
// given keywords, case-insensitively. An empty keyword list matches nothing.
func (s Section) MatchesKeywords(keywords []string) bool {
	heading := strings.ToLower(s.Heading)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(heading, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// handoffHeadings are section headings always carried forward between steps.
var handoffHeadings = []string{"summary", "handoff"}

// IsHandoff reports whether the section is a handoff/summary section.
func (s Section) IsHandoff() bool {
	heading := strings.ToLower(s.Heading)
	for _, h := range handoffHeadings {
		if strings.Contains(heading, h) {
			return true
		}
	}
	return false
}

// EstimateTokens estimates the token count of a string using the
// four-characters-per-token heuristic. It is a soft estimate; exact counts
// come back from the API after the call.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}

// truncationMarker is appended wherever content was cut.
const truncationMarker = "\n[... truncated to fit context budget ...]\n"

// HardTruncate cuts a string to approximately the given token budget,
// at a rune boundary, appending a truncation marker. Content within budget
// is returned unchanged.
func HardTruncate(s string, tokenBudget int) string {
	if tokenBudget <= 0 {
		return truncationMarker
	}
	if EstimateTokens(s) <= tokenBudget {
		return s
	}

	byteLimit := tokenBudget * 4
	if byteLimit >= len(s) {
		return s
	}
	// Back up to a rune boundary.
	for byteLimit > 0 && !utf8.RuneStart(s[byteLimit]) {
		byteLimit--
	}
	return s[:byteLimit] + truncationMarker
}

package assemble

import (
	"fmt"
	"regexp"
	"strings"
)

var listItemRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)

// isListItem reports whether a line starts a markdown list item.
// Indented continuation lines belong to the preceding item.
func isListItem(line string) bool {
	return listItemRe.MatchString(line)
}

// TruncateLists trims every bulleted or numbered list in the document to its
// last maxItems items, inserting an elision marker where items were dropped.
// Lists at or under the limit are unchanged. maxItems <= 0 disables trimming.
func TruncateLists(markdown string, maxItems int) string {
	if maxItems <= 0 {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	var out []string
	var run [][]string // items in the current list, each item with its continuation lines
	inFence := false

	flushRun := func() {
		if run == nil {
			return
		}
		if dropped := len(run) - maxItems; dropped > 0 {
			indent := leadingWhitespace(run[dropped][0])
			out = append(out, fmt.Sprintf("%s- [... %d earlier items omitted ...]", indent, dropped))
			run = run[dropped:]
		}
		for _, item := range run {
			out = append(out, item...)
		}
		run = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			flushRun()
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		switch {
		case isListItem(line):
			run = append(run, []string{line})
		case run != nil && trimmed == "":
			// A blank line ends the list.
			flushRun()
			out = append(out, line)
		case run != nil && leadingWhitespace(line) != "":
			// Indented continuation of the previous item.
			last := len(run) - 1
			run[last] = append(run[last], line)
		default:
			flushRun()
			out = append(out, line)
		}
	}
	flushRun()

	return strings.Join(out, "\n")
}

// leadingWhitespace returns the leading spaces/tabs of a line.
func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

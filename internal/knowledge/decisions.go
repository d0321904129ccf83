package knowledge

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"claudeorchestra/pkg/models"
)

// decisionsFile is the append-only decision log name inside a project.
const decisionsFile = "decisions.md"

// decisionTimeLayout is the timestamp format used for log entries.
const decisionTimeLayout = "2006-01-02 15:04"

// initDecisionLog seeds a project's decision log with its section skeleton.
func initDecisionLog(projectDir string) error {
	path := filepath.Join(projectDir, decisionsFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	initial := `# Project Decisions

Shared naming conventions, patterns, and architectural decisions.
Agents read this file before each step and append new decisions after completing work.

## Naming Conventions

<!-- Add naming decisions here -->

## Patterns

<!-- Add pattern decisions here -->

## Constraints

<!-- Add constraint decisions here -->
`
	if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
		return fmt.Errorf("init decision log: %w", err)
	}
	return nil
}

// ReadDecisions returns the current contents of a project's decision log.
// A missing log reads as empty.
func (s *Store) ReadDecisions(project string) string {
	content, err := os.ReadFile(filepath.Join(s.ProjectPath(project), decisionsFile))
	if err != nil {
		return ""
	}
	return string(content)
}

// AppendDecision adds a new entry to the decision log. The log is append-only;
// existing entries are never rewritten.
func (s *Store) AppendDecision(project, category, text string) error {
	path := filepath.Join(s.ProjectPath(project), decisionsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer f.Close()

	timestamp := time.Now().Format(decisionTimeLayout)
	var entry string
	if category != "" {
		entry = fmt.Sprintf("\n- %s [%s]: %s\n", timestamp, category, text)
	} else {
		entry = fmt.Sprintf("\n- %s: %s\n", timestamp, text)
	}

	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

// ListDecisions parses the timestamped entries out of the decision log,
// oldest first. Section headers and seed text are skipped.
func (s *Store) ListDecisions(project string) ([]models.Decision, error) {
	content := s.ReadDecisions(project)
	if content == "" {
		return nil, nil
	}

	var decisions []models.Decision
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		entry := strings.TrimPrefix(line, "- ")

		// Entries look like "2026-01-02 15:04 [category]: text" or "2026-01-02 15:04: text".
		if len(entry) < len(decisionTimeLayout) {
			continue
		}
		ts, err := time.Parse(decisionTimeLayout, entry[:len(decisionTimeLayout)])
		if err != nil {
			continue
		}
		rest := strings.TrimSpace(entry[len(decisionTimeLayout):])

		var category string
		if strings.HasPrefix(rest, "[") {
			if end := strings.Index(rest, "]"); end > 0 {
				category = rest[1:end]
				rest = rest[end+1:]
			}
		}
		rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		if rest == "" {
			continue
		}

		decisions = append(decisions, models.Decision{
			Timestamp: ts,
			Category:  category,
			Text:      rest,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan decision log: %w", err)
	}

	return decisions, nil
}

// ExtractDecisionLines pulls "DECISION:" lines out of model output so they can
// be appended to the log. The marker is stripped; blank decisions are dropped.
func ExtractDecisionLines(output string) []string {
	var decisions []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if !strings.HasPrefix(line, "DECISION:") {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, "DECISION:"))
		if text != "" {
			decisions = append(decisions, text)
		}
	}
	return decisions
}

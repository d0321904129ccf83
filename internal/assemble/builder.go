package assemble

import (
	"fmt"
	"sort"
	"strings"
)

// Source is one candidate artifact for inclusion in a step's context.
type Source struct {
	// Name is the artifact file name, used in context headers and notes.
	Name string
	// Content is the artifact markdown.
	Content string
	// Priority orders sources for inclusion; higher survives budget pressure
	// longer. The immediately preceding step's artifact gets the highest value.
	Priority int
	// Missing marks an artifact the role consumes but that does not exist yet.
	Missing bool
}

// Request describes one context assembly.
type Request struct {
	// Sources are the candidate artifacts, any order.
	Sources []Source
	// Keywords drive section relevance filtering when a source must shrink.
	Keywords []string
	// Decisions is the project decision log, included verbatim when it fits.
	Decisions string
	// TokenBudget caps the estimated size of the assembled context.
	TokenBudget int
	// MaxListItems bounds list length during compression (0 disables).
	MaxListItems int
}

// Result is an assembled context plus bookkeeping about what was done to fit.
type Result struct {
	// Context is the assembled markdown handed to the prompt template.
	Context string
	// EstimatedTokens is the soft token estimate of Context.
	EstimatedTokens int
	// Included lists the source names present in the context.
	Included []string
	// Dropped lists source names removed under budget pressure.
	Dropped []string
	// Compressed lists source names that were filtered or truncated.
	Compressed []string
	// Notes are human-readable remarks (missing artifacts, truncation).
	Notes []string
}

// Build assembles the context for one step.
//
// Fitting proceeds in stages, stopping as soon as the estimate is within
// budget: full inclusion, list truncation, section relevance filtering,
// dropping whole sources lowest-priority-first, and finally a hard truncate.
// Handoff sections of the highest-priority source always survive.
func Build(req Request) Result {
	res := Result{}

	// Missing artifacts become a note in the context rather than an error.
	sources := make([]Source, 0, len(req.Sources))
	for _, src := range req.Sources {
		if src.Missing || strings.TrimSpace(src.Content) == "" {
			res.Notes = append(res.Notes, fmt.Sprintf("artifact %s not available yet", src.Name))
			continue
		}
		sources = append(sources, src)
	}
	sortByPriority(sources)

	rendered := make([]string, len(sources))
	for i, src := range sources {
		rendered[i] = src.Content
	}

	// Stage 1: everything as-is.
	if ctx := compose(sources, rendered, req.Decisions, res.Notes); EstimateTokens(ctx) <= req.TokenBudget {
		return finish(res, sources, ctx)
	}

	// Stage 2: list truncation on every source.
	if req.MaxListItems > 0 {
		for i := range rendered {
			trimmed := TruncateLists(rendered[i], req.MaxListItems)
			if trimmed != rendered[i] {
				rendered[i] = trimmed
				res.Compressed = appendUnique(res.Compressed, sources[i].Name)
			}
		}
		if ctx := compose(sources, rendered, req.Decisions, res.Notes); EstimateTokens(ctx) <= req.TokenBudget {
			return finish(res, sources, ctx)
		}
	}

	// Stage 3: relevance filtering, lowest priority first. The top source is
	// filtered last and its handoff sections are always kept.
	for i := len(rendered) - 1; i >= 0; i-- {
		filtered := FilterRelevant(rendered[i], req.Keywords, i == 0)
		if filtered != rendered[i] {
			rendered[i] = filtered
			res.Compressed = appendUnique(res.Compressed, sources[i].Name)
		}
		if ctx := compose(sources, rendered, req.Decisions, res.Notes); EstimateTokens(ctx) <= req.TokenBudget {
			return finish(res, sources, ctx)
		}
	}

	// Stage 4: drop whole sources, lowest priority first. The top source
	// is never dropped.
	for len(sources) > 1 {
		last := len(sources) - 1
		res.Dropped = append(res.Dropped, sources[last].Name)
		res.Notes = append(res.Notes, fmt.Sprintf("artifact %s omitted to fit context budget", sources[last].Name))
		sources = sources[:last]
		rendered = rendered[:last]

		if ctx := compose(sources, rendered, req.Decisions, res.Notes); EstimateTokens(ctx) <= req.TokenBudget {
			return finish(res, sources, ctx)
		}
	}

	// Stage 5: hard truncate. The cut eats the tail of the document, which is
	// where the top source's handoff sits, so the handoff sections are carved
	// out first and re-appended after the cut. Never an error.
	ctx := compose(sources, rendered, req.Decisions, res.Notes)
	handoff := ""
	if len(rendered) > 0 {
		handoff = handoffSections(rendered[0])
	}
	if handoff != "" && EstimateTokens(handoff) < req.TokenBudget {
		ctx = HardTruncate(ctx, req.TokenBudget-EstimateTokens(handoff)) + handoff
	} else {
		ctx = HardTruncate(ctx, req.TokenBudget)
	}
	res.Notes = append(res.Notes, "context hard-truncated to budget")
	return finish(res, sources, ctx)
}

// handoffSections returns a document's summary/handoff sections, or "".
func handoffSections(markdown string) string {
	var kept []Section
	for _, s := range SplitSections(markdown) {
		if s.IsHandoff() {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return JoinSections(kept)
}

// FilterRelevant keeps sections whose headings match the keywords.
// With keepHandoff, summary/handoff sections are retained regardless.
// If nothing matches, the document is returned unchanged rather than empty.
func FilterRelevant(markdown string, keywords []string, keepHandoff bool) string {
	sections := SplitSections(markdown)
	if len(sections) <= 1 {
		return markdown
	}

	var kept []Section
	for _, s := range sections {
		if s.MatchesKeywords(keywords) || (keepHandoff && s.IsHandoff()) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return markdown
	}
	return JoinSections(kept)
}

// compose renders sources, the decision log, and notes into one context document.
func compose(sources []Source, rendered []string, decisions string, notes []string) string {
	var sb strings.Builder

	for i, src := range sources {
		sb.WriteString(fmt.Sprintf("<!-- artifact: %s -->\n", src.Name))
		sb.WriteString(strings.TrimRight(rendered[i], "\n"))
		sb.WriteString("\n\n")
	}

	if strings.TrimSpace(decisions) != "" {
		sb.WriteString("<!-- artifact: decisions.md -->\n")
		sb.WriteString(strings.TrimRight(decisions, "\n"))
		sb.WriteString("\n\n")
	}

	for _, note := range notes {
		sb.WriteString(fmt.Sprintf("<!-- note: %s -->\n", note))
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// finish fills in the result bookkeeping.
func finish(res Result, sources []Source, ctx string) Result {
	for _, src := range sources {
		res.Included = append(res.Included, src.Name)
	}
	res.Context = ctx
	res.EstimatedTokens = EstimateTokens(ctx)
	return res
}

// sortByPriority orders sources highest priority first (stable).
func sortByPriority(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority > sources[j].Priority
	})
}

// appendUnique appends s to list if not already present.
func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

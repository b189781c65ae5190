// Package query turns free-text search input into a structured Requirement.
// Parsing is pure and deterministic: identical text always yields the same
// Requirement.
package query

import (
	"strings"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// maxSkills caps the number of skill tokens extracted from free text.
const maxSkills = 5

// categoryKeywords maps a category to the phrases that select it. Order is
// significant: the first category with any phrase present in the lowercased
// text wins, so earlier entries shadow later ones ("data analysis" resolves
// to data only because no research phrase occurs first).
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"research", []string{"research", "summarize", "summary", "investigate", "study", "literature", "fact check"}},
	{"writing", []string{"write", "writing", "blog", "article", "essay", "copywriting", "content", "proofread"}},
	{"code", []string{"code", "coding", "program", "develop", "script", "debug", "bug fix", "software", "backend", "frontend", "api"}},
	{"image", []string{"image", "logo", "design", "illustration", "photo", "graphic", "banner", "art"}},
	{"data", []string{"data", "analysis", "analytics", "scrape", "scraping", "excel", "spreadsheet", "database", "visualization"}},
	{"automation", []string{"automate", "automation", "workflow", "bot", "integration", "pipeline"}},
}

// stopwords are dropped from skill token extraction.
var stopwords = map[string]struct{}{
	"i": {}, "a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "can": {}, "do": {}, "for": {},
	"from": {}, "get": {}, "has": {}, "have": {}, "help": {}, "hire": {},
	"how": {}, "in": {}, "is": {}, "it": {}, "looking": {}, "me": {},
	"my": {}, "need": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"please": {}, "some": {}, "someone": {}, "that": {}, "the": {},
	"their": {}, "this": {}, "to": {}, "want": {}, "we": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
}

// Parse extracts a Requirement from free text. Empty input yields an empty
// Requirement (no skills, no category, no budget).
func Parse(text string) domain.Requirement {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return domain.Requirement{}
	}

	return domain.Requirement{
		Skills:   extractSkills(text),
		Category: detectCategory(text),
	}
}

// NormalizeSkills lowercases, trims, dedupes and caps an explicitly
// supplied skill list so it meets the same shape Parse produces. Unlike
// token extraction it keeps short terms: an explicit "go" or "r" was
// chosen on purpose.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	var out []string
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == maxSkills {
			break
		}
	}
	return out
}

// detectCategory returns the first category whose keyword list intersects
// the text, or "" when none does.
func detectCategory(text string) string {
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.category
			}
		}
	}
	return ""
}

// extractSkills tokenizes the text into up to maxSkills candidate skill
// terms: non-alphanumerics stripped, stopwords and short tokens dropped,
// duplicates removed preserving first occurrence.
func extractSkills(text string) []string {
	var clean strings.Builder
	clean.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\t', r == '\n':
			clean.WriteRune(r)
		default:
			clean.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	var skills []string
	for _, tok := range strings.Fields(clean.String()) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		skills = append(skills, tok)
		if len(skills) == maxSkills {
			break
		}
	}
	return skills
}

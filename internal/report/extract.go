// Package report extracts a structured report from the free-form
// recommendation narrative. The extraction is a best-effort heuristic
// parser, not a grammar: it never fails, and any miss degrades a single
// field to its absence value.
package report

import (
	"regexp"
	"strings"

	"portfolio-analyst/internal/models"
)

const (
	maxFieldChars   = 400
	maxOverallChars = 800
)

var (
	verdictRe    = regexp.MustCompile(`(?i)\b(BUY|HOLD|SELL)\b`)
	confidenceRe = regexp.MustCompile(`(?i)Confidence[:\s*_]*(High|Medium|Low)`)
	reasoningRe  = labelRe("Reasoning")
	keyRiskRe    = labelRe("Key Risk")
	overallRe    = regexp.MustCompile(`(?is)OVERALL PORTFOLIO ASSESSMENT(.*)`)
)

// labelRe matches the text following a possibly-bold label up to the next
// list marker, heading marker, or blank-line structural break.
func labelRe(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)\*{0,2}` + regexp.QuoteMeta(label) + `[:*\s]+(.+?)(?:\n\s*[-*#\n]|\z)`)
}

// markerRe matches a heading-like marker for a symbol: "## AAPL",
// "# **AAPL**", or a line starting with "**AAPL**".
func markerRe(symbol string) *regexp.Regexp {
	q := regexp.QuoteMeta(symbol)
	return regexp.MustCompile(`(?im)(?:#{1,3}\s*\*{0,2}` + q + `\*{0,2}|^\*\*` + q + `\*\*)`)
}

// Extract parses the recommendation narrative into a structured report for
// the given symbols. It is deterministic: the same narrative and symbol
// list always yield an identical report. Every requested symbol gets an
// entry; when no section marker is found for a symbol, the entire narrative
// serves as its section, so keywords elsewhere in the text may leak into
// its fields (documented fallback behavior).
func Extract(narrative string, symbols []string) *models.StructuredReport {
	sections := locateSections(narrative, symbols)

	perSymbol := make(map[string]models.SymbolReport, len(symbols))
	for _, sym := range symbols {
		perSymbol[sym] = extractSymbol(sections[sym])
	}

	return &models.StructuredReport{
		Symbols:   append([]string(nil), symbols...),
		PerSymbol: perSymbol,
		Overall:   extractOverall(narrative),
	}
}

// locateSections is pass 1: it finds each symbol's section boundaries. The
// section for symbol i spans from its marker to the next symbol's marker
// (searched after symbol i's start, to avoid self-matching) or to the end
// of text.
func locateSections(narrative string, symbols []string) map[string]string {
	sections := make(map[string]string, len(symbols))
	for i, sym := range symbols {
		loc := markerRe(sym).FindStringIndex(narrative)
		if loc == nil {
			sections[sym] = narrative
			continue
		}

		start := loc[0]
		end := len(narrative)
		if i+1 < len(symbols) {
			rest := narrative[start+1:]
			if next := markerRe(symbols[i+1]).FindStringIndex(rest); next != nil {
				end = start + 1 + next[0]
			}
		}
		sections[sym] = narrative[start:end]
	}
	return sections
}

// extractSymbol is pass 2 for one section: each field extractor is total
// and independent, so a miss degrades only its own field.
func extractSymbol(section string) models.SymbolReport {
	return models.SymbolReport{
		Verdict:    extractVerdict(section),
		Confidence: extractConfidence(section),
		Reasoning:  extractLabeled(section, reasoningRe),
		KeyRisk:    extractLabeled(section, keyRiskRe),
	}
}

func extractVerdict(section string) models.Verdict {
	m := verdictRe.FindStringSubmatch(section)
	if m == nil {
		return models.VerdictNA
	}
	return models.Verdict(strings.ToUpper(m[1]))
}

func extractConfidence(section string) models.Confidence {
	m := confidenceRe.FindStringSubmatch(section)
	if m == nil {
		return models.ConfidenceNA
	}
	switch strings.ToLower(m[1]) {
	case "high":
		return models.ConfidenceHigh
	case "medium":
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func extractLabeled(section string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(section)
	if m == nil {
		return ""
	}
	return truncate(strings.TrimSpace(m[1]), maxFieldChars)
}

func extractOverall(narrative string) string {
	m := overallRe.FindStringSubmatch(narrative)
	if m == nil {
		return ""
	}
	return truncate(strings.TrimSpace(m[1]), maxOverallChars)
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

package feishu

import (
	"encoding/json"
	"fmt"
	"strings"

	"portfolio-analyst/internal/models"
)

// Card is an interactive Feishu card payload.
type Card struct {
	Config   map[string]any   `json:"config"`
	Header   map[string]any   `json:"header"`
	Elements []map[string]any `json:"elements"`
}

// JSON returns the card encoded for the message content field.
func (c *Card) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newCard(title, template string) *Card {
	return &Card{
		Config: map[string]any{"wide_screen_mode": true},
		Header: map[string]any{
			"title":    map[string]any{"tag": "plain_text", "content": title},
			"template": template,
		},
	}
}

func (c *Card) addMarkdown(content string) {
	c.Elements = append(c.Elements, map[string]any{
		"tag":  "div",
		"text": map[string]any{"tag": "lark_md", "content": content},
	})
}

func (c *Card) addDivider() {
	c.Elements = append(c.Elements, map[string]any{"tag": "hr"})
}

func (c *Card) addNote(content string) {
	c.Elements = append(c.Elements, map[string]any{
		"tag": "note",
		"elements": []map[string]any{
			{"tag": "plain_text", "content": content},
		},
	})
}

// verdictBadge returns the colored badge text for a verdict.
func verdictBadge(v models.Verdict) string {
	switch v {
	case models.VerdictBuy:
		return "<font color='green'>**BUY**</font>"
	case models.VerdictSell:
		return "<font color='red'>**SELL**</font>"
	case models.VerdictHold:
		return "<font color='yellow'>**HOLD**</font>"
	default:
		return "**N/A**"
	}
}

// confidenceIcon returns the icon for a confidence level.
func confidenceIcon(c models.Confidence) string {
	switch c {
	case models.ConfidenceHigh:
		return "🟢"
	case models.ConfidenceMedium:
		return "🟡"
	case models.ConfidenceLow:
		return "🔴"
	default:
		return "⚪"
	}
}

// ReportCard builds the interactive card for a completed analysis run.
func ReportCard(rep *models.StructuredReport) *Card {
	title := fmt.Sprintf("📊 Portfolio Analysis — %s", rep.GeneratedAt.Format("2006-01-02"))
	card := newCard(title, "blue")

	for _, sym := range rep.Symbols {
		sr := rep.PerSymbol[sym]

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("**%s**  %s  %s %s", sym, verdictBadge(sr.Verdict), confidenceIcon(sr.Confidence), sr.Confidence))
		if sr.Reasoning != "" {
			sb.WriteString(fmt.Sprintf("\n**Reasoning:** %s", sr.Reasoning))
		}
		if sr.KeyRisk != "" {
			sb.WriteString(fmt.Sprintf("\n**Key Risk:** %s", sr.KeyRisk))
		}
		card.addMarkdown(sb.String())
	}

	if rep.Overall != "" {
		card.addDivider()
		card.addMarkdown(fmt.Sprintf("**Overall Assessment**\n%s", rep.Overall))
	}

	card.addNote(fmt.Sprintf("trigger: %s | generated: %s | runtime: %.1fs",
		rep.Trigger,
		rep.GeneratedAt.Format("2006-01-02 15:04:05"),
		rep.Elapsed.Seconds()))
	return card
}

// AckCard builds the acknowledgement card posted when a run starts.
func AckCard(symbols []string, trigger string) *Card {
	card := newCard("🔍 Analysis Started", "turquoise")
	card.addMarkdown(fmt.Sprintf("Researching **%d** holdings: %s", len(symbols), strings.Join(symbols, ", ")))
	card.addNote(fmt.Sprintf("trigger: %s", trigger))
	return card
}

// ErrorCard builds the failure notification card for a failed run.
func ErrorCard(err error) *Card {
	card := newCard("❌ Analysis Failed", "red")
	card.addMarkdown(fmt.Sprintf("**Error:** %s", err.Error()))
	return card
}

// jsonString encodes s as a JSON string literal.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

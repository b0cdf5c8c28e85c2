package report

import (
	"reflect"
	"strings"
	"testing"

	"portfolio-analyst/internal/models"
)

const sampleNarrative = "**AAA**\nBUY\nConfidence: High\n**Reasoning:** strong earnings\n**Key Risk:** rate hikes\n**BBB**\nSELL\nConfidence: Low\nOVERALL PORTFOLIO ASSESSMENT\nConcentrated in tech."

func TestExtractEndToEnd(t *testing.T) {
	r := Extract(sampleNarrative, []string{"AAA", "BBB"})

	aaa := r.PerSymbol["AAA"]
	if aaa.Verdict != models.VerdictBuy {
		t.Errorf("AAA verdict = %s, want BUY", aaa.Verdict)
	}
	if aaa.Confidence != models.ConfidenceHigh {
		t.Errorf("AAA confidence = %s, want High", aaa.Confidence)
	}
	if aaa.Reasoning != "strong earnings" {
		t.Errorf("AAA reasoning = %q, want %q", aaa.Reasoning, "strong earnings")
	}
	if aaa.KeyRisk != "rate hikes" {
		t.Errorf("AAA key risk = %q, want %q", aaa.KeyRisk, "rate hikes")
	}

	bbb := r.PerSymbol["BBB"]
	if bbb.Verdict != models.VerdictSell {
		t.Errorf("BBB verdict = %s, want SELL", bbb.Verdict)
	}
	if bbb.Confidence != models.ConfidenceLow {
		t.Errorf("BBB confidence = %s, want Low", bbb.Confidence)
	}
	if bbb.Reasoning != "" || bbb.KeyRisk != "" {
		t.Errorf("BBB reasoning/risk = %q/%q, want empty", bbb.Reasoning, bbb.KeyRisk)
	}

	if r.Overall != "Concentrated in tech." {
		t.Errorf("overall = %q, want %q", r.Overall, "Concentrated in tech.")
	}
}

func TestExtractHeadingMarkers(t *testing.T) {
	narrative := "## AAPL\nHOLD\nConfidence: Medium\n### **MSFT**\nBUY\nConfidence: High\n"
	r := Extract(narrative, []string{"AAPL", "MSFT"})

	if r.PerSymbol["AAPL"].Verdict != models.VerdictHold {
		t.Errorf("AAPL verdict = %s, want HOLD", r.PerSymbol["AAPL"].Verdict)
	}
	if r.PerSymbol["AAPL"].Confidence != models.ConfidenceMedium {
		t.Errorf("AAPL confidence = %s, want Medium", r.PerSymbol["AAPL"].Confidence)
	}
	if r.PerSymbol["MSFT"].Verdict != models.VerdictBuy {
		t.Errorf("MSFT verdict = %s, want BUY", r.PerSymbol["MSFT"].Verdict)
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	narrative := "**aapl**\nbuy\nconfidence: high\n"
	r := Extract(narrative, []string{"AAPL"})

	got := r.PerSymbol["AAPL"]
	if got.Verdict != models.VerdictBuy {
		t.Errorf("verdict = %s, want BUY", got.Verdict)
	}
	if got.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %s, want High", got.Confidence)
	}
}

func TestExtractNoMarkersDegradesGracefully(t *testing.T) {
	narrative := "The market looked uneventful this week."
	r := Extract(narrative, []string{"AAPL"})

	got := r.PerSymbol["AAPL"]
	want := models.SymbolReport{
		Verdict:    models.VerdictNA,
		Confidence: models.ConfidenceNA,
		Reasoning:  "",
		KeyRisk:    "",
	}
	if got != want {
		t.Errorf("degraded report = %+v, want %+v", got, want)
	}
	if r.Overall != "" {
		t.Errorf("overall = %q, want empty", r.Overall)
	}
}

func TestExtractEmptyNarrative(t *testing.T) {
	r := Extract("", []string{"AAA", "BBB"})
	if len(r.PerSymbol) != 2 {
		t.Fatalf("expected an entry per symbol, got %d", len(r.PerSymbol))
	}
	for sym, sr := range r.PerSymbol {
		if sr.Verdict != models.VerdictNA || sr.Confidence != models.ConfidenceNA {
			t.Errorf("%s = %+v, want N/A fields", sym, sr)
		}
	}
}

// A symbol with no marker falls back to the entire narrative as its
// section, so verdict keywords from other symbols leak into its entry.
// This mirrors the original behavior and is kept deliberately.
func TestExtractMissingMarkerFallsBackToFullText(t *testing.T) {
	narrative := "**AAA**\nBUY\nConfidence: High\n"
	r := Extract(narrative, []string{"AAA", "ZZZ"})

	zzz := r.PerSymbol["ZZZ"]
	if zzz.Verdict != models.VerdictBuy {
		t.Errorf("ZZZ verdict = %s, want leaked BUY from full-text fallback", zzz.Verdict)
	}
}

func TestExtractSectionBoundaryConfinesFields(t *testing.T) {
	narrative := "**AAA**\nBUY\nConfidence: High\n**BBB**\nSELL\nConfidence: Low\n"
	r := Extract(narrative, []string{"AAA", "BBB"})

	if r.PerSymbol["AAA"].Verdict != models.VerdictBuy {
		t.Errorf("AAA verdict = %s", r.PerSymbol["AAA"].Verdict)
	}
	if r.PerSymbol["BBB"].Verdict != models.VerdictSell {
		t.Errorf("BBB verdict = %s; section slicing leaked AAA's verdict", r.PerSymbol["BBB"].Verdict)
	}
}

func TestExtractTruncation(t *testing.T) {
	long := strings.Repeat("x", 600)
	narrative := "**AAA**\nBUY\n**Reasoning:** " + long + "\nOVERALL PORTFOLIO ASSESSMENT\n" + strings.Repeat("y", 900)
	r := Extract(narrative, []string{"AAA"})

	if n := len(r.PerSymbol["AAA"].Reasoning); n != 400 {
		t.Errorf("reasoning length = %d, want 400", n)
	}
	if n := len(r.Overall); n != 800 {
		t.Errorf("overall length = %d, want 800", n)
	}
}

func TestExtractVerdictFirstMatchWins(t *testing.T) {
	narrative := "**AAA**\nHOLD for now, but consider SELL later\n"
	r := Extract(narrative, []string{"AAA"})
	if r.PerSymbol["AAA"].Verdict != models.VerdictHold {
		t.Errorf("verdict = %s, want first match HOLD", r.PerSymbol["AAA"].Verdict)
	}
}

func TestExtractIdempotent(t *testing.T) {
	symbols := []string{"AAA", "BBB"}
	first := Extract(sampleNarrative, symbols)
	second := Extract(sampleNarrative, symbols)
	if !reflect.DeepEqual(first, second) {
		t.Error("re-parsing the same narrative should yield an identical report")
	}
}

func TestExtractBoldConfidence(t *testing.T) {
	narrative := "**AAA**\nBUY\n**Confidence**: **Medium**\n"
	r := Extract(narrative, []string{"AAA"})
	if r.PerSymbol["AAA"].Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %s, want Medium", r.PerSymbol["AAA"].Confidence)
	}
}

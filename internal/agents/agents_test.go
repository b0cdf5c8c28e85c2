package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	apperrors "portfolio-analyst/internal/errors"
	"portfolio-analyst/internal/models"
)

// fakeLLM is a scripted LLM client for tests.
type fakeLLM struct {
	completeResponse string
	completeErr      error
	lastSystem       string
	lastUser         string

	streamChunks []string
	streamErrAt  int // fail before emitting chunk at this index; -1 disables
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{streamErrAt: -1}
}

func (f *fakeLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.completeResponse, f.completeErr
}

func (f *fakeLLM) StreamWithSystem(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt

	var sb strings.Builder
	for i, chunk := range f.streamChunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if f.streamErrAt == i {
			return "", errors.New("stream interrupted")
		}
		if onChunk != nil {
			onChunk(chunk)
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}

func sampleRecords() []models.ResearchRecord {
	price := 120.0
	pnl := 20.0
	return []models.ResearchRecord{
		{
			Symbol:           "AAPL",
			Shares:           10,
			AvgCost:          100,
			UnrealizedPnLPct: &pnl,
			PriceContext:     models.PriceContext{CurrentPrice: &price},
			RecentNews:       []models.NewsItem{{Headline: "AAPL ships new device"}},
			AnalystRatings:   models.AnalystRatings{Period: "2026-08-01", Buy: 12},
		},
	}
}

func TestAggregate(t *testing.T) {
	llm := newFakeLLM()
	llm.completeResponse = "Tech concentration is high."

	a := NewAggregator(llm, zerolog.Nop())
	findings, err := a.Aggregate(context.Background(), sampleRecords())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if findings != "Tech concentration is high." {
		t.Errorf("findings = %q", findings)
	}

	if !strings.Contains(llm.lastSystem, "financial research aggregator") {
		t.Errorf("system prompt missing aggregator instruction: %q", llm.lastSystem)
	}
	if !strings.Contains(llm.lastUser, `"ticker": "AAPL"`) {
		t.Errorf("user prompt missing serialized research data: %q", llm.lastUser)
	}
	if !strings.Contains(llm.lastUser, `"unrealized_pnl_pct": 20`) {
		t.Errorf("user prompt missing pnl field: %q", llm.lastUser)
	}
}

func TestAggregateErrorIsFatal(t *testing.T) {
	llm := newFakeLLM()
	llm.completeErr = errors.New("connection refused")

	a := NewAggregator(llm, zerolog.Nop())
	if _, err := a.Aggregate(context.Background(), sampleRecords()); err == nil {
		t.Fatal("expected error")
	}
}

func TestAggregateEmptyResponseIsFatal(t *testing.T) {
	llm := newFakeLLM()
	llm.completeResponse = ""

	a := NewAggregator(llm, zerolog.Nop())
	_, err := a.Aggregate(context.Background(), sampleRecords())
	if !errors.Is(err, apperrors.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestRecommendStreamsAndAccumulates(t *testing.T) {
	llm := newFakeLLM()
	llm.streamChunks = []string{"**AAPL**\n", "BUY\n", "Confidence: High\n"}

	var forwarded []string
	a := NewAnalyst(llm, func(chunk string) { forwarded = append(forwarded, chunk) }, zerolog.Nop())

	holdings := []models.Holding{{Symbol: "AAPL", Shares: 10, AvgCost: 100}}
	narrative, err := a.Recommend(context.Background(), holdings, "findings text")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	want := "**AAPL**\nBUY\nConfidence: High\n"
	if narrative != want {
		t.Errorf("narrative = %q, want %q", narrative, want)
	}
	if strings.Join(forwarded, "") != want {
		t.Errorf("forwarded chunks = %q, want %q in order", strings.Join(forwarded, ""), want)
	}
	if len(forwarded) != 3 {
		t.Errorf("chunks forwarded = %d, want 3", len(forwarded))
	}

	if !strings.Contains(llm.lastUser, "findings text") {
		t.Error("user prompt missing aggregated findings")
	}
	if !strings.Contains(llm.lastUser, "OVERALL PORTFOLIO ASSESSMENT") {
		t.Error("user prompt missing overall assessment instruction")
	}
}

func TestRecommendStreamFailureDiscardsPartial(t *testing.T) {
	llm := newFakeLLM()
	llm.streamChunks = []string{"partial ", "text"}
	llm.streamErrAt = 1

	a := NewAnalyst(llm, nil, zerolog.Nop())
	narrative, err := a.Recommend(context.Background(), []models.Holding{{Symbol: "AAPL"}}, "f")
	if err == nil {
		t.Fatal("expected stream error")
	}
	if narrative != "" {
		t.Errorf("partial narrative should be discarded, got %q", narrative)
	}
}

func TestRecommendCancellationDiscardsPartial(t *testing.T) {
	llm := newFakeLLM()
	llm.streamChunks = []string{"partial"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyst(llm, nil, zerolog.Nop())
	narrative, err := a.Recommend(ctx, []models.Holding{{Symbol: "AAPL"}}, "f")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if narrative != "" {
		t.Errorf("partial narrative should be discarded, got %q", narrative)
	}
}

func TestRecommendEmptyNarrativeIsFatal(t *testing.T) {
	llm := newFakeLLM()

	a := NewAnalyst(llm, nil, zerolog.Nop())
	_, err := a.Recommend(context.Background(), []models.Holding{{Symbol: "AAPL"}}, "f")
	if !errors.Is(err, apperrors.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

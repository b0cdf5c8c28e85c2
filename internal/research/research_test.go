package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"portfolio-analyst/internal/models"
)

// stubGateway is a controllable provider gateway for tests.
type stubGateway struct {
	mu        sync.Mutex
	inFlight  int
	highWater int
	delay     time.Duration

	failNews    map[string]bool
	failRatings map[string]bool
	failContext map[string]bool
	panicOn     string

	price float64
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		failNews:    map[string]bool{},
		failRatings: map[string]bool{},
		failContext: map[string]bool{},
		price:       100,
	}
}

func (g *stubGateway) enter() {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.highWater {
		g.highWater = g.inFlight
	}
	g.mu.Unlock()
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
}

func (g *stubGateway) leave() {
	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
}

func (g *stubGateway) CompanyNews(ctx context.Context, symbol string) []models.NewsItem {
	if g.panicOn == symbol {
		panic("provider blew up")
	}
	if g.failNews[symbol] {
		return []models.NewsItem{{Error: "news unavailable"}}
	}
	return []models.NewsItem{{Headline: symbol + " launches product", Source: "wire"}}
}

func (g *stubGateway) AnalystRatings(ctx context.Context, symbol string) models.AnalystRatings {
	if g.failRatings[symbol] {
		return models.AnalystRatings{Error: "ratings unavailable"}
	}
	return models.AnalystRatings{Period: "2026-08-01", Buy: 3}
}

func (g *stubGateway) PriceContext(ctx context.Context, symbol string) models.PriceContext {
	if g.failContext[symbol] {
		return models.PriceContext{Error: "quote unavailable"}
	}
	price := g.price
	return models.PriceContext{CurrentPrice: &price}
}

// concurrencyGateway wraps stubGateway to count whole-symbol research
// invocations rather than individual lookups.
type concurrencyGateway struct {
	*stubGateway
}

func (g *concurrencyGateway) PriceContext(ctx context.Context, symbol string) models.PriceContext {
	g.enter()
	defer g.leave()
	return g.stubGateway.PriceContext(ctx, symbol)
}

func holdingsN(n int) []models.Holding {
	holdings := make([]models.Holding, n)
	for i := range holdings {
		holdings[i] = models.Holding{Symbol: fmt.Sprintf("SYM%02d", i), Shares: 1, AvgCost: 50}
	}
	return holdings
}

func TestResearchAssemblesRecord(t *testing.T) {
	g := newStubGateway()
	g.price = 120
	r := NewResearcher(g, zerolog.Nop())

	rec := r.Research(context.Background(), models.Holding{Symbol: "AAPL", Shares: 10, AvgCost: 100})

	if rec.Symbol != "AAPL" || rec.Shares != 10 || rec.AvgCost != 100 {
		t.Errorf("holding fields not carried over: %+v", rec)
	}
	if rec.UnrealizedPnLPct == nil || *rec.UnrealizedPnLPct != 20.0 {
		t.Errorf("UnrealizedPnLPct = %v, want 20.0", rec.UnrealizedPnLPct)
	}
	if len(rec.RecentNews) != 1 || rec.RecentNews[0].Error != "" {
		t.Errorf("unexpected news: %+v", rec.RecentNews)
	}
	if rec.AnalystRatings.Buy != 3 {
		t.Errorf("unexpected ratings: %+v", rec.AnalystRatings)
	}
}

func TestResearchDegradedLookupsDoNotFail(t *testing.T) {
	g := newStubGateway()
	g.failNews["AAPL"] = true
	g.failContext["AAPL"] = true
	r := NewResearcher(g, zerolog.Nop())

	rec := r.Research(context.Background(), models.Holding{Symbol: "AAPL", AvgCost: 100})

	if len(rec.RecentNews) != 1 || rec.RecentNews[0].Error == "" {
		t.Errorf("expected inline news error, got %+v", rec.RecentNews)
	}
	if rec.PriceContext.Error == "" {
		t.Error("expected inline price context error")
	}
	if rec.UnrealizedPnLPct != nil {
		t.Errorf("pnl should be nil without a price, got %v", *rec.UnrealizedPnLPct)
	}
	// The healthy lookup still populated its field.
	if rec.AnalystRatings.Error != "" {
		t.Errorf("ratings lookup should have succeeded: %+v", rec.AnalystRatings)
	}
}

func TestUnrealizedPnLPct(t *testing.T) {
	price := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		current *float64
		avgCost float64
		want    *float64
	}{
		{"gain", price(120), 100, price(20.0)},
		{"loss", price(80), 100, price(-20.0)},
		{"rounded", price(100.333), 100, price(0.33)},
		{"nil price", nil, 100, nil},
		{"zero price", price(0), 100, nil},
		{"zero cost", price(120), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnrealizedPnLPct(tt.current, tt.avgCost)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Errorf("UnrealizedPnLPct = %v, want %v", got, tt.want)
			case *got != *tt.want:
				t.Errorf("UnrealizedPnLPct = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestResearchAllPreservesOrderAndCount(t *testing.T) {
	g := newStubGateway()
	g.failNews["SYM03"] = true
	g.failRatings["SYM07"] = true
	g.failContext["SYM11"] = true

	c := NewCoordinator(NewResearcher(g, zerolog.Nop()), 5, zerolog.Nop())
	holdings := holdingsN(20)

	records, err := c.ResearchAll(context.Background(), holdings)
	if err != nil {
		t.Fatalf("ResearchAll: %v", err)
	}
	if len(records) != len(holdings) {
		t.Fatalf("got %d records, want %d", len(records), len(holdings))
	}
	for i, rec := range records {
		if rec.Symbol != holdings[i].Symbol {
			t.Errorf("records[%d].Symbol = %s, want %s", i, rec.Symbol, holdings[i].Symbol)
		}
	}

	// Failing lookups contribute error fields, not missing records.
	if records[3].RecentNews[0].Error == "" {
		t.Error("SYM03 should carry a news error marker")
	}
	if records[7].AnalystRatings.Error == "" {
		t.Error("SYM07 should carry a ratings error marker")
	}
	if records[11].PriceContext.Error == "" {
		t.Error("SYM11 should carry a price context error marker")
	}
}

func TestResearchAllRespectsConcurrencyLimit(t *testing.T) {
	g := &concurrencyGateway{newStubGateway()}
	g.delay = 10 * time.Millisecond

	c := NewCoordinator(NewResearcher(g, zerolog.Nop()), 5, zerolog.Nop())

	if _, err := c.ResearchAll(context.Background(), holdingsN(25)); err != nil {
		t.Fatalf("ResearchAll: %v", err)
	}

	if g.highWater > 5 {
		t.Errorf("concurrency high-water mark = %d, want <= 5", g.highWater)
	}
	if g.highWater < 2 {
		t.Errorf("concurrency high-water mark = %d, expected overlapping work", g.highWater)
	}
}

func TestResearchAllGenuineFaultAbortsRun(t *testing.T) {
	g := newStubGateway()
	g.panicOn = "SYM05"

	c := NewCoordinator(NewResearcher(g, zerolog.Nop()), 5, zerolog.Nop())

	records, err := c.ResearchAll(context.Background(), holdingsN(10))
	if err == nil {
		t.Fatal("expected error from panicking research task")
	}
	if records != nil {
		t.Error("no partial results on genuine fault")
	}
	if !strings.Contains(err.Error(), "SYM05") {
		t.Errorf("error should name the failing symbol: %v", err)
	}
}

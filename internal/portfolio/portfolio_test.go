package portfolio

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"portfolio-analyst/internal/models"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.json")
	content := `{"stocks": [
		{"ticker": "AAPL", "shares": 10, "avg_cost": 150.5},
		{"ticker": "MSFT", "shares": 5, "avg_cost": 300}
	]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	holdings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []models.Holding{
		{Symbol: "AAPL", Shares: 10, AvgCost: 150.5},
		{Symbol: "MSFT", Shares: 5, AvgCost: 300},
	}
	if !reflect.DeepEqual(holdings, want) {
		t.Errorf("Load = %+v, want %+v", holdings, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestResolveNoOverride(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "AAPL", Shares: 10, AvgCost: 150},
	}
	got := Resolve(holdings, nil)
	if !reflect.DeepEqual(got, holdings) {
		t.Errorf("Resolve without override = %+v, want %+v", got, holdings)
	}
}

func TestResolveSubset(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "AAPL", Shares: 10, AvgCost: 150},
		{Symbol: "MSFT", Shares: 5, AvgCost: 300},
		{Symbol: "NVDA", Shares: 2, AvgCost: 400},
	}

	got := Resolve(holdings, []string{"msft", "AAPL"})
	want := []models.Holding{
		{Symbol: "MSFT", Shares: 5, AvgCost: 300},
		{Symbol: "AAPL", Shares: 10, AvgCost: 150},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve subset = %+v, want %+v", got, want)
	}
}

func TestResolveUnknownSymbolSynthesized(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "AAPL", Shares: 10, AvgCost: 150},
	}

	got := Resolve(holdings, []string{"AAPL", "TSLA"})
	want := []models.Holding{
		{Symbol: "AAPL", Shares: 10, AvgCost: 150},
		{Symbol: "TSLA", Shares: 0, AvgCost: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve with unknown symbol = %+v, want %+v", got, want)
	}
}

func TestSymbols(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "AAPL"},
		{Symbol: "MSFT"},
	}
	got := Symbols(holdings)
	want := []string{"AAPL", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Symbols = %v, want %v", got, want)
	}
}

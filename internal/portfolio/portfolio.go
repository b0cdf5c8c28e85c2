// Package portfolio loads holdings from the portfolio file and resolves
// caller-supplied symbol subsets.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"portfolio-analyst/internal/models"
)

// File is the on-disk portfolio format: {"stocks": [...]}.
type File struct {
	Stocks []models.Holding `json:"stocks"`
}

// Load reads the portfolio file at path.
func Load(path string) ([]models.Holding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading portfolio file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing portfolio file: %w", err)
	}

	return f.Stocks, nil
}

// Resolve returns the holdings to analyze. With no override it returns all
// holdings. With an override it returns one holding per requested symbol in
// request order; symbols absent from the portfolio are synthesized with zero
// shares and zero cost rather than rejected.
func Resolve(holdings []models.Holding, override []string) []models.Holding {
	if len(override) == 0 {
		return holdings
	}

	bySymbol := make(map[string]models.Holding, len(holdings))
	for _, h := range holdings {
		bySymbol[strings.ToUpper(h.Symbol)] = h
	}

	resolved := make([]models.Holding, 0, len(override))
	for _, sym := range override {
		sym = strings.ToUpper(sym)
		if h, ok := bySymbol[sym]; ok {
			resolved = append(resolved, h)
			continue
		}
		resolved = append(resolved, models.Holding{Symbol: sym})
	}

	return resolved
}

// Symbols returns the symbols of the given holdings in order.
func Symbols(holdings []models.Holding) []string {
	symbols := make([]string, len(holdings))
	for i, h := range holdings {
		symbols[i] = h.Symbol
	}
	return symbols
}

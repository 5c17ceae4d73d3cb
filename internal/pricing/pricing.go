// Package pricing keeps an order amount in sync with its selected spare parts.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/repairdesk/internal/compose"
	"github.com/nurpe/repairdesk/internal/model"
)

// PriceList is a name -> cost snapshot of the spare-part catalog. It is
// rebuilt on every catalog reload and never mutated afterwards.
type PriceList struct {
	costs map[string]decimal.Decimal
}

func NewPriceList(parts []model.SparePart) PriceList {
	costs := make(map[string]decimal.Decimal, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		costs[name] = model.NewCost(p.Cost.Decimal).Decimal
	}
	return PriceList{costs: costs}
}

func (l PriceList) Len() int {
	return len(l.costs)
}

// Cost returns zero for unknown names.
func (l PriceList) Cost(name string) decimal.Decimal {
	if c, ok := l.costs[name]; ok {
		return c
	}
	return decimal.Zero
}

func (l PriceList) Sum(tokens []string) decimal.Decimal {
	total := decimal.Zero
	for _, tok := range tokens {
		total = total.Add(l.Cost(tok))
	}
	return total
}

// ParseAmount reads the displayed amount; comma or dot, zero on failure.
func ParseAmount(text string) decimal.Decimal {
	return model.ParseDecimal(text)
}

func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Engine remembers the base amount of the order being edited. The base is
// captured once, from whatever amount is displayed on the first recompute
// after a load or reset.
type Engine struct {
	prices  PriceList
	base    decimal.Decimal
	hasBase bool
}

func NewEngine(prices PriceList) *Engine {
	return &Engine{prices: prices}
}

func (e *Engine) SetPrices(prices PriceList) {
	e.prices = prices
}

func (e *Engine) Prices() PriceList {
	return e.prices
}

func (e *Engine) Base() (decimal.Decimal, bool) {
	return e.base, e.hasBase
}

// Reset forgets the base so the next recompute captures a fresh one.
func (e *Engine) Reset() {
	e.base = decimal.Zero
	e.hasBase = false
}

// Total is base + sum of the costs of the spare-part tokens in the stored
// spare-parts value (only the token portion counts, not the comment).
func (e *Engine) Total(displayed, spareParts string) decimal.Decimal {
	if !e.hasBase {
		e.base = ParseAmount(displayed)
		e.hasBase = true
	}
	tokens := compose.Decompose(spareParts).Tokens
	return e.base.Add(e.prices.Sum(tokens))
}

// Recompute returns Total formatted with two decimals.
func (e *Engine) Recompute(displayed, spareParts string) string {
	return Format(e.Total(displayed, spareParts))
}

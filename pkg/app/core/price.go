package core

import "github.com/shopspring/decimal"

// RecomputePrices rewrites both prices from current stocks.
//
// A good gets dearer as its importer accumulates it:
//
//	wheat = clamp(10 * (1 + (town.wheat    - 50) / 100), 5, 20)
//	tools = clamp(10 * (1 + (village.tools - 50) / 100), 5, 20)
func RecomputePrices(s *MarketState) {
	s.Prices.Wheat = stockPrice(s.Town.Wheat)
	s.Prices.Tools = stockPrice(s.Village.Tools)
}

func stockPrice(importerStock decimal.Decimal) decimal.Decimal {
	offset := importerStock.Sub(PivotStock).Div(PriceSpread)
	return clamp(BasePrice.Mul(decimal.NewFromInt(1).Add(offset)), MinPrice, MaxPrice)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

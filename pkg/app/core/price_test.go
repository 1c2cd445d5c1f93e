package core

import (
	"testing"
)

func TestRecomputePrices(t *testing.T) {
	tests := []struct {
		name         string
		townWheat    float64
		villageTools float64
		wantWheat    float64
		wantTools    float64
	}{
		{name: "empty stocks hit the floor", townWheat: 0, villageTools: 0, wantWheat: 5, wantTools: 5},
		{name: "pivot gives base price", townWheat: 50, villageTools: 50, wantWheat: 10, wantTools: 10},
		{name: "linear between bounds", townWheat: 60, villageTools: 10, wantWheat: 11, wantTools: 6},
		{name: "fractional stock", townWheat: 52.5, villageTools: 47.5, wantWheat: 10.25, wantTools: 9.75},
		{name: "upper bound reached exactly", townWheat: 150, villageTools: 150, wantWheat: 20, wantTools: 20},
		{name: "above cap is clamped", townWheat: 200, villageTools: 1000, wantWheat: 20, wantTools: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMarketState()
			s.Town.Wheat = dec(tt.townWheat)
			s.Village.Tools = dec(tt.villageTools)

			RecomputePrices(s)

			assertDecimal(t, "prices.wheat", s.Prices.Wheat, tt.wantWheat)
			assertDecimal(t, "prices.tools", s.Prices.Tools, tt.wantTools)
			if err := s.Validate(); err != nil {
				t.Errorf("validate: %v", err)
			}
		})
	}
}

func TestRecomputePrices_BoundsOverStockRange(t *testing.T) {
	s := NewMarketState()
	for stock := 0; stock <= 400; stock += 7 {
		s.Town.Wheat = dec(float64(stock))
		s.Village.Tools = dec(float64(400 - stock))
		RecomputePrices(s)

		if !inPriceBounds(s.Prices.Wheat) || !inPriceBounds(s.Prices.Tools) {
			t.Fatalf("stock=%d: prices out of bounds wheat=%s tools=%s", stock, s.Prices.Wheat, s.Prices.Tools)
		}
	}
}

package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VillageState holds the wheat-producing party's ledger.
type VillageState struct {
	Wheat decimal.Decimal
	Tools decimal.Decimal
	Money decimal.Decimal

	WheatProductionRate decimal.Decimal // added per tick while below StorageCap
	WheatReserve        decimal.Decimal // wheat may never be sold below this floor
}

// TownState holds the tool-producing party's ledger.
type TownState struct {
	Wheat decimal.Decimal
	Tools decimal.Decimal
	Money decimal.Decimal

	ToolsProductionRate decimal.Decimal
}

// Prices are the current unit prices of both goods, always in [MinPrice, MaxPrice].
type Prices struct {
	Wheat decimal.Decimal
	Tools decimal.Decimal
}

// MarketState is the whole economic ledger. It carries no locking of its own:
// callers that share it across goroutines must serialize access (see market.App).
type MarketState struct {
	Village VillageState
	Town    TownState
	Prices  Prices
	Trades  *TradeLog

	nextSeq uint64
}

// NewMarketState returns the ledger with the fixed starting values.
func NewMarketState() *MarketState {
	return &MarketState{
		Village: VillageState{
			Wheat:               decimal.NewFromInt(100),
			Tools:               decimal.Zero,
			Money:               decimal.NewFromInt(500),
			WheatProductionRate: decimal.NewFromInt(2),
			WheatReserve:        decimal.NewFromInt(20),
		},
		Town: TownState{
			Wheat:               decimal.Zero,
			Tools:               decimal.NewFromInt(100),
			Money:               decimal.NewFromInt(1000),
			ToolsProductionRate: decimal.NewFromInt(1),
		},
		Prices: Prices{
			Wheat: BasePrice,
			Tools: BasePrice,
		},
		Trades:  NewTradeLog(RecentTradesLimit),
		nextSeq: 1,
	}
}

// TotalMoney is the money held by both parties combined. Trades never change it.
func (s *MarketState) TotalMoney() decimal.Decimal {
	return s.Village.Money.Add(s.Town.Money)
}

// WheatMarketOpen reports whether the village has wheat to sell above its reserve.
func (s *MarketState) WheatMarketOpen() bool {
	return s.Village.Wheat.GreaterThan(s.Village.WheatReserve)
}

// Validate checks the ledger invariants and returns the first violation found.
func (s *MarketState) Validate() error {
	quantities := []struct {
		name  string
		value decimal.Decimal
	}{
		{"village.wheat", s.Village.Wheat},
		{"village.tools", s.Village.Tools},
		{"village.money", s.Village.Money},
		{"town.wheat", s.Town.Wheat},
		{"town.tools", s.Town.Tools},
		{"town.money", s.Town.Money},
	}
	for _, q := range quantities {
		if q.value.IsNegative() {
			return fmt.Errorf("%w: %s=%s", ErrNegativeQuantity, q.name, q.value)
		}
	}

	if s.Village.Wheat.LessThan(s.Village.WheatReserve) {
		return fmt.Errorf("%w: wheat=%s reserve=%s", ErrReserveBreached, s.Village.Wheat, s.Village.WheatReserve)
	}

	if !inPriceBounds(s.Prices.Wheat) {
		return fmt.Errorf("%w: wheat=%s", ErrPriceOutOfBounds, s.Prices.Wheat)
	}
	if !inPriceBounds(s.Prices.Tools) {
		return fmt.Errorf("%w: tools=%s", ErrPriceOutOfBounds, s.Prices.Tools)
	}
	return nil
}

func inPriceBounds(p decimal.Decimal) bool {
	return !p.LessThan(MinPrice) && !p.GreaterThan(MaxPrice)
}

// Snapshot is an immutable copy of the ledger taken at one instant.
type Snapshot struct {
	Village      VillageState
	Town         TownState
	Prices       Prices
	RecentTrades []TradeEvent // chronological, at most RecentTradesLimit
}

// Snapshot copies the ledger. decimal.Decimal values are immutable, so a
// struct copy is a deep copy for everything except the trade log.
func (s *MarketState) Snapshot() Snapshot {
	return Snapshot{
		Village:      s.Village,
		Town:         s.Town,
		Prices:       s.Prices,
		RecentTrades: s.Trades.Recent(),
	}
}

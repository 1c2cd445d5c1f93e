package core

import "github.com/shopspring/decimal"

// Party identifies one side of the two-party economy
type Party string

const (
	Village Party = "village"
	Town    Party = "town"
)

// TradeKind names the good being sold. Wheat always flows village -> town,
// tools always flow town -> village.
type TradeKind int8

const (
	KindUnknown TradeKind = iota
	KindWheat
	KindTools
)

func (k TradeKind) String() string {
	switch k {
	case KindWheat:
		return "wheat"
	case KindTools:
		return "tools"
	default:
		return "unknown"
	}
}

// ParseTradeKind maps the wire name of a good onto a TradeKind.
// Unrecognized names map to KindUnknown, which the executor rejects as a
// business outcome rather than an error.
func ParseTradeKind(s string) TradeKind {
	switch s {
	case "wheat":
		return KindWheat
	case "tools":
		return KindTools
	default:
		return KindUnknown
	}
}

// Economic constants. Prices are clamped to [MinPrice, MaxPrice]; production
// stops adding once a stock reaches StorageCap.
var (
	BasePrice   = decimal.NewFromInt(10)
	MinPrice    = decimal.NewFromInt(5)
	MaxPrice    = decimal.NewFromInt(20)
	PivotStock  = decimal.NewFromInt(50)
	PriceSpread = decimal.NewFromInt(100)
	StorageCap  = decimal.NewFromInt(200)
)

package api

import (
	"time"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
)

// API response types for REST endpoints and WebSocket messages.
// Quantities leave the engine as decimals and are rendered as JSON numbers.

// ==============================
// Snapshot Types
// ==============================

// StateSnapshot is the full market state, served by GET /api/v1/state and
// pushed on the "market" channel after every tick
type StateSnapshot struct {
	Village      VillageInfo `json:"village"`
	Town         TownInfo    `json:"town"`
	Prices       PriceInfo   `json:"prices"`
	RecentTrades []TradeInfo `json:"recent_trades"` // last 10, oldest first
}

type VillageInfo struct {
	Wheat               float64 `json:"wheat"`
	Tools               float64 `json:"tools"`
	Money               float64 `json:"money"`
	WheatProductionRate float64 `json:"wheat_production_rate"`
	WheatReserve        float64 `json:"wheat_reserve"`
}

type TownInfo struct {
	Wheat               float64 `json:"wheat"`
	Tools               float64 `json:"tools"`
	Money               float64 `json:"money"`
	ToolsProductionRate float64 `json:"tools_production_rate"`
}

type PriceInfo struct {
	Wheat float64 `json:"wheat"`
	Tools float64 `json:"tools"`
}

// TradeInfo represents one executed trade
type TradeInfo struct {
	Timestamp   string  `json:"timestamp"` // RFC 3339, nanosecond precision
	WheatAmount float64 `json:"wheat_amount"`
	ToolsAmount float64 `json:"tools_amount"`
	WheatPrice  float64 `json:"wheat_price"`
	ToolsPrice  float64 `json:"tools_price"`
	Seller      string  `json:"seller"`
	Buyer       string  `json:"buyer"`
}

// HistoryTrade is a TradeInfo with its identity, served by GET /api/v1/trades
type HistoryTrade struct {
	ID  string `json:"id"`
	Seq uint64 `json:"seq"`
	TradeInfo
}

// StatusInfo summarizes engine counters
type StatusInfo struct {
	Tick            uint64  `json:"tick"`
	TradesTotal     uint64  `json:"trades_total"`
	TradesRejected  uint64  `json:"trades_rejected"`
	WheatMarketOpen bool    `json:"wheat_market_open"`
	TotalMoney      float64 `json:"total_money"`
	Subscribers     int     `json:"subscribers"`
	TickIntervalMs  int64   `json:"tick_interval_ms"`
}

// ==============================
// Trade Request Types
// ==============================

// TradeRequest is the payload for POST /api/v1/trade. Pointer fields tell a
// missing field apart from a zero value.
type TradeRequest struct {
	Type   *string  `json:"type"`
	Amount *float64 `json:"amount"`
}

// TradeResponse is the outcome of a well-formed trade request
type TradeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is returned for malformed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSRequest is sent by clients. Op is "subscribe", "unsubscribe" or "trade";
// Type and Amount are read only for "trade".
type WSRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels,omitempty"` // e.g. ["market", "trades"]
	Type     *string  `json:"type,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
}

// TradeUpdate is broadcast on the "trades" channel when a trade executes
type TradeUpdate struct {
	Type string `json:"type"` // "trade"
	Seq  uint64 `json:"seq"`
	TradeInfo
}

// WSTradeResult answers a client's "trade" op
type WSTradeResult struct {
	Type string `json:"type"` // "trade_result"
	TradeResponse
}

// WSError reports a malformed client message
type WSError struct {
	Type string `json:"type"` // "error"
	ErrorResponse
}

// ==============================
// Conversions
// ==============================

func toSnapshot(s core.Snapshot) StateSnapshot {
	trades := make([]TradeInfo, len(s.RecentTrades))
	for i, ev := range s.RecentTrades {
		trades[i] = toTradeInfo(ev)
	}
	return StateSnapshot{
		Village: VillageInfo{
			Wheat:               s.Village.Wheat.InexactFloat64(),
			Tools:               s.Village.Tools.InexactFloat64(),
			Money:               s.Village.Money.InexactFloat64(),
			WheatProductionRate: s.Village.WheatProductionRate.InexactFloat64(),
			WheatReserve:        s.Village.WheatReserve.InexactFloat64(),
		},
		Town: TownInfo{
			Wheat:               s.Town.Wheat.InexactFloat64(),
			Tools:               s.Town.Tools.InexactFloat64(),
			Money:               s.Town.Money.InexactFloat64(),
			ToolsProductionRate: s.Town.ToolsProductionRate.InexactFloat64(),
		},
		Prices: PriceInfo{
			Wheat: s.Prices.Wheat.InexactFloat64(),
			Tools: s.Prices.Tools.InexactFloat64(),
		},
		RecentTrades: trades,
	}
}

func toTradeInfo(ev core.TradeEvent) TradeInfo {
	return TradeInfo{
		Timestamp:   ev.Timestamp.Format(time.RFC3339Nano),
		WheatAmount: ev.WheatAmount.InexactFloat64(),
		ToolsAmount: ev.ToolsAmount.InexactFloat64(),
		WheatPrice:  ev.WheatPrice.InexactFloat64(),
		ToolsPrice:  ev.ToolsPrice.InexactFloat64(),
		Seller:      string(ev.Seller),
		Buyer:       string(ev.Buyer),
	}
}

func toTradeResponse(res core.TradeResult) TradeResponse {
	if res.OK() {
		return TradeResponse{Success: true}
	}
	return TradeResponse{Success: false, Error: res.Message()}
}

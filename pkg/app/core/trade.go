package core

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FailureReason explains why a well-formed trade was rejected.
type FailureReason int8

const (
	ReasonNone FailureReason = iota
	ReasonInvalidKind
	ReasonInsufficientReserve
	ReasonInsufficientStock
	ReasonInsufficientFunds
)

// String returns the message reported to clients. InsufficientFunds is
// phrased per buyer, see TradeResult.Message.
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonInvalidKind:
		return "Invalid trade type"
	case ReasonInsufficientReserve:
		return "Insufficient wheat reserves"
	case ReasonInsufficientStock:
		return "Insufficient tools"
	case ReasonInsufficientFunds:
		return "Insufficient funds"
	default:
		return "Unknown"
	}
}

// TradeRequest is a validated request to sell amount units of one good.
// Build it with NewTradeRequest.
type TradeRequest struct {
	kind   TradeKind
	amount decimal.Decimal
}

// NewTradeRequest validates the amount and resolves the kind name.
// An unknown kind is accepted here and rejected by ExecuteTrade.
func NewTradeRequest(kind string, amount float64) (TradeRequest, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return TradeRequest{}, ErrInvalidAmount
	}
	return TradeRequest{kind: ParseTradeKind(kind), amount: decimal.NewFromFloat(amount)}, nil
}

func (r TradeRequest) Kind() TradeKind          { return r.kind }
func (r TradeRequest) Amount() decimal.Decimal { return r.amount }

// TradeResult is the outcome of a well-formed trade: either a success carrying
// the recorded event, or a failure with a reason. Failures are ordinary values.
type TradeResult struct {
	Kind   TradeKind
	Reason FailureReason
	Event  *TradeEvent // set only on success
}

// OK reports whether the trade was applied.
func (r TradeResult) OK() bool { return r.Reason == ReasonNone }

// Message is the client-facing rejection text, empty on success.
func (r TradeResult) Message() string {
	if r.Reason != ReasonInsufficientFunds {
		return r.Reason.String()
	}
	if r.Kind == KindWheat {
		return "Town cannot afford wheat"
	}
	return "Village cannot afford tools"
}

// ExecuteTrade validates req against s and applies it in full or not at all.
//
// Checks run stock/reserve first, affordability second. A rejected trade
// leaves s untouched. The returned error is non-nil only for a malformed
// request (a zero-value TradeRequest).
func ExecuteTrade(s *MarketState, req TradeRequest, at time.Time) (TradeResult, error) {
	if !req.amount.IsPositive() {
		return TradeResult{}, ErrInvalidAmount
	}

	switch req.kind {
	case KindWheat:
		return sellWheat(s, req.amount, at), nil
	case KindTools:
		return sellTools(s, req.amount, at), nil
	default:
		return TradeResult{Kind: req.kind, Reason: ReasonInvalidKind}, nil
	}
}

// sellWheat moves wheat from the village to the town.
func sellWheat(s *MarketState, amount decimal.Decimal, at time.Time) TradeResult {
	if s.Village.Wheat.Sub(amount).LessThan(s.Village.WheatReserve) {
		return TradeResult{Kind: KindWheat, Reason: ReasonInsufficientReserve}
	}
	cost := amount.Mul(s.Prices.Wheat)
	if s.Town.Money.LessThan(cost) {
		return TradeResult{Kind: KindWheat, Reason: ReasonInsufficientFunds}
	}

	s.Village.Wheat = s.Village.Wheat.Sub(amount)
	s.Village.Money = s.Village.Money.Add(cost)
	s.Town.Wheat = s.Town.Wheat.Add(amount)
	s.Town.Money = s.Town.Money.Sub(cost)

	ev := s.record(at, amount, decimal.Zero, Village, Town)
	return TradeResult{Kind: KindWheat, Event: &ev}
}

// sellTools moves tools from the town to the village.
func sellTools(s *MarketState, amount decimal.Decimal, at time.Time) TradeResult {
	if s.Town.Tools.LessThan(amount) {
		return TradeResult{Kind: KindTools, Reason: ReasonInsufficientStock}
	}
	cost := amount.Mul(s.Prices.Tools)
	if s.Village.Money.LessThan(cost) {
		return TradeResult{Kind: KindTools, Reason: ReasonInsufficientFunds}
	}

	s.Town.Tools = s.Town.Tools.Sub(amount)
	s.Town.Money = s.Town.Money.Add(cost)
	s.Village.Tools = s.Village.Tools.Add(amount)
	s.Village.Money = s.Village.Money.Sub(cost)

	ev := s.record(at, decimal.Zero, amount, Town, Village)
	return TradeResult{Kind: KindTools, Event: &ev}
}

func (s *MarketState) record(at time.Time, wheat, tools decimal.Decimal, seller, buyer Party) TradeEvent {
	ev := TradeEvent{
		Seq:         s.nextSeq,
		ID:          uuid.NewString(),
		Timestamp:   at,
		WheatAmount: wheat,
		ToolsAmount: tools,
		WheatPrice:  s.Prices.Wheat,
		ToolsPrice:  s.Prices.Tools,
		Seller:      seller,
		Buyer:       buyer,
	}
	s.nextSeq++
	s.Trades.Append(ev)
	return ev
}

package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecentTradesLimit is how many trades the ledger keeps and reports.
const RecentTradesLimit = 10

// TradeEvent records one executed trade. Events are created only by
// ExecuteTrade and are never modified afterwards.
type TradeEvent struct {
	Seq         uint64          `json:"seq"`
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	WheatAmount decimal.Decimal `json:"wheat_amount"`
	ToolsAmount decimal.Decimal `json:"tools_amount"`
	WheatPrice  decimal.Decimal `json:"wheat_price"`
	ToolsPrice  decimal.Decimal `json:"tools_price"`
	Seller      Party           `json:"seller"`
	Buyer       Party           `json:"buyer"`
}

// Cost is the money that changed hands.
func (e TradeEvent) Cost() decimal.Decimal {
	if e.Seller == Village {
		return e.WheatAmount.Mul(e.WheatPrice)
	}
	return e.ToolsAmount.Mul(e.ToolsPrice)
}

// TradeLog is a fixed-capacity ring of the most recent trades.
// Older entries are overwritten; durable history belongs to a storage sink.
type TradeLog struct {
	buf   []TradeEvent
	head  int // index of the oldest entry
	count int
	total uint64
}

// NewTradeLog creates a log holding at most capacity events.
func NewTradeLog(capacity int) *TradeLog {
	if capacity < 1 {
		capacity = 1
	}
	return &TradeLog{buf: make([]TradeEvent, capacity)}
}

// Append adds an event, evicting the oldest one when full.
func (l *TradeLog) Append(e TradeEvent) {
	capacity := len(l.buf)
	if l.count < capacity {
		l.buf[(l.head+l.count)%capacity] = e
		l.count++
	} else {
		l.buf[l.head] = e
		l.head = (l.head + 1) % capacity
	}
	l.total++
}

// Recent returns a chronological copy of the retained events.
func (l *TradeLog) Recent() []TradeEvent {
	out := make([]TradeEvent, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.buf[(l.head+i)%len(l.buf)]
	}
	return out
}

// Len is the number of retained events.
func (l *TradeLog) Len() int { return l.count }

// Total counts every event ever appended, including evicted ones.
func (l *TradeLog) Total() uint64 { return l.total }

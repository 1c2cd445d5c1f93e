package storage

import (
	"sync"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
)

// MemoryStore keeps every trade in a slice. Useful for tests and for running
// without a data directory.
type MemoryStore struct {
	mu     sync.Mutex
	trades []core.TradeEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveTrade(ev core.TradeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, ev)
	return nil
}

func (s *MemoryStore) LoadRecentTrades(limit int) ([]core.TradeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		return []core.TradeEvent{}, nil
	}
	out := make([]core.TradeEvent, 0, limit)
	for i := len(s.trades) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.trades[i])
	}
	return out, nil
}

// Len is the number of stored trades.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

func (s *MemoryStore) Close() error { return nil }

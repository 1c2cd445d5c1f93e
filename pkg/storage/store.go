package storage

import (
	"fmt"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
)

// Store is what every backend in this package offers: an append-only trade
// sink that can also answer "what happened recently".
type Store interface {
	SaveTrade(ev core.TradeEvent) error
	LoadRecentTrades(limit int) ([]core.TradeEvent, error)
	Close() error
}

// Open builds the backend named by kind ("pebble", "journal", "memory", "none").
func Open(kind, path string) (Store, error) {
	switch kind {
	case "pebble":
		s, err := NewPebbleStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "journal":
		j, err := NewFileJournal(path)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "memory":
		return NewMemoryStore(), nil
	case "none", "":
		return NewNopSink(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

var (
	_ Store = (*PebbleStore)(nil)
	_ Store = (*FileJournal)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*NopSink)(nil)
)

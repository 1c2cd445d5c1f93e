package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
)

var (
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("storage: store closed")
	// ErrCorruptRecord is returned when a stored trade cannot be decoded.
	ErrCorruptRecord = errors.New("storage: corrupt trade record")
)

// PebbleStore is the durable trade sink. It only ever appends; the engine
// never reads it back on startup.
type PebbleStore struct {
	mu     sync.RWMutex
	db     *pebble.DB
	closed bool
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// SaveTrade persists a trade event
func (s *PebbleStore) SaveTrade(ev core.TradeEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	data, err := encodeGob(ev)
	if err != nil {
		return fmt.Errorf("failed to encode trade: %w", err)
	}

	if err := s.db.Set(tradeKey(ev.Timestamp, ev.Seq), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// LoadRecentTrades loads the most recent N trades, newest first. A record
// that fails to decode aborts the scan with ErrCorruptRecord.
func (s *PebbleStore) LoadRecentTrades(limit int) ([]core.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return []core.TradeEvent{}, nil
	}

	prefix := []byte(prefixTrade)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open trade iterator: %w", err)
	}
	defer iter.Close()

	trades := make([]core.TradeEvent, 0, limit)
	for iter.Last(); iter.Valid() && len(trades) < limit; iter.Prev() {
		var ev core.TradeEvent
		if err := decodeGob(iter.Value(), &ev); err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrCorruptRecord, iter.Key(), err)
		}
		trades = append(trades, ev)
	}

	return trades, iter.Error()
}

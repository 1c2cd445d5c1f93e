package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
)

// NopSink discards every event.
type NopSink struct{}

func NewNopSink() *NopSink                                      { return &NopSink{} }
func (NopSink) SaveTrade(core.TradeEvent) error                 { return nil }
func (NopSink) LoadRecentTrades(int) ([]core.TradeEvent, error) { return nil, nil }
func (NopSink) Close() error                                    { return nil }

// FileJournal appends one JSON object per trade to a file.
type FileJournal struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func NewFileJournal(path string) (*FileJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileJournal{path: path, f: f}, nil
}

func (j *FileJournal) SaveTrade(ev core.TradeEvent) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return ErrClosed
	}
	if _, err := j.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append trade: %w", err)
	}
	return nil
}

// LoadRecentTrades rescans the journal and returns the last limit entries,
// newest first. Lines that fail to decode are skipped.
func (j *FileJournal) LoadRecentTrades(limit int) ([]core.TradeEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return []core.TradeEvent{}, nil
	}

	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	window := make([]core.TradeEvent, 0, limit)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev core.TradeEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			continue
		}
		if len(window) == limit {
			window = append(window[:0], window[1:]...)
		}
		window = append(window, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i, k := 0, len(window)-1; i < k; i, k = i+1, k-1 {
		window[i], window[k] = window[k], window[i]
	}
	return window, nil
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	err := j.f.Close()
	j.f = nil
	return err
}

package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
)

func sampleTrade(seq uint64) core.TradeEvent {
	return core.TradeEvent{
		Seq:         seq,
		ID:          "trade-" + decimal.NewFromInt(int64(seq)).String(),
		Timestamp:   time.Date(2024, 3, 1, 12, 0, int(seq), 0, time.UTC),
		WheatAmount: decimal.RequireFromString("2.5"),
		ToolsAmount: decimal.Zero,
		WheatPrice:  decimal.RequireFromString("10.25"),
		ToolsPrice:  decimal.NewFromInt(5),
		Seller:      core.Village,
		Buyer:       core.Town,
	}
}

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	pebbleStore, err := NewPebbleStore(filepath.Join(dir, "pebble"))
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	journal, err := NewFileJournal(filepath.Join(dir, "journal", "trades.jsonl"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	backends := map[string]Store{
		"pebble":  pebbleStore,
		"journal": journal,
		"memory":  NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range backends {
			s.Close()
		}
	})
	return backends
}

func TestStores_SaveAndLoadRecent(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for seq := uint64(1); seq <= 5; seq++ {
				if err := store.SaveTrade(sampleTrade(seq)); err != nil {
					t.Fatalf("save %d: %v", seq, err)
				}
			}

			got, err := store.LoadRecentTrades(3)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 trades, got %d", len(got))
			}
			for i, want := range []uint64{5, 4, 3} {
				if got[i].Seq != want {
					t.Errorf("got[%d].Seq = %d, want %d", i, got[i].Seq, want)
				}
			}

			ev := got[0]
			want := sampleTrade(5)
			if ev.ID != want.ID || ev.Seller != core.Village || ev.Buyer != core.Town {
				t.Errorf("identity fields lost: %+v", ev)
			}
			if !ev.WheatAmount.Equal(want.WheatAmount) || !ev.WheatPrice.Equal(want.WheatPrice) {
				t.Errorf("decimal fields lost: amount=%s price=%s", ev.WheatAmount, ev.WheatPrice)
			}
			if !ev.Timestamp.Equal(want.Timestamp) {
				t.Errorf("timestamp = %v, want %v", ev.Timestamp, want.Timestamp)
			}

			all, err := store.LoadRecentTrades(100)
			if err != nil || len(all) != 5 {
				t.Fatalf("expected all 5 trades, got %d (err=%v)", len(all), err)
			}
		})
	}
}

func TestStores_NonPositiveLimit(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for seq := uint64(1); seq <= 2; seq++ {
				if err := store.SaveTrade(sampleTrade(seq)); err != nil {
					t.Fatalf("save %d: %v", seq, err)
				}
			}
			for _, limit := range []int{0, -1, -100} {
				got, err := store.LoadRecentTrades(limit)
				if err != nil {
					t.Fatalf("limit %d: %v", limit, err)
				}
				if len(got) != 0 {
					t.Errorf("limit %d: got %d trades, want none", limit, len(got))
				}
			}
		})
	}
}

func TestPebbleStore_CorruptRecord(t *testing.T) {
	s, err := NewPebbleStore(filepath.Join(t.TempDir(), "pebble"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.SaveTrade(sampleTrade(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	bad := tradeKey(sampleTrade(2).Timestamp, 2)
	if err := s.db.Set(bad, []byte("not a gob stream"), pebble.Sync); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.LoadRecentTrades(10)
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v (%d trades)", err, len(got))
	}
}

func TestPebbleStore_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pebble")

	s, err := NewPebbleStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveTrade(sampleTrade(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.SaveTrade(sampleTrade(2)); !errors.Is(err, ErrClosed) {
		t.Fatalf("save after close: got %v, want ErrClosed", err)
	}

	// A new run restarts sequence numbers; the timestamp keeps keys distinct.
	s, err = NewPebbleStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	again := sampleTrade(1)
	again.Timestamp = again.Timestamp.Add(time.Hour)
	again.ID = "second-run"
	if err := s.SaveTrade(again); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadRecentTrades(10)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "second-run" || got[1].ID != sampleTrade(1).ID {
		t.Fatalf("unexpected history after reopen: %+v", got)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"pebble", "journal", "memory", "none"} {
		s, err := Open(kind, filepath.Join(dir, kind))
		if err != nil {
			t.Fatalf("Open(%q): %v", kind, err)
		}
		if err := s.SaveTrade(sampleTrade(1)); err != nil {
			t.Errorf("%s: save: %v", kind, err)
		}
		s.Close()
	}

	if _, err := Open("redis", ""); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestTradeKeyOrdering(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := string(tradeKey(base, 9))
	b := string(tradeKey(base, 10))
	c := string(tradeKey(base.Add(time.Nanosecond), 1))
	if !(a < b && b < c) {
		t.Fatalf("keys not ordered: %s %s %s", a, b, c)
	}
}

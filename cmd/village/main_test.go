package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/villagemarket/params"
)

func testConfig(t *testing.T, addr string) params.Config {
	t.Helper()
	cfg := params.Default()
	cfg.API.Addr = addr
	cfg.Storage.Backend = "journal"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "trades.jsonl")
	return cfg
}

func runAsync(ctx context.Context, cfg params.Config) <-chan error {
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zap.NewNop().Sugar()) }()
	return done
}

func TestRun_ListenFailureIsReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case err := <-runAsync(ctx, testConfig(t, "127.0.0.1:-1")):
		if err == nil {
			t.Fatalf("run returned nil for an unusable listen address")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after the API server failed")
	}
}

func TestRun_CancelIsCleanShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, testConfig(t, "127.0.0.1:0"))

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run after cancel = %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestRun_BadStorageIsReported(t *testing.T) {
	cfg := testConfig(t, "127.0.0.1:0")
	cfg.Storage.Backend = "tape"

	if err := run(context.Background(), cfg, zap.NewNop().Sugar()); err == nil {
		t.Fatalf("run accepted an unknown storage backend")
	}
}

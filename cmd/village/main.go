package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uhyunpark/villagemarket/params"
	"github.com/uhyunpark/villagemarket/pkg/api"
	"github.com/uhyunpark/villagemarket/pkg/app/core"
	"github.com/uhyunpark/villagemarket/pkg/app/market"
	"github.com/uhyunpark/villagemarket/pkg/storage"
	"github.com/uhyunpark/villagemarket/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Log.File, util.ParseLevel(cfg.Log.Level))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File, "level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run has closed the sink by the time it returns, so exiting here loses nothing
	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Fatalw("village_failed", "err", err)
	}
}

// run wires the sink, engine, API server and optional trader, and blocks
// until ctx is cancelled or one of them fails. A clean shutdown returns nil.
func run(ctx context.Context, cfg params.Config, sugar *zap.SugaredLogger) error {
	// ---- Trade sink ----
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open %s storage at %q: %w", cfg.Storage.Backend, cfg.Storage.Path, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			sugar.Warnw("storage_close_failed", "err", err)
		}
	}()
	sugar.Infow("storage_opened", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)

	// ---- Market engine ----
	app := market.NewApp(market.Config{
		TickInterval: cfg.Simulation.TickInterval,
		Clock:        util.RealClock{},
		Sink:         store,
		Logger:       sugar,
		Verbose:      cfg.Log.Verbose,
	})

	// ---- API Server ----
	apiServer := api.NewServer(app, api.Config{
		AllowedOrigins: cfg.API.AllowedOrigins,
		History:        store,
		Logger:         sugar,
	})

	// Hook engine to API server: snapshot on every tick, one message per trade
	app.OnTick = func(tick uint64, snap core.Snapshot) {
		apiServer.BroadcastSnapshot(tick, snap)
	}
	app.OnTrade = func(ev core.TradeEvent) {
		apiServer.BroadcastTrade(ev)
	}

	// ---- Automated trader (optional) ----
	// Enable with: ENABLE_TRADER=true TRADER_INTERVAL_MS=2000 TRADER_MAX_AMOUNT=10
	if cfg.Trader.Enabled {
		traderCfg := market.DefaultTraderConfig()
		traderCfg.Interval = cfg.Trader.Interval
		traderCfg.MaxAmount = cfg.Trader.MaxAmount
		traderCfg.Seed = cfg.Trader.Seed
		traderCfg.Logger = sugar

		cancelTrader := market.StartTrader(ctx, app, traderCfg)
		defer cancelTrader()
	} else {
		sugar.Info("trader_disabled")
	}

	sugar.Infow("village_starting",
		"tick_interval_ms", cfg.Simulation.TickInterval.Milliseconds(),
		"api_addr", cfg.API.Addr,
		"storage", cfg.Storage.Backend,
		"trader", cfg.Trader.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(gctx)
	})
	g.Go(func() error {
		return apiServer.Serve(gctx, cfg.API.Addr)
	})
	g.Go(func() error {
		return logProgress(gctx, app, sugar)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	sugar.Infow("village_stopped", "ticks", app.Status().Tick, "trades", app.Status().TradesTotal)
	return nil
}

// logProgress prints a summary line every 10 seconds
func logProgress(ctx context.Context, app *market.App, log *zap.SugaredLogger) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st := app.Status()
			snap := app.Snapshot()
			log.Infow("market_progress",
				"tick", st.Tick,
				"trades", st.TradesTotal,
				"rejected", st.Rejected,
				"wheat_market_open", st.WheatMarketOpen,
				"wheat_price", snap.Prices.Wheat,
				"tools_price", snap.Prices.Tools)
		}
	}
}

package market

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
	"github.com/uhyunpark/villagemarket/pkg/util"
)

// TraderConfig controls the automated trader
type TraderConfig struct {
	Interval   time.Duration // time between trades
	MaxAmount  float64       // amounts are drawn from [1, MaxAmount], one decimal place
	Seed       int64         // 0 seeds from the clock
	Logger     *zap.SugaredLogger
	StatsEvery int // log running totals every N trades, 0 disables
}

// DefaultTraderConfig returns a gentle trader that won't drain either party quickly
func DefaultTraderConfig() TraderConfig {
	return TraderConfig{
		Interval:   2 * time.Second,
		MaxAmount:  10,
		StatsEvery: 50,
	}
}

// tradeGenerator draws random trade requests
type tradeGenerator struct {
	rng       *rand.Rand
	maxAmount float64
}

func newTradeGenerator(seed int64, maxAmount float64) *tradeGenerator {
	if maxAmount < 1 {
		maxAmount = 1
	}
	return &tradeGenerator{rng: rand.New(rand.NewSource(seed)), maxAmount: maxAmount}
}

// next returns a wheat or tools request, 50/50
func (g *tradeGenerator) next() core.TradeRequest {
	kind := "wheat"
	if g.rng.Intn(2) == 1 {
		kind = "tools"
	}
	amount := 1 + g.rng.Float64()*(g.maxAmount-1)
	amount = math.Round(amount*10) / 10
	// amount >= 1 here, so the request is always well-formed
	req, _ := core.NewTradeRequest(kind, amount)
	return req
}

// StartTrader starts a background goroutine that keeps submitting random trades
// through app.ExecuteTrade, the same path external requests take.
// Returns a cancel function to stop the trader
func StartTrader(ctx context.Context, app *App, cfg TraderConfig) context.CancelFunc {
	log := util.OrNop(cfg.Logger)
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTraderConfig().Interval
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = app.clock.Now().UnixNano()
	}
	gen := newTradeGenerator(seed, cfg.MaxAmount)

	traderCtx, cancel := context.WithCancel(ctx)

	go func() {
		var accepted, rejected int

		log.Infow("trader_started", "interval_ms", cfg.Interval.Milliseconds(), "max_amount", gen.maxAmount)

		for {
			select {
			case <-traderCtx.Done():
				log.Infow("trader_stopped", "accepted", accepted, "rejected", rejected)
				return

			case <-app.clock.After(cfg.Interval):
				res, err := app.ExecuteTrade(gen.next())
				if err != nil {
					log.Warnw("trader_request_invalid", "err", err)
					continue
				}
				if res.OK() {
					accepted++
				} else {
					rejected++
				}

				if n := accepted + rejected; cfg.StatsEvery > 0 && n%cfg.StatsEvery == 0 {
					log.Infow("trader_stats", "submitted", n, "accepted", accepted, "rejected", rejected)
				}
			}
		}
	}()

	return cancel
}

package market

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
	"github.com/uhyunpark/villagemarket/pkg/util"
)

// TradeSink receives every committed trade, in the order trades were applied
// as far as a single caller can observe. Implementations live in pkg/storage.
type TradeSink interface {
	SaveTrade(ev core.TradeEvent) error
}

type Config struct {
	TickInterval time.Duration
	Clock        util.Clock // defaults to util.RealClock
	Sink         TradeSink  // optional
	Logger       *zap.SugaredLogger
	Verbose      bool // log every tick at debug level
}

// Status is a cheap summary of the engine counters.
type Status struct {
	Tick            uint64
	TradesTotal     uint64
	Rejected        uint64
	WheatMarketOpen bool
	TotalMoney      decimal.Decimal
	TickInterval    time.Duration
}

// App owns the market ledger. Every mutation (Tick, ExecuteTrade) and every
// snapshot read runs under one mutex, so a trade's read-validate-apply
// sequence never interleaves with production or with another trade.
//
// The lock covers arithmetic only. Sink writes, hooks and logging run after
// it is released.
type App struct {
	mu         sync.Mutex
	state      *core.MarketState
	ticks      uint64
	rejected   uint64
	marketOpen bool

	interval time.Duration
	clock    util.Clock
	sink     TradeSink
	log      *zap.SugaredLogger
	verbose  bool

	// Hooks, set before Run. Called outside the lock.
	OnTick  func(tick uint64, snap core.Snapshot)
	OnTrade func(ev core.TradeEvent)
}

func NewApp(cfg Config) *App {
	if cfg.Clock == nil {
		cfg.Clock = util.RealClock{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	state := core.NewMarketState()
	return &App{
		state:      state,
		marketOpen: state.WheatMarketOpen(),
		interval:   cfg.TickInterval,
		clock:      cfg.Clock,
		sink:       cfg.Sink,
		log:        util.OrNop(cfg.Logger),
		verbose:    cfg.Verbose,
	}
}

// Run ticks the market once per interval until ctx is cancelled, handing
// each post-tick snapshot to OnTick.
func (a *App) Run(ctx context.Context) error {
	a.log.Infow("simulation_started", "tick_interval_ms", a.interval.Milliseconds())
	for {
		select {
		case <-ctx.Done():
			a.log.Infow("simulation_stopped", "ticks", a.Status().Tick)
			return ctx.Err()
		case <-a.clock.After(a.interval):
			tick, snap := a.Tick()
			if a.OnTick != nil {
				a.OnTick(tick, snap)
			}
		}
	}
}

// Tick runs one production step and returns the tick number and the state
// right after it.
func (a *App) Tick() (uint64, core.Snapshot) {
	a.mu.Lock()
	core.Tick(a.state)
	a.ticks++
	tick := a.ticks
	snap := a.state.Snapshot()
	changed, open := a.trackMarketOpenLocked()
	var invErr error
	if a.verbose {
		invErr = a.state.Validate()
	}
	a.mu.Unlock()

	if changed {
		a.logMarketOpen(open)
	}
	if invErr != nil {
		a.log.Errorw("invariant_violated", "tick", tick, "err", invErr)
	}
	if a.verbose {
		a.log.Debugw("tick",
			"tick", tick,
			"village_wheat", snap.Village.Wheat,
			"town_tools", snap.Town.Tools,
			"wheat_price", snap.Prices.Wheat,
			"tools_price", snap.Prices.Tools)
	}
	return tick, snap
}

// ExecuteTrade applies req atomically. Business rejections come back in the
// result; the error is reserved for malformed requests.
func (a *App) ExecuteTrade(req core.TradeRequest) (core.TradeResult, error) {
	a.mu.Lock()
	res, err := core.ExecuteTrade(a.state, req, a.clock.Now())
	if err == nil && !res.OK() {
		a.rejected++
	}
	changed, open := a.trackMarketOpenLocked()
	a.mu.Unlock()

	if err != nil {
		return res, err
	}
	if changed {
		a.logMarketOpen(open)
	}

	if !res.OK() {
		a.log.Debugw("trade_rejected",
			"type", req.Kind().String(),
			"amount", req.Amount(),
			"reason", res.Message())
		return res, nil
	}

	ev := *res.Event
	a.log.Infow("trade_executed",
		"seq", ev.Seq,
		"type", req.Kind().String(),
		"amount", req.Amount(),
		"cost", ev.Cost(),
		"seller", ev.Seller,
		"buyer", ev.Buyer)

	if a.sink != nil {
		if err := a.sink.SaveTrade(ev); err != nil {
			a.log.Warnw("trade_sink_failed", "seq", ev.Seq, "id", ev.ID, "err", err)
		}
	}
	if a.OnTrade != nil {
		a.OnTrade(ev)
	}
	return res, nil
}

// Snapshot returns a consistent copy of the latest committed state.
func (a *App) Snapshot() core.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Snapshot()
}

func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		Tick:            a.ticks,
		TradesTotal:     a.state.Trades.Total(),
		Rejected:        a.rejected,
		WheatMarketOpen: a.marketOpen,
		TotalMoney:      a.state.TotalMoney(),
		TickInterval:    a.interval,
	}
}

// trackMarketOpenLocked records the wheat market status and reports a change.
// Caller holds a.mu.
func (a *App) trackMarketOpenLocked() (changed, open bool) {
	open = a.state.WheatMarketOpen()
	changed = open != a.marketOpen
	a.marketOpen = open
	return changed, open
}

func (a *App) logMarketOpen(open bool) {
	if open {
		a.log.Infow("wheat_market_opened")
	} else {
		a.log.Infow("wheat_market_closed")
	}
}

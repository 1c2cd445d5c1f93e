package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/villagemarket/pkg/app/core"
	"github.com/uhyunpark/villagemarket/pkg/app/market"
	"github.com/uhyunpark/villagemarket/pkg/util"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 16
)

var errMissingField = errors.New("missing field")

// TradeHistory answers GET /api/v1/trades. Every pkg/storage backend satisfies it.
type TradeHistory interface {
	LoadRecentTrades(limit int) ([]core.TradeEvent, error)
}

type Config struct {
	AllowedOrigins []string
	History        TradeHistory // optional, /trades returns [] without it
	Logger         *zap.SugaredLogger
}

// Server handles REST API and WebSocket connections
type Server struct {
	app     *market.App
	router  *mux.Router
	hub     *Hub // WebSocket hub
	history TradeHistory
	origins []string
	log     *zap.SugaredLogger
}

// NewServer creates a new API server
func NewServer(app *market.App, cfg Config) *Server {
	log := util.OrNop(cfg.Logger)
	s := &Server{
		app:     app,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		history: cfg.History,
		origins: cfg.AllowedOrigins,
		log:     log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/trade", s.handleTrade).Methods("POST")
	api.HandleFunc("/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/status", s.handleGetStatus).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped in the CORS policy
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Serve runs the WebSocket hub and the HTTP server until ctx is cancelled,
// then shuts the server down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("api_server_starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.log.Infow("api_server_stopped")
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var body TradeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		respondError(w, http.StatusBadRequest, "invalid request body", "unexpected data after JSON object")
		return
	}

	res, err := s.executeTrade(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid trade request", err.Error())
		return
	}

	respondJSON(w, res)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, toSnapshot(s.app.Snapshot()))
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	st := s.app.Status()
	respondJSON(w, StatusInfo{
		Tick:            st.Tick,
		TradesTotal:     st.TradesTotal,
		TradesRejected:  st.Rejected,
		WheatMarketOpen: st.WheatMarketOpen,
		TotalMoney:      st.TotalMoney.InexactFloat64(),
		Subscribers:     s.hub.ClientCount(),
		TickIntervalMs:  st.TickInterval.Milliseconds(),
	})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if s.history == nil {
		respondJSON(w, []HistoryTrade{})
		return
	}

	events, err := s.history.LoadRecentTrades(limit)
	if err != nil {
		s.log.Errorw("trade_history_failed", "limit", limit, "err", err)
		respondError(w, http.StatusInternalServerError, "trade history unavailable", err.Error())
		return
	}

	response := make([]HistoryTrade, len(events))
	for i, ev := range events {
		response[i] = HistoryTrade{ID: ev.ID, Seq: ev.Seq, TradeInfo: toTradeInfo(ev)}
	}
	respondJSON(w, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// executeTrade validates a decoded request and runs it through the engine.
// REST and WebSocket submissions share it.
func (s *Server) executeTrade(body TradeRequest) (TradeResponse, error) {
	if body.Type == nil {
		return TradeResponse{}, fmt.Errorf("%w: type", errMissingField)
	}
	if body.Amount == nil {
		return TradeResponse{}, fmt.Errorf("%w: amount", errMissingField)
	}

	req, err := core.NewTradeRequest(*body.Type, *body.Amount)
	if err != nil {
		return TradeResponse{}, err
	}

	res, err := s.app.ExecuteTrade(req)
	if err != nil {
		return TradeResponse{}, err
	}
	return toTradeResponse(res), nil
}

// ==============================
// Broadcast Methods (called from the simulation hooks)
// ==============================

// BroadcastSnapshot pushes the post-tick state to "market" subscribers
func (s *Server) BroadcastSnapshot(tick uint64, snap core.Snapshot) {
	s.hub.BroadcastToChannel(ChannelMarket, toSnapshot(snap))
}

// BroadcastTrade pushes an executed trade to "trades" subscribers
func (s *Server) BroadcastTrade(ev core.TradeEvent) {
	s.hub.BroadcastToChannel(ChannelTrades, TradeUpdate{
		Type:      "trade",
		Seq:       ev.Seq,
		TradeInfo: toTradeInfo(ev),
	})
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}

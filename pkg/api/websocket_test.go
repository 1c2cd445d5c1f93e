package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uhyunpark/villagemarket/pkg/app/market"
)

// envelope picks the "type" discriminator out of any hub message
type envelope struct {
	Type string `json:"type"`
}

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitUntil(t, "client registered", func() bool { return env.srv.hub.ClientCount() == 1 })
	return conn
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func readInto(t *testing.T, conn *websocket.Conn, wantType string, v interface{}) {
	t.Helper()
	msg := readMessage(t, conn)
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("unmarshal %s: %v", msg, err)
	}
	if env.Type != wantType {
		t.Fatalf("message type = %q, want %q (%s)", env.Type, wantType, msg)
	}
	if err := json.Unmarshal(msg, v); err != nil {
		t.Fatalf("unmarshal %s: %v", msg, err)
	}
}

func TestWebSocket_MarketSnapshotOnTick(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)

	tick, snap := env.app.Tick()
	env.srv.BroadcastSnapshot(tick, snap)

	var got StateSnapshot
	if err := json.Unmarshal(readMessage(t, conn), &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Village.Wheat != 102 || got.Town.Tools != 101 {
		t.Errorf("snapshot after tick = %+v / %+v", got.Village, got.Town)
	}
	if got.RecentTrades == nil {
		t.Errorf("recent_trades should be an array")
	}
}

func TestWebSocket_TradeOpRepliesAndBroadcasts(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)

	if err := conn.WriteJSON(map[string]interface{}{"op": "subscribe", "channels": []string{"trades"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(map[string]interface{}{"op": "trade", "type": "wheat", "amount": 5}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// the trades broadcast is queued inside ExecuteTrade, before the reply
	var update TradeUpdate
	readInto(t, conn, "trade", &update)
	if update.Seq != 1 || update.Seller != "village" || update.WheatAmount != 5 {
		t.Errorf("trade update = %+v", update)
	}

	var result WSTradeResult
	readInto(t, conn, "trade_result", &result)
	if !result.Success || result.Error != "" {
		t.Errorf("trade result = %+v", result)
	}

	if st := env.app.Status(); st.TradesTotal != 1 {
		t.Errorf("trades total = %d, want 1", st.TradesTotal)
	}
}

func TestWebSocket_RejectionAndErrors(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)

	conn.WriteJSON(map[string]interface{}{"op": "trade", "type": "tools", "amount": 1000})
	var result WSTradeResult
	readInto(t, conn, "trade_result", &result)
	if result.Success || result.Error != "Insufficient tools" {
		t.Errorf("trade result = %+v", result)
	}

	for _, msg := range []string{
		`{"op":"trade","type":"wheat"}`,
		`{"op":"trade","type":"wheat","amount":-1}`,
		`{"op":"dance"}`,
		`{"op":"subscribe","channels":["orderbook"]}`,
		`not json`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
		var werr WSError
		readInto(t, conn, "error", &werr)
		if werr.Error == "" {
			t.Errorf("%s: empty error", msg)
		}
	}

	if st := env.app.Status(); st.TradesTotal != 0 || st.Rejected != 1 {
		t.Errorf("status = %+v, want only the one business rejection", st)
	}
}

func TestWebSocket_UnsubscribeMarket(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)

	conn.WriteJSON(map[string]interface{}{"op": "unsubscribe", "channels": []string{"market"}})
	conn.WriteJSON(map[string]interface{}{"op": "trade", "type": "gold", "amount": 1})

	// the reply proves the unsubscribe was processed first
	var result WSTradeResult
	readInto(t, conn, "trade_result", &result)
	if result.Error != "Invalid trade type" {
		t.Fatalf("trade result = %+v", result)
	}

	tick, snap := env.app.Tick()
	env.srv.BroadcastSnapshot(tick, snap)

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, msg, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unsubscribed client still received %s", msg)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	app := market.NewApp(market.Config{Clock: mockClock()})
	srv := NewServer(app, Config{Logger: zap.NewNop().Sugar()})

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		srv.hub.Run(ctx)
		close(hubDone)
	}()

	env := &testEnv{srv: srv, app: app}
	conn := dialWS(t, env)

	cancel()
	<-hubDone

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Fatalf("expected close frame, got %v", err)
	}
	if n := srv.hub.ClientCount(); n != 0 {
		t.Errorf("hub still tracks %d clients", n)
	}
}

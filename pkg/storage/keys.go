package storage

import (
	"fmt"
	"time"
)

// Key schema for Pebble storage:
//
//	trade:<unix-nanos>:<seq> → TradeEvent (gob)
//
// Both numbers are zero-padded to 20 digits so lexicographic order is
// chronological order, and the sequence keeps keys unique across restarts
// that reuse low sequence numbers.
const prefixTrade = "trade:"

// tradeKey returns the key for a trade
func tradeKey(ts time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", prefixTrade, ts.UnixNano(), seq))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

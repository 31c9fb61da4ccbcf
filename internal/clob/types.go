// Package clob implements the centralized limit-order-book matching engine:
// price-indexed collections per side, FIFO matching within a level, and the
// identifier/clock allocation the submission pipeline depends on.
package clob

import (
	"regexp"
	"time"
)

// Side is which direction an order trades.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderType distinguishes resting limit orders from immediate-or-discard
// market orders.
type OrderType string

const (
	Limit  OrderType = "limit"
	Market OrderType = "market"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,16}$`)

// TradingPair identifies a market. Immutable once constructed.
type TradingPair struct {
	Base  string
	Quote string
}

func (p TradingPair) String() string {
	return p.Base + "/" + p.Quote
}

// Order is a live or historical order record. Quantity only ever decreases
// once admitted; Price is nil for market orders.
type Order struct {
	ID        uint64
	Trader    string
	Pair      TradingPair
	Side      Side
	Type      OrderType
	Price     *uint64
	Quantity  uint64
	Timestamp int64
}

// Trade is an immutable record of one fill. ID is assigned by the pipeline
// after matching returns, so a freshly emitted Trade carries ID 0.
type Trade struct {
	ID           uint64
	MakerOrderID uint64
	TakerOrderID uint64
	Pair         TradingPair
	Price        uint64
	Quantity     uint64
	Timestamp    int64
}

// DepthLevel is one row of an aggregated depth snapshot.
type DepthLevel struct {
	Price    uint64
	Quantity uint64
}

// DepthSnapshot is the top-N view of both sides of a book at an instant.
type DepthSnapshot struct {
	Pair      TradingPair
	Bids      []DepthLevel
	Asks      []DepthLevel
	BestBid   *uint64
	BestAsk   *uint64
	Timestamp int64
}

// Clock abstracts wall-clock seconds so tests can pin a value. Production
// code uses systemClock.
type Clock interface {
	NowUnix() int64
}

type systemClock struct{}

func (systemClock) NowUnix() int64 { return time.Now().Unix() }

// SystemClock is the process-wide wall clock.
var SystemClock Clock = systemClock{}

// ClampLevels enforces the [1, 100] bound §4.4 and §4.9 place on any
// requested depth size.
func ClampLevels(n int) int {
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}

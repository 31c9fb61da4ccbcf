package clob

import (
	"sync"

	"github.com/tidwall/btree"
)

// priceLevel is one resting price on one side of a book: the FIFO queue of
// order ids at that price plus their aggregate quantity. Orders is kept in
// insertion order; index 0 has time priority.
type priceLevel struct {
	price    uint64
	orders   []uint64
	totalQty uint64
}

// Book is a single trading pair's order book: two price-indexed btrees (bids
// ordered so the best price sorts first, asks likewise) plus the owning
// index of live orders. A single RWMutex guards both sides and the index
// together, matching the "book is the only shared mutable state" discipline
// the concurrency model calls for.
type Book struct {
	mu     sync.RWMutex
	pair   TradingPair
	bids   *btree.BTreeG[*priceLevel]
	asks   *btree.BTreeG[*priceLevel]
	orders map[uint64]*Order
	clock  Clock
}

// NewBook builds an empty book for pair. The bids tree sorts highest price
// first and the asks tree sorts lowest price first, so Min() on either tree
// always yields that side's top of book in O(log n).
func NewBook(pair TradingPair, clock Clock) *Book {
	if clock == nil {
		clock = SystemClock
	}
	return &Book{
		pair: pair,
		bids: btree.NewBTreeG[*priceLevel](func(a, b *priceLevel) bool {
			return a.price > b.price
		}),
		asks: btree.NewBTreeG[*priceLevel](func(a, b *priceLevel) bool {
			return a.price < b.price
		}),
		orders: make(map[uint64]*Order),
		clock:  clock,
	}
}

// Submit admits order into the book: it matches against the opposing side
// under price-time priority and, for any unfilled remainder, rests the
// order on its own side. The returned trades carry ID 0 — the caller
// (submission pipeline step 7) stamps trade ids after this call returns,
// inside its own lock around this call, so that trade-id ordering matches
// book-lock acquisition order across concurrent submissions (§5).
func (b *Book) Submit(order *Order) []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	trades := b.match(order)

	if order.Quantity > 0 {
		switch order.Type {
		case Limit:
			b.rest(order)
		case Market:
			// Residual on a market order is discarded, not rested (§4.3).
		}
	}

	return trades
}

func (b *Book) match(incoming *Order) []Trade {
	var opposing *btree.BTreeG[*priceLevel]
	if incoming.Side == Buy {
		opposing = b.asks
	} else {
		opposing = b.bids
	}

	var trades []Trade
	remaining := incoming.Quantity

	for remaining > 0 {
		level, ok := opposing.Min()
		if !ok {
			break
		}
		if incoming.Type == Limit && !crosses(incoming.Side, *incoming.Price, level.price) {
			break
		}

		for len(level.orders) > 0 && remaining > 0 {
			makerID := level.orders[0]
			maker := b.orders[makerID]

			fill := maker.Quantity
			if remaining < fill {
				fill = remaining
			}

			trades = append(trades, Trade{
				MakerOrderID: maker.ID,
				TakerOrderID: incoming.ID,
				Pair:         b.pair,
				Price:        level.price,
				Quantity:     fill,
				Timestamp:    b.clock.NowUnix(),
			})

			remaining -= fill
			maker.Quantity -= fill
			level.totalQty -= fill

			if maker.Quantity == 0 {
				level.orders = level.orders[1:]
				delete(b.orders, maker.ID)
			}
		}

		if len(level.orders) == 0 {
			opposing.Delete(level)
		}
	}

	incoming.Quantity = remaining
	return trades
}

// crosses reports whether a limit order on side can trade against a resting
// price p: a buy crosses any ask at or below its limit, a sell crosses any
// bid at or above its limit.
func crosses(side Side, limit, p uint64) bool {
	if side == Buy {
		return p <= limit
	}
	return p >= limit
}

func (b *Book) rest(order *Order) {
	side := b.sideTree(order.Side)
	price := *order.Price

	level, ok := side.Get(&priceLevel{price: price})
	if !ok {
		level = &priceLevel{price: price}
		side.Set(level)
	}
	level.orders = append(level.orders, order.ID)
	level.totalQty += order.Quantity
	b.orders[order.ID] = order
}

func (b *Book) sideTree(side Side) *btree.BTreeG[*priceLevel] {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// Remove drops order id from the book entirely, returning its record.
// ErrOrderNotFound if id isn't live.
func (b *Book) Remove(id uint64) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}

	side := b.sideTree(order.Side)
	level, ok := side.Get(&priceLevel{price: *order.Price})
	if ok {
		for i, oid := range level.orders {
			if oid == id {
				level.orders = append(level.orders[:i], level.orders[i+1:]...)
				level.totalQty -= order.Quantity
				break
			}
		}
		if len(level.orders) == 0 {
			side.Delete(level)
		}
	}
	delete(b.orders, id)

	return *order, nil
}

// Order returns a copy of the live order record for id, if any.
func (b *Book) Order(id uint64) (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// BestBid returns the highest resting buy price, if any.
func (b *Book) BestBid() *uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return topOf(b.bids)
}

// BestAsk returns the lowest resting sell price, if any.
func (b *Book) BestAsk() *uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return topOf(b.asks)
}

func topOf(side *btree.BTreeG[*priceLevel]) *uint64 {
	level, ok := side.Min()
	if !ok {
		return nil
	}
	p := level.price
	return &p
}

// Depth builds a top-N snapshot of both sides. N is clamped by the caller
// (ClampLevels); Depth itself trusts the value it's given.
func (b *Book) Depth(n int) DepthSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := DepthSnapshot{
		Pair:      b.pair,
		BestBid:   topOf(b.bids),
		BestAsk:   topOf(b.asks),
		Timestamp: b.clock.NowUnix(),
	}

	snap.Bids = make([]DepthLevel, 0, n)
	b.bids.Scan(func(level *priceLevel) bool {
		snap.Bids = append(snap.Bids, DepthLevel{Price: level.price, Quantity: level.totalQty})
		return len(snap.Bids) < n
	})

	snap.Asks = make([]DepthLevel, 0, n)
	b.asks.Scan(func(level *priceLevel) bool {
		snap.Asks = append(snap.Asks, DepthLevel{Price: level.price, Quantity: level.totalQty})
		return len(snap.Asks) < n
	})

	return snap
}

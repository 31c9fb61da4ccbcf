package clob

import "sync"

// Engine is the top-level matching-engine registry: one Book per trading
// pair, so crossing a buy in one pair can never match a resting sell in
// another (§9's Open Question, decided as option (a) — book-per-pair).
type Engine struct {
	mu    sync.RWMutex
	books map[TradingPair]*Book
	clock Clock
}

// NewEngine returns an Engine with no books; they're created lazily on
// first submission for a pair.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{
		books: make(map[TradingPair]*Book),
		clock: clock,
	}
}

// BookFor returns the book for pair, creating it if this is the first time
// the pair has been seen.
func (e *Engine) BookFor(pair TradingPair) *Book {
	e.mu.RLock()
	b, ok := e.books[pair]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.books[pair]; ok {
		return b
	}
	b = NewBook(pair, e.clock)
	e.books[pair] = b
	return b
}

// Pairs returns every trading pair that currently has a book.
func (e *Engine) Pairs() []TradingPair {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]TradingPair, 0, len(e.books))
	for p := range e.books {
		out = append(out, p)
	}
	return out
}

// Package marketdata implements the Market-Data Publisher (C8): a bounded
// broadcast fan-out of depth snapshots with lossy catch-up for subscribers
// that fall behind, following the teacher's per-connection broadcast idiom
// (internal/api/websocket/pairs_ws.go's BroadcastPairUpdate) generalized to
// a ring-buffered, non-blocking publish.
package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sengkeat-dex/orderbook-svc/internal/clob"
	"github.com/sengkeat-dex/orderbook-svc/internal/metrics"
)

// DefaultCapacity is the default bounded-channel depth B per subscriber
// (§4.5).
const DefaultCapacity = 64

// Broadcaster fans out depth snapshots to per-pair subscriber sets. A
// publish that has no subscribers for its pair is a no-op (§4.8 step 8).
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[clob.TradingPair]map[*Subscriber]struct{}
	pool        *ants.Pool
	logger      *zap.Logger
	metrics     *metrics.OrderBookMetrics
}

// WithMetrics attaches m so Subscribe/Unsubscribe keep the active-
// subscriber gauge current and dropped snapshots are counted. Optional;
// a Broadcaster built without it simply skips instrumentation.
func (b *Broadcaster) WithMetrics(m *metrics.OrderBookMetrics) *Broadcaster {
	b.metrics = m
	return b
}

// New builds a Broadcaster whose fan-out dispatch runs on a bounded
// goroutine pool (poolSize workers) rather than one goroutine per
// subscriber per publish.
func New(poolSize int, logger *zap.Logger) (*Broadcaster, error) {
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Broadcaster{
		subscribers: make(map[clob.TradingPair]map[*Subscriber]struct{}),
		pool:        pool,
		logger:      logger,
	}, nil
}

// Close releases the dispatch pool.
func (b *Broadcaster) Close() {
	b.pool.Release()
}

// Subscribe registers a new subscriber for pair with the given per-
// subscriber depth (clamped to [1,100] by the caller) and bounded queue
// capacity. The Subscriber only carries published snapshots; per §4.5 the
// caller sends the client a freshly computed snapshot itself before
// forwarding from the subscription.
func (b *Broadcaster) Subscribe(pair clob.TradingPair, levels, capacity int) *Subscriber {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	sub := newSubscriber(pair, levels, capacity, b.logger)
	sub.metrics = b.metrics

	b.mu.Lock()
	set, ok := b.subscribers[pair]
	if !ok {
		set = make(map[*Subscriber]struct{})
		b.subscribers[pair] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.ActiveSubscribers.Inc()
	}
	return sub
}

// Unsubscribe removes sub from its pair's fan-out set. Safe to call more
// than once.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	removed := false
	b.mu.Lock()
	if set, ok := b.subscribers[sub.pair]; ok {
		if _, live := set[sub]; live {
			delete(set, sub)
			removed = true
		}
		if len(set) == 0 {
			delete(b.subscribers, sub.pair)
		}
	}
	b.mu.Unlock()
	sub.close()
	if removed && b.metrics != nil {
		b.metrics.ActiveSubscribers.Dec()
	}
}

// Publish fans snapshot out to every live subscriber of its pair.
func (b *Broadcaster) Publish(snapshot clob.DepthSnapshot) {
	b.mu.RLock()
	set := b.subscribers[snapshot.Pair]
	targets := make([]*Subscriber, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		sub := sub
		_ = b.pool.Submit(func() {
			sub.push(snapshot)
		})
	}
}

// Subscriber is one live depth-stream consumer: a ring-buffered queue that
// drops its oldest entry rather than blocking the publisher when full.
type Subscriber struct {
	pair       clob.TradingPair
	levels     int
	capacity   int
	logLimiter *rate.Limiter
	logger     *zap.Logger
	metrics    *metrics.OrderBookMetrics

	mu     sync.Mutex
	buf    []clob.DepthSnapshot
	lagged bool
	closed bool
	notify chan struct{}
}

func newSubscriber(pair clob.TradingPair, levels, capacity int, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		pair:       pair,
		levels:     levels,
		capacity:   capacity,
		logLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
		notify:     make(chan struct{}, 1),
	}
}

func (s *Subscriber) push(snapshot clob.DepthSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if len(s.buf) >= s.capacity {
		s.buf = s.buf[1:]
		s.lagged = true
		if s.metrics != nil {
			s.metrics.SnapshotsDropped.Inc()
		}
		if s.logLimiter.Allow() {
			s.logger.Warn("market data subscriber lagging, dropping oldest snapshot",
				zap.String("pair", s.pair.String()))
		}
	}
	s.buf = append(s.buf, truncate(snapshot, s.levels))

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until a snapshot is available, ctx is cancelled, or the
// subscriber is closed. lagged reports whether one or more snapshots were
// dropped immediately before the one returned.
func (s *Subscriber) Next(ctx context.Context) (snapshot clob.DepthSnapshot, lagged bool, ok bool) {
	for {
		s.mu.Lock()
		if len(s.buf) > 0 {
			snapshot = s.buf[0]
			s.buf = s.buf[1:]
			lagged = s.lagged
			s.lagged = false
			s.mu.Unlock()
			return snapshot, lagged, true
		}
		if s.closed {
			s.mu.Unlock()
			return clob.DepthSnapshot{}, false, false
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return clob.DepthSnapshot{}, false, false
		}
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.notify)
}

func truncate(snapshot clob.DepthSnapshot, levels int) clob.DepthSnapshot {
	out := snapshot
	if len(out.Bids) > levels {
		out.Bids = out.Bids[:levels]
	}
	if len(out.Asks) > levels {
		out.Asks = out.Asks[:levels]
	}
	return out
}

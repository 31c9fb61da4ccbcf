// Package pipeline implements the Submission Pipeline (C9): the ordered
// steps from a validated, authorized request through book mutation,
// persistence, and broadcast, with the ordering and failure semantics §4.8
// and §5 specify.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sengkeat-dex/orderbook-svc/internal/clob"
	"github.com/sengkeat-dex/orderbook-svc/internal/marketdata"
	"github.com/sengkeat-dex/orderbook-svc/internal/metrics"
	"github.com/sengkeat-dex/orderbook-svc/internal/persistence"
	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

// broadcastDepth is the level count taken for every post-submission
// snapshot (§4.8 step 8).
const broadcastDepth = 20

// Pipeline wires the matching engine, id allocator, persistence adapter,
// and broadcaster together behind the single entry point the HTTP layer
// calls.
type Pipeline struct {
	engine      *clob.Engine
	ids         *clob.IDAllocator
	repo        *persistence.Repository
	broadcaster *marketdata.Broadcaster
	metrics     *metrics.OrderBookMetrics
	logger      *zap.Logger

	// matchMu serializes matching with trade-id stamping, so trade ids
	// follow the order in which submissions reach the book (§5).
	matchMu sync.Mutex
}

// New builds a Pipeline from its already-constructed collaborators.
func New(engine *clob.Engine, ids *clob.IDAllocator, repo *persistence.Repository, broadcaster *marketdata.Broadcaster, m *metrics.OrderBookMetrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{engine: engine, ids: ids, repo: repo, broadcaster: broadcaster, metrics: m, logger: logger}
}

// SubmitResult is what a caller needs to build the HTTP response (§6).
type SubmitResult struct {
	OrderID            uint64
	ExecutedTradeCount int
}

// Submit runs §4.8 steps 2 through 9. Authentication (step 1) has already
// happened by the time this is called — the HTTP layer's bearer middleware
// supplies sub.
func (p *Pipeline) Submit(ctx context.Context, sub string, req clob.CreateOrderRequest) (SubmitResult, error) {
	start := time.Now()
	defer func() { p.metrics.SubmitLatency.Observe(time.Since(start).Seconds()) }()

	validated, err := clob.ValidateCreateOrder(req)
	if err != nil {
		p.metrics.OrdersRejected.WithLabelValues(string(codeOf(err))).Inc()
		return SubmitResult{}, err
	}

	if validated.Trader != sub {
		p.metrics.OrdersRejected.WithLabelValues(string(apierrors.CodeForbidden)).Inc()
		return SubmitResult{}, apierrors.New(apierrors.CodeForbidden, "trader does not match authenticated subject")
	}

	order := &clob.Order{
		ID:        p.ids.NextOrderID(),
		Trader:    validated.Trader,
		Pair:      validated.Pair,
		Side:      validated.Side,
		Type:      validated.Type,
		Price:     validated.Price,
		Quantity:  validated.Quantity,
		Timestamp: time.Now().Unix(),
	}
	// A market order's pre-match quantity is what gets persisted (§9):
	// capture it before Submit mutates order.Quantity down to its residual.
	persistedQuantity := order.Quantity

	book := p.engine.BookFor(order.Pair)
	p.matchMu.Lock()
	trades := book.Submit(order)
	for i := range trades {
		trades[i].ID = p.ids.NextTradeID()
	}
	p.matchMu.Unlock()

	persistedOrder := *order
	persistedOrder.Quantity = persistedQuantity
	if err := p.repo.SaveOrder(ctx, persistedOrder); err != nil {
		return SubmitResult{}, apierrors.Wrap(err, apierrors.CodeStorageError, "failed to persist order")
	}

	for i := range trades {
		if err := p.repo.SaveTrade(ctx, trades[i]); err != nil {
			return SubmitResult{}, apierrors.Wrap(err, apierrors.CodeStorageError, "failed to persist trade")
		}
	}
	p.metrics.TradesExecuted.Add(float64(len(trades)))
	p.metrics.OrdersSubmitted.WithLabelValues(string(validated.Side), string(validated.Type)).Inc()

	snapshot := book.Depth(broadcastDepth)
	p.broadcaster.Publish(snapshot)

	return SubmitResult{OrderID: order.ID, ExecutedTradeCount: len(trades)}, nil
}

// codeOf extracts a ServiceError's symbolic code for metric labeling,
// falling back to the internal-error code for anything unmapped.
func codeOf(err error) apierrors.Code {
	if se, ok := apierrors.As(err); ok {
		return se.Code
	}
	return apierrors.CodeInternalError
}

// Cancel removes order id from the book on behalf of sub (the order
// removal endpoint §12 adds). It returns Forbidden if the order belongs to
// a different trader and NotFound if the order doesn't exist, so the HTTP
// layer answers 404 rather than the 409 reserved for in-book matching
// conflicts.
func (p *Pipeline) Cancel(ctx context.Context, sub string, pair clob.TradingPair, orderID uint64) error {
	book := p.engine.BookFor(pair)

	order, ok := book.Order(orderID)
	if !ok {
		return apierrors.New(apierrors.CodeNotFound, "order not found")
	}
	if order.Trader != sub {
		return apierrors.New(apierrors.CodeForbidden, "trader does not match order owner")
	}

	if _, err := book.Remove(orderID); err != nil {
		return apierrors.Wrap(err, apierrors.CodeNotFound, "order not found")
	}

	snapshot := book.Depth(broadcastDepth)
	p.broadcaster.Publish(snapshot)
	return nil
}

// Depth returns a snapshot for pair at n levels (§4.4), n already clamped
// by the caller.
func (p *Pipeline) Depth(pair clob.TradingPair, n int) clob.DepthSnapshot {
	return p.engine.BookFor(pair).Depth(n)
}

// TradesForOrder delegates to the persistence adapter (§4.6).
func (p *Pipeline) TradesForOrder(ctx context.Context, orderID uint64, limit int) ([]clob.Trade, error) {
	trades, err := p.repo.TradesForOrder(ctx, orderID, limit)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeStorageError, "failed to load trades")
	}
	return trades, nil
}

// TradesForTrader delegates to the persistence adapter (§4.6), enforcing
// the trader-scoped-read authorization rule from §4.7 at the caller.
func (p *Pipeline) TradesForTrader(ctx context.Context, trader string, limit int) ([]clob.Trade, error) {
	trades, err := p.repo.TradesForTrader(ctx, trader, limit)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeStorageError, "failed to load trades")
	}
	return trades, nil
}

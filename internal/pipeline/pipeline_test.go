package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sengkeat-dex/orderbook-svc/internal/clob"
	"github.com/sengkeat-dex/orderbook-svc/internal/marketdata"
	"github.com/sengkeat-dex/orderbook-svc/internal/metrics"
	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

var ethUsdc = clob.TradingPair{Base: "ETH", Quote: "USDC"}

func testBroadcaster(t *testing.T) *marketdata.Broadcaster {
	t.Helper()
	b, err := marketdata.New(2, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func testMetrics() *metrics.OrderBookMetrics {
	return metrics.NewOrderBookMetrics(prometheus.NewRegistry())
}

func price(p uint64) *uint64 { return &p }

// TestPipeline_SubjectMismatchRejectedBeforeBookMutation covers §8's S5:
// no order id is allocated and no trade is produced when sub != trader_id,
// so repo and the id allocator are never exercised on this path.
func TestPipeline_SubjectMismatchRejectedBeforeBookMutation(t *testing.T) {
	engine := clob.NewEngine(clob.SystemClock)
	ids := clob.NewIDAllocator(1, 1)
	broadcaster := testBroadcaster(t)
	p := New(engine, ids, nil, broadcaster, testMetrics(), zap.NewNop())

	req := clob.CreateOrderRequest{
		TraderID: "bob", BaseToken: "ETH", QuoteToken: "USDC",
		Side: "buy", OrderType: "limit", Price: price(1000), Quantity: 1,
	}

	_, err := p.Submit(context.Background(), "alice", req)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeForbidden))

	book := engine.BookFor(ethUsdc)
	assert.Nil(t, book.BestBid())
}

func TestPipeline_ValidationFailureRejectedBeforeAuthorization(t *testing.T) {
	engine := clob.NewEngine(clob.SystemClock)
	ids := clob.NewIDAllocator(1, 1)
	broadcaster := testBroadcaster(t)
	p := New(engine, ids, nil, broadcaster, testMetrics(), zap.NewNop())

	req := clob.CreateOrderRequest{
		TraderID: "alice", BaseToken: "ETH", QuoteToken: "USDC",
		Side: "buy", OrderType: "limit", Quantity: 0,
	}

	// sub differs from trader_id, so a Forbidden here would mean
	// authorization ran first.
	_, err := p.Submit(context.Background(), "mallory", req)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeValidation))
}

func TestPipeline_CancelUnknownOrder(t *testing.T) {
	engine := clob.NewEngine(clob.SystemClock)
	ids := clob.NewIDAllocator(1, 1)
	broadcaster := testBroadcaster(t)
	p := New(engine, ids, nil, broadcaster, testMetrics(), zap.NewNop())

	err := p.Cancel(context.Background(), "alice", ethUsdc, 999)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeNotFound))
}

func TestPipeline_CancelForbiddenForNonOwner(t *testing.T) {
	engine := clob.NewEngine(clob.SystemClock)
	ids := clob.NewIDAllocator(1, 1)
	broadcaster := testBroadcaster(t)
	p := New(engine, ids, nil, broadcaster, testMetrics(), zap.NewNop())

	book := engine.BookFor(ethUsdc)
	book.Submit(&clob.Order{ID: 1, Trader: "alice", Pair: ethUsdc, Side: clob.Buy, Type: clob.Limit, Price: price(1000), Quantity: 5})

	err := p.Cancel(context.Background(), "mallory", ethUsdc, 1)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeForbidden))

	_, ok := book.Order(1)
	assert.True(t, ok, "a forbidden cancel must not remove the order")
}

func TestPipeline_CancelSucceedsForOwner(t *testing.T) {
	engine := clob.NewEngine(clob.SystemClock)
	ids := clob.NewIDAllocator(1, 1)
	broadcaster := testBroadcaster(t)
	p := New(engine, ids, nil, broadcaster, testMetrics(), zap.NewNop())

	book := engine.BookFor(ethUsdc)
	book.Submit(&clob.Order{ID: 1, Trader: "alice", Pair: ethUsdc, Side: clob.Buy, Type: clob.Limit, Price: price(1000), Quantity: 5})

	err := p.Cancel(context.Background(), "alice", ethUsdc, 1)
	require.NoError(t, err)

	_, ok := book.Order(1)
	assert.False(t, ok)
}

func TestPipeline_DepthDelegatesToEngine(t *testing.T) {
	engine := clob.NewEngine(clob.SystemClock)
	ids := clob.NewIDAllocator(1, 1)
	broadcaster := testBroadcaster(t)
	p := New(engine, ids, nil, broadcaster, testMetrics(), zap.NewNop())

	engine.BookFor(ethUsdc).Submit(&clob.Order{ID: 1, Trader: "alice", Pair: ethUsdc, Side: clob.Sell, Type: clob.Limit, Price: price(2000), Quantity: 3})

	snap := p.Depth(ethUsdc, 10)
	require.NotNil(t, snap.BestAsk)
	assert.Equal(t, uint64(2000), *snap.BestAsk)
}

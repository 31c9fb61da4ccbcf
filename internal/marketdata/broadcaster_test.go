package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sengkeat-dex/orderbook-svc/internal/clob"
)

var ethUsdc = clob.TradingPair{Base: "ETH", Quote: "USDC"}

func snapshot(ts int64) clob.DepthSnapshot {
	return clob.DepthSnapshot{Pair: ethUsdc, Timestamp: ts}
}

func TestBroadcaster_PublishDeliversToSubscriber(t *testing.T) {
	b, err := New(4, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	sub := b.Subscribe(ethUsdc, 10, 8)
	b.Publish(snapshot(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, lagged, ok := sub.Next(ctx)
	require.True(t, ok)
	assert.False(t, lagged)
	assert.Equal(t, int64(1), got.Timestamp)
}

func TestBroadcaster_PublishIgnoresOtherPairs(t *testing.T) {
	b, err := New(4, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	sub := b.Subscribe(ethUsdc, 10, 8)
	other := clob.TradingPair{Base: "BTC", Quote: "USDC"}
	b.Publish(clob.DepthSnapshot{Pair: other, Timestamp: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, _, ok := sub.Next(ctx)
	assert.False(t, ok, "a subscriber must never see another pair's snapshot")
}

func TestSubscriber_DropsOldestWhenFull(t *testing.T) {
	sub := newSubscriber(ethUsdc, 10, 2, zap.NewNop())

	sub.push(snapshot(1))
	sub.push(snapshot(2))
	sub.push(snapshot(3)) // drops snapshot(1)

	ctx := context.Background()
	got, lagged, ok := sub.Next(ctx)
	require.True(t, ok)
	assert.True(t, lagged)
	assert.Equal(t, int64(2), got.Timestamp)

	got, lagged, ok = sub.Next(ctx)
	require.True(t, ok)
	assert.False(t, lagged)
	assert.Equal(t, int64(3), got.Timestamp)
}

func TestSubscriber_NextReturnsFalseAfterClose(t *testing.T) {
	sub := newSubscriber(ethUsdc, 10, 2, zap.NewNop())
	sub.close()

	_, _, ok := sub.Next(context.Background())
	assert.False(t, ok)
}

func TestSubscriber_NextRespectsContextCancellation(t *testing.T) {
	sub := newSubscriber(ethUsdc, 10, 2, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, ok := sub.Next(ctx)
	assert.False(t, ok)
}

func TestBroadcaster_UnsubscribeStopsDelivery(t *testing.T) {
	b, err := New(4, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	sub := b.Subscribe(ethUsdc, 10, 8)
	b.Unsubscribe(sub)
	b.Publish(snapshot(1))

	_, _, ok := sub.Next(context.Background())
	assert.False(t, ok)
}

func TestTruncate_ClampsLevels(t *testing.T) {
	snap := clob.DepthSnapshot{
		Pair: ethUsdc,
		Bids: []clob.DepthLevel{{Price: 3}, {Price: 2}, {Price: 1}},
		Asks: []clob.DepthLevel{{Price: 4}, {Price: 5}},
	}
	out := truncate(snap, 1)
	assert.Len(t, out.Bids, 1)
	assert.Len(t, out.Asks, 1)
}

// Command server runs the order book service: HTTP/WS API, matching engine,
// persistence, and market-data broadcast, wired together through fx
// following the teacher's cmd/gateway/main.go composition-root shape.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sengkeat-dex/orderbook-svc/internal/api"
	"github.com/sengkeat-dex/orderbook-svc/internal/auth"
	"github.com/sengkeat-dex/orderbook-svc/internal/clob"
	"github.com/sengkeat-dex/orderbook-svc/internal/config"
	"github.com/sengkeat-dex/orderbook-svc/internal/marketdata"
	"github.com/sengkeat-dex/orderbook-svc/internal/metrics"
	"github.com/sengkeat-dex/orderbook-svc/internal/persistence"
	"github.com/sengkeat-dex/orderbook-svc/internal/pipeline"
)

const broadcastPoolSize = 32

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Supply(logger),
		fx.Provide(loadConfig),
		fx.Provide(connectRepository),
		fx.Provide(newEngine),
		fx.Provide(metrics.NewRegistry),
		fx.Provide(newOrderBookMetrics),
		fx.Provide(newBroadcaster),
		fx.Provide(newIDAllocator),
		fx.Provide(newPipeline),
		fx.Provide(auth.NewService),
		api.Module,
		fx.Invoke(registerLifecycle),
	)

	app.Run()
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

// connectRepository opens the database, runs migrations, and returns the
// repository every other provider depends on.
func connectRepository(cfg *config.Config, logger *zap.Logger) (*persistence.Repository, error) {
	db, sqlDB, err := persistence.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := persistence.Migrate(db, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return persistence.NewRepository(db, sqlDB, logger), nil
}

func newEngine() *clob.Engine {
	return clob.NewEngine(clob.SystemClock)
}

func newOrderBookMetrics(registry *prometheus.Registry) *metrics.OrderBookMetrics {
	return metrics.NewOrderBookMetrics(registry)
}

func newBroadcaster(m *metrics.OrderBookMetrics, logger *zap.Logger) (*marketdata.Broadcaster, error) {
	b, err := marketdata.New(broadcastPoolSize, logger)
	if err != nil {
		return nil, err
	}
	return b.WithMetrics(m), nil
}

// newIDAllocator seeds the counters above anything already durable (§9),
// reading the high-water mark before the server starts accepting traffic.
func newIDAllocator(repo *persistence.Repository) (*clob.IDAllocator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	nextOrderID, nextTradeID, err := repo.HighWaterMarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed id allocator: %w", err)
	}
	return clob.NewIDAllocator(nextOrderID, nextTradeID), nil
}

func newPipeline(engine *clob.Engine, ids *clob.IDAllocator, repo *persistence.Repository, broadcaster *marketdata.Broadcaster, m *metrics.OrderBookMetrics, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(engine, ids, repo, broadcaster, m, logger)
}

// registerLifecycle starts the HTTP server on fx's OnStart and drains it,
// along with the broadcaster's dispatch pool, on OnStop.
func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine, broadcaster *marketdata.Broadcaster, logger *zap.Logger) {
	// gzhttp's response writer passes Hijack through to the underlying
	// ResponseWriter, so the gorilla/websocket upgrade on /ws/depth still
	// works through the wrapper; only ordinary JSON responses get gzipped.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: gzhttp.GzipHandler(router),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("order book service starting", zap.Int("port", cfg.ServerPort))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			broadcaster.Close()
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sengkeat-dex/orderbook-svc/internal/clob"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultTradeLimit = 1000

// Repository is the Persistence Adapter (C6): durable append of orders and
// trades, and trade lookups by order or trader. A gobreaker.CircuitBreaker
// wraps every write so a database outage fails fast instead of piling up
// blocked submissions once the database is already unhealthy — the
// pipeline still reports StorageError either way (§7), the breaker only
// changes how quickly it gets there.
type Repository struct {
	db      *gorm.DB
	sqlxDB  *sqlx.DB
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewRepository wraps db (used for model-based reads/writes) and sqlxDB
// (used for the raw high-water-mark query) together, matching the
// teacher's repository-wraps-*gorm.DB-plus-*zap.Logger idiom
// (internal/db/repositories/order_repository.go) with sqlx added where a
// hand-written aggregate query reads more naturally than the ORM.
func NewRepository(db *gorm.DB, sqlxDB *sqlx.DB, logger *zap.Logger) *Repository {
	settings := gobreaker.Settings{
		Name:        "persistence",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Repository{
		db:      db,
		sqlxDB:  sqlxDB,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SaveOrder is an idempotent upsert keyed by order.ID (§4.6).
func (r *Repository) SaveOrder(ctx context.Context, order clob.Order) error {
	record := OrderRecord{
		ID:         order.ID,
		TraderID:   order.Trader,
		BaseToken:  order.Pair.Base,
		QuoteToken: order.Pair.Quote,
		Side:       string(order.Side),
		OrderType:  string(order.Type),
		Price:      order.Price,
		Quantity:   order.Quantity,
		Timestamp:  order.Timestamp,
	}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&record).Error
	})
	if err != nil {
		r.logger.Error("save_order failed", zap.Uint64("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("save order %d: %w", order.ID, err)
	}
	return nil
}

// SaveTrade inserts trade, keyed by its unique id (§4.6).
func (r *Repository) SaveTrade(ctx context.Context, trade clob.Trade) error {
	record := TradeRecord{
		ID:           trade.ID,
		MakerOrderID: trade.MakerOrderID,
		TakerOrderID: trade.TakerOrderID,
		BaseToken:    trade.Pair.Base,
		QuoteToken:   trade.Pair.Quote,
		Price:        trade.Price,
		Quantity:     trade.Quantity,
		Timestamp:    trade.Timestamp,
	}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.db.WithContext(ctx).Create(&record).Error
	})
	if err != nil {
		r.logger.Error("save_trade failed", zap.Uint64("trade_id", trade.ID), zap.Error(err))
		return fmt.Errorf("save trade %d: %w", trade.ID, err)
	}
	return nil
}

// TradesForOrder returns every trade in which orderID was maker or taker,
// ordered by timestamp ascending (§4.6), capped at limit (0 means the
// service default of 1000, per §12's pagination supplement).
func (r *Repository) TradesForOrder(ctx context.Context, orderID uint64, limit int) ([]clob.Trade, error) {
	if limit <= 0 || limit > defaultTradeLimit {
		limit = defaultTradeLimit
	}
	var records []TradeRecord
	err := r.db.WithContext(ctx).
		Where("maker_order_id = ? OR taker_order_id = ?", orderID, orderID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("trades for order %d: %w", orderID, err)
	}
	return toTrades(records), nil
}

// TradesForTrader returns every trade whose maker or taker order belonged
// to traderID, ordered by timestamp ascending (§4.6).
func (r *Repository) TradesForTrader(ctx context.Context, traderID string, limit int) ([]clob.Trade, error) {
	if limit <= 0 || limit > defaultTradeLimit {
		limit = defaultTradeLimit
	}
	var records []TradeRecord
	err := r.db.WithContext(ctx).
		Where(`maker_order_id IN (SELECT id FROM orders WHERE trader_id = ?)
			OR taker_order_id IN (SELECT id FROM orders WHERE trader_id = ?)`, traderID, traderID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("trades for trader %s: %w", traderID, err)
	}
	return toTrades(records), nil
}

// highWaterMarks holds query rows for the startup counter seed.
type highWaterMarks struct {
	MaxOrderID uint64 `db:"max_order_id"`
	MaxTradeID uint64 `db:"max_trade_id"`
}

// HighWaterMarks reads the largest persisted order and trade ids so the
// in-process id counters can be seeded above anything already durable
// (§9's restart-safety decision), using sqlx directly since a two-column
// aggregate across two tables is more natural as one raw query than two
// ORM round trips.
func (r *Repository) HighWaterMarks(ctx context.Context) (nextOrderID, nextTradeID uint64, err error) {
	var hwm highWaterMarks
	const query = `SELECT
		(SELECT COALESCE(MAX(id), 0) FROM orders) AS max_order_id,
		(SELECT COALESCE(MAX(id), 0) FROM trades) AS max_trade_id`
	if err := r.sqlxDB.GetContext(ctx, &hwm, query); err != nil {
		return 0, 0, fmt.Errorf("read high-water marks: %w", err)
	}
	return hwm.MaxOrderID + 1, hwm.MaxTradeID + 1, nil
}

func toTrades(records []TradeRecord) []clob.Trade {
	out := make([]clob.Trade, 0, len(records))
	for _, rec := range records {
		out = append(out, clob.Trade{
			ID:           rec.ID,
			MakerOrderID: rec.MakerOrderID,
			TakerOrderID: rec.TakerOrderID,
			Pair:         clob.TradingPair{Base: rec.BaseToken, Quote: rec.QuoteToken},
			Price:        rec.Price,
			Quantity:     rec.Quantity,
			Timestamp:    rec.Timestamp,
		})
	}
	return out
}

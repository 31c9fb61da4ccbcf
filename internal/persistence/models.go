// Package persistence implements the Persistence Contract (§4.6): durable
// orders/trades storage, trade lookups, and the startup migration ledger,
// following the teacher's repository-wraps-*gorm.DB-plus-*zap.Logger idiom
// (internal/db/repositories, internal/db/migration.go).
package persistence

import "time"

// OrderRecord is the durable row for one order (§6's orders table).
type OrderRecord struct {
	ID         uint64 `gorm:"primaryKey"`
	TraderID   string `gorm:"column:trader_id;index"`
	BaseToken  string `gorm:"column:base_token"`
	QuoteToken string `gorm:"column:quote_token"`
	Side       string `gorm:"column:side"`
	OrderType  string `gorm:"column:order_type"`
	Price      *uint64
	Quantity   uint64
	Timestamp  int64
}

func (OrderRecord) TableName() string { return "orders" }

// TradeRecord is the durable row for one trade (§6's trades table).
type TradeRecord struct {
	ID           uint64 `gorm:"primaryKey"`
	MakerOrderID uint64 `gorm:"column:maker_order_id;index"`
	TakerOrderID uint64 `gorm:"column:taker_order_id;index"`
	BaseToken    string `gorm:"column:base_token"`
	QuoteToken   string `gorm:"column:quote_token"`
	Price        uint64
	Quantity     uint64
	Timestamp    int64
}

func (TradeRecord) TableName() string { return "trades" }

// MigrationRecord is one applied row of the migrations ledger (§6).
type MigrationRecord struct {
	Version     string `gorm:"primaryKey;column:version"`
	Description string
	AppliedAt   time.Time `gorm:"column:applied_at"`
}

func (MigrationRecord) TableName() string { return "migrations" }

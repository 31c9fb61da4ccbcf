package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens both the gorm handle (model-based reads/writes) and the sqlx
// handle (the raw high-water-mark query) against the same database URL,
// sharing gorm's underlying *sql.DB so the service holds one connection
// pool, not two.
func Connect(databaseURL string) (*gorm.DB, *sqlx.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}

	return db, sqlx.NewDb(sqlDB, "postgres"), nil
}

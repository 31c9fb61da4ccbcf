package persistence

import (
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migration is one named, ordered schema step. Version is a semver string
// so the ledger's apply order can be checked rather than assumed from
// slice order.
type migration struct {
	version     string
	description string
}

// migrations is the append-only ledger (dex-db's migrations.rs analogue):
// each entry is applied at most once, recorded by version in the
// migrations table.
var migrations = []migration{
	{version: "0.1.0", description: "create orders, trades, migrations tables"},
}

// Migrate runs every migration not yet recorded in the migrations table, in
// ascending semver order, following internal/db/migration.go's
// AutoMigrate-over-an-explicit-model-list shape.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	sorted := make([]migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		vi, err := semver.NewVersion(sorted[i].version)
		if err != nil {
			logger.Error("invalid migration version", zap.String("version", sorted[i].version), zap.Error(err))
			return false
		}
		vj, err := semver.NewVersion(sorted[j].version)
		if err != nil {
			return true
		}
		return vi.LessThan(vj)
	})

	if err := db.AutoMigrate(&OrderRecord{}, &TradeRecord{}, &MigrationRecord{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	for _, m := range sorted {
		var existing MigrationRecord
		err := db.Where("version = ?", m.version).First(&existing).Error
		if err == nil {
			continue // already applied
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}

		record := MigrationRecord{
			Version:     m.version,
			Description: m.description,
			AppliedAt:   time.Now(),
		}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		logger.Info("applied migration", zap.String("version", m.version), zap.String("description", m.description))
	}

	return nil
}

package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"turing-review/config"
	"turing-review/models"
)

// openTestDB öffnet eine isolierte In-Memory-SQLite-Datenbank mit allen
// migrierten Tabellen. Der DB-Name enthält den Testnamen, damit parallele
// Tests sich nicht in die Quere kommen.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Paper{},
		&models.Review{},
		&models.EditorialDecision{},
		&models.GuestReviewer{},
		&models.GuestReviewRecord{},
	); err != nil {
		t.Fatalf("auto-migration failed: %v", err)
	}
	return db
}

// testConfig liefert eine Konfiguration mit den Produktions-Defaults der
// Community-Parameter.
func testConfig() *config.Config {
	return &config.Config{
		MaxGuestReviewersPerPaper: 2,
		MaxPromptModePerPaper:     1,
		PromptModeMonthlyQuota:    10,
		DailySubmitLimit:          2,
		MonthlySubmitLimit:        5,
		GuestAPITimeout:           30 * time.Second,
		GuestAPIKeySecret:         "test-secret",
		SiteURL:                   "http://localhost:8000",
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

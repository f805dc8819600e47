package models

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"
)

// setupTestDBWithSilentLogger creates a test database with silent logger to suppress SQL logs
func setupTestDBWithSilentLogger(t *testing.T, entities ...interface{}) *gorm.DB {
	silentLogger := glog.New(
		log.New(io.Discard, "", log.LstdFlags),
		glog.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  glog.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: silentLogger,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if len(entities) > 0 {
		err = db.AutoMigrate(entities...)
		if err != nil {
			t.Fatalf("Failed to migrate: %v", err)
		}
	}

	return db
}

package models

import (
	"gorm.io/gorm"
)

// MigrateAll 迁移所有业务实体
func MigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{},
		&Reservation{},
		&FAQEntry{},
		&CallRecord{},
	)
}

package utils

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"
)

// InitDatabase 根据驱动类型创建数据库连接
// driver 支持 sqlite（默认）、mysql、postgres
func InitDatabase(logWriter io.Writer, driver, dsn string) (*gorm.DB, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}

	gormLogger := glog.New(
		log.New(logWriter, "\r\n", log.LstdFlags),
		glog.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  glog.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	cfg := &gorm.Config{Logger: gormLogger}

	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return gorm.Open(sqlite.Open(dsn), cfg)
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", driver)
	}
}

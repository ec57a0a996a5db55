package repository

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite" // 纯 Go 的 sqlite 驱动，注册名为 "sqlite"

	"shortmark/internal/config"
	"shortmark/internal/model"
	"shortmark/pkg/logging"
)

func dialectorFor(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return &sqlite.Dialector{DriverName: "sqlite", DSN: cfg.DSN}, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

func isMemorySQLite(cfg config.DBConfig) bool {
	return cfg.Driver == "sqlite" && (strings.Contains(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory"))
}

// caseSensitiveCodeDDL 短码区分大小写；MySQL 默认排序规则不区分，需要改为二进制排序。
// postgres 和 sqlite 默认即按字节比较
func caseSensitiveCodeDDL(driver string) string {
	if driver != "mysql" {
		return ""
	}
	return "ALTER TABLE short_links MODIFY code VARCHAR(32) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL"
}

// InitDB 打开数据库连接并自动迁移表结构
func InitDB(cfg config.DBConfig, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(logger, logging.ToGormLogLevel(logging.AtomicLevel.Level())),
		// 书签与短链的关联由服务层维护，不在迁移时创建外键
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}

	if isMemorySQLite(cfg) {
		// 每个内存库连接都是独立的数据库，只能保留一个连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Bookmark{},
		&model.ShortLink{},
		&model.DailyStat{},
		&model.WhitelistDomain{},
	); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if ddl := caseSensitiveCodeDDL(cfg.Driver); ddl != "" {
		if err := db.Exec(ddl).Error; err != nil {
			return nil, fmt.Errorf("setting short code collation: %w", err)
		}
	}

	logger.Info("Database ready", zap.String("driver", cfg.Driver))
	return db, nil
}

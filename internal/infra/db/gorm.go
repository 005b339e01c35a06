package db

import (
	"fmt"

	"cakedelight/internal/config"
	"cakedelight/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	return Open(cfg.DSN(), cfg.GoEnv == "dev")
}

// Open はDSNを直接渡して接続する（CLIのpostgresスロット用）。
func Open(dsn string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// 一意制約違反を gorm.ErrDuplicatedKey にする
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// Migrate はテーブルを作成・更新する。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.CartSlot{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// MigrateSlots はカート保存用のテーブルだけ作る。
func MigrateSlots(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.CartSlot{}); err != nil {
		return fmt.Errorf("auto migrate cart_slots: %w", err)
	}
	return nil
}

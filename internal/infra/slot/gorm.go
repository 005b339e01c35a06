package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cakedelight/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const gormOpTimeout = 5 * time.Second

// GormSlot は cart_slots テーブルに保存する。
type GormSlot struct {
	db *gorm.DB
}

func NewGormSlot(db *gorm.DB) *GormSlot {
	return &GormSlot{db: db}
}

func (s *GormSlot) Read(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gormOpTimeout)
	defer cancel()

	var row model.CartSlot
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return row.Value, true, nil
}

// Write はupsert（同じキーなら上書き）。
func (s *GormSlot) Write(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), gormOpTimeout)
	defer cancel()

	row := model.CartSlot{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品（カタログ）
// カートはIDとPriceだけを使い、残りは表示用。
type Product struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Image       string          `gorm:"type:varchar(512)" json:"image"`
	Stock       int64           `gorm:"not null" json:"stock"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	VendorID    string          `gorm:"type:varchar(36);index" json:"vendor_id,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

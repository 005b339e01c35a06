package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。名前と単価は注文時点のスナップショット。
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID             string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID           string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

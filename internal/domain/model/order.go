package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusShipped  OrderStatus = "SHIPPED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// 支払い方法（決済はシミュレーション）
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentCash   PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentPayPal, PaymentCash:
		return true
	}
	return false
}

type Order struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Shipping       ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	ShippingFee    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_fee"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	IdempotencyKey string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

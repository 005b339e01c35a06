package model

import "github.com/shopspring/decimal"

// カートの明細（商品1つと数量）
// 同じ商品IDの明細は1つだけ、Quantityは1以上。
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// 小計（単価×数量）
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

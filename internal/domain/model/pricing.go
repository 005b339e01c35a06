package model

import "github.com/shopspring/decimal"

var (
	// 税率10%
	TaxRate = decimal.NewFromFloat(0.10)
	// 送料（空でなければ一律）
	FlatShipping = decimal.NewFromInt(5)
)

// 注文金額の内訳
type PriceBreakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// PriceOrder は小計から税・送料・合計を出す。
// クライアントの見積もりとサーバーの確定で同じ計算を使う。
func PriceOrder(subtotal decimal.Decimal) PriceBreakdown {
	if subtotal.IsZero() {
		zero := decimal.Zero
		return PriceBreakdown{Subtotal: zero, Tax: zero, Shipping: zero, Total: zero}
	}

	sub := subtotal.Round(2)
	tax := sub.Mul(TaxRate).Round(2)
	return PriceBreakdown{
		Subtotal: sub,
		Tax:      tax,
		Shipping: FlatShipping,
		Total:    sub.Add(tax).Add(FlatShipping),
	}
}

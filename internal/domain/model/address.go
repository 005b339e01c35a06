package model

// 配送先（注文に埋め込む）
type ShippingAddress struct {
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Email      string `gorm:"type:varchar(255)" json:"email"`
	Line1      string `gorm:"type:varchar(255);not null" json:"line1"`
	City       string `gorm:"type:varchar(255);not null" json:"city"`
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`
	Phone      string `gorm:"type:varchar(30)" json:"phone"`
}

// 必須項目が埋まっているか
func (a ShippingAddress) Complete() bool {
	return a.Name != "" && a.Line1 != "" && a.City != "" && a.PostalCode != ""
}

package model

import "time"

// カート保存スロット（key-value）のテーブル
type CartSlot struct {
	Key       string    `gorm:"type:varchar(255);primaryKey" json:"key"`
	Value     []byte    `gorm:"type:bytea;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

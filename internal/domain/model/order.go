package model

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// Orderは決済1件分の注文スナップショット。
// referenceがPaystack側のトランザクションと1:1で対応する。
type Order struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference string      `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	UserID    *int64      `gorm:"index" json:"user_id"`
	Email     string      `gorm:"type:varchar(255);not null" json:"email"`
	//最小通貨単位（kobo/セント）。floatは使わない。
	AmountMinor int64       `gorm:"not null" json:"amount_minor"`
	Currency    string      `gorm:"type:varchar(8);not null" json:"currency"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	//注文時点のカート内容をそのままJSON文字列で保存（再検証しない）
	Items string `gorm:"type:text;not null" json:"items"`
	//拡張用の不透明なJSONバッグ。更新はマージのみ。
	Metadata    string     `gorm:"type:text" json:"metadata"`
	ProviderRef string     `gorm:"type:varchar(64)" json:"provider_ref"`
	PaidAt      *time.Time `json:"paid_at"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

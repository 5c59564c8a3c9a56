package model

import "time"

// 顧客側の付帯情報。購入実績は注文確定時に加算する。
type CustomerProfile struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID               int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	NewsletterSubscribed bool      `gorm:"not null;default:false" json:"newsletter_subscribed"`
	TotalOrders          int64     `gorm:"not null;default:0" json:"total_orders"`
	//最小通貨単位の累計購入額
	TotalSpentMinor int64     `gorm:"not null;default:0" json:"total_spent_minor"`
	Status          string    `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 求職者側の付帯情報。
type JobSeekerProfile struct {
	ID               int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	PositionInterest string `gorm:"type:varchar(100)" json:"position_interest"`
	ExperienceLevel  string `gorm:"type:varchar(50)" json:"experience_level"`
	Availability     string `gorm:"type:varchar(50)" json:"availability"`
	Bio              string `gorm:"type:text" json:"bio"`

	ApplicationStatus string `gorm:"type:varchar(20);not null;default:'PENDING'" json:"application_status"`
	JobAlerts         bool   `gorm:"not null;default:false" json:"job_alerts"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

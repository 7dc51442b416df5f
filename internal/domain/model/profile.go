package model

import "time"

// Profileはアプリ側のユーザープロフィール。IDはauthユーザーと同じuuid。
type Profile struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName   string     `gorm:"type:varchar(100)" json:"display_name"`
	AvatarPath    string     `gorm:"type:varchar(255)" json:"avatar_path"`
	IsPremium     bool       `gorm:"not null;default:false" json:"is_premium"`
	PremiumExpiry *time.Time `json:"premium_expiry"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

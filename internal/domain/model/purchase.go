package model

import "time"

// Purchaseは解放済みコンテンツ1件。
// (user_id, item_type, item_id, department)で一意。重複grantはno-op。
type Purchase struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_unique,priority:1;index" json:"user_id"`
	ItemType   string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_purchase_unique,priority:2" json:"item_type"`
	ItemID     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_purchase_unique,priority:3" json:"item_id"`
	Department *string   `gorm:"type:varchar(50);uniqueIndex:idx_purchase_unique,priority:4" json:"department"`
	OrderID    string    `gorm:"type:uuid;not null" json:"order_id"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

// Orderは1回の購入試行。statusはpendingからcompleted/failedへ一方通行。
type Order struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string         `gorm:"type:uuid;not null;index" json:"user_id"`
	ItemID         string         `gorm:"type:varchar(255);not null" json:"item_id"`
	ItemType       string         `gorm:"type:varchar(50);not null" json:"item_type"`
	Amount         float64        `gorm:"not null" json:"amount"`
	Currency       string         `gorm:"type:varchar(8);not null" json:"currency"`
	Status         OrderStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	GatewayOrderID string         `gorm:"type:varchar(64);index" json:"gateway_order_id"`
	Notes          datatypes.JSON `json:"notes"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

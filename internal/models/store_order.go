package models

import "time"

type StoreOrderStatus string

const (
	StoreOrderStatusNew       StoreOrderStatus = "new"
	StoreOrderStatusConfirmed StoreOrderStatus = "confirmed"
	StoreOrderStatusCompleted StoreOrderStatus = "completed"
	StoreOrderStatusCancelled StoreOrderStatus = "cancelled"
)

// StoreOrder: Vitrinden (public storefront) gelen sipariş. Ziyaretçi login
// olmadan sipariş bırakır, şirket panelden durumunu yönetir.
// Vitrin siparişi stok düşmez; stok ancak siparişten satış yaratılınca düşer.
type StoreOrder struct {
	ID            uint   `gorm:"primaryKey"`
	CompanyID     uint   `gorm:"index;not null"`
	Company       Company
	OrderNo       string `gorm:"size:30;uniqueIndex;not null"`
	CustomerName  string `gorm:"size:100;not null"`
	CustomerPhone string `gorm:"size:50;not null"`
	CustomerEmail string `gorm:"size:100"`
	Note          string `gorm:"size:500"`
	Total         float64          `gorm:"not null"`
	Status        StoreOrderStatus `gorm:"size:20;not null;default:new"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []StoreOrderItem
}

type StoreOrderItem struct {
	ID              uint `gorm:"primaryKey"`
	StoreOrderID    uint `gorm:"index;not null"`
	InventoryItemID uint `gorm:"index;not null"`
	InventoryItem   InventoryItem
	ItemName        string  `gorm:"size:150;not null"` // sipariş anındaki isim (denormalize)
	Quantity        int     `gorm:"not null"`
	UnitPrice       float64 `gorm:"not null"` // sipariş anındaki fiyat
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

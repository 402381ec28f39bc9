package models

import "time"

// WasteEntry: Zayiat (kırılan çerçeve, çizilen cam...). Oluşturulduğunda
// stok ledger üzerinden düşülür; stok yetersizse kayıt reddedilir.
type WasteEntry struct {
	ID              uint `gorm:"primaryKey"`
	CompanyID       uint `gorm:"index;not null"`
	Company         Company
	InventoryItemID uint `gorm:"index;not null"`
	InventoryItem   InventoryItem
	Date            time.Time `gorm:"index;not null"`
	Quantity        int       `gorm:"not null"`
	Reason          string    `gorm:"size:255"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

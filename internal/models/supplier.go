package models

import "time"

type Supplier struct {
	ID          uint   `gorm:"primaryKey"`
	CompanyID   uint   `gorm:"index;not null"`
	Company     Company
	Name        string `gorm:"size:100;not null"`
	Phone       string `gorm:"size:50"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SupplierPurchase: Tedarikçiden mal alımı. Oluşturulduğunda ilgili stok
// kaleminin TotalStock'u aynı transaction içinde artırılır.
type SupplierPurchase struct {
	ID              uint `gorm:"primaryKey"`
	CompanyID       uint `gorm:"index;not null"`
	Company         Company
	SupplierID      uint `gorm:"index;not null"`
	Supplier        Supplier
	InventoryItemID uint `gorm:"index;not null"`
	InventoryItem   InventoryItem
	Date            time.Time `gorm:"index;not null"`
	Quantity        int       `gorm:"not null"`
	UnitCost        float64   `gorm:"not null"`
	TotalCost       float64   `gorm:"not null"`
	Description     string    `gorm:"size:255"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

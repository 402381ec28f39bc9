package models

import "time"

// Category: Şirket bazlı ürün kategorisi (çerçeve, cam, aksesuar...)
// Type opsiyonel: "frame" | "lens" | "" (genel)
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	CompanyID uint   `gorm:"index;not null;uniqueIndex:idx_categories_company_name"`
	Company   Company
	Name      string `gorm:"size:100;not null;uniqueIndex:idx_categories_company_name"`
	Type      string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InventoryItem: Stok kalemi. İsim şirket içinde benzersiz; satışlar
// çerçeve/cam eşleşmesini bu isim üzerinden yapar.
// TotalStock hiçbir zaman negatif olamaz; ihlal eden işlemler reddedilir.
type InventoryItem struct {
	ID         uint    `gorm:"primaryKey"`
	CompanyID  uint    `gorm:"index;not null;uniqueIndex:idx_items_company_name"`
	Company    Company
	Name       string  `gorm:"size:150;not null;uniqueIndex:idx_items_company_name"`
	ItemCode   string  `gorm:"size:30;index"` // sistem üretir, ör: "ITM-4F2A9C1B"
	CategoryID *uint   `gorm:"index"`
	Category   *Category
	UnitPrice  float64 `gorm:"not null"`
	TotalStock int     `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

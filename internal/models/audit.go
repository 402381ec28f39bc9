package models

import "time"

// Audit: Belirli bir tarih aralığı için stok mutabakat kaydı.
// Audit yalnızca karşılaştırma yapar, stok düzeltmez; ActualQuantity
// bilgilendirme amaçlıdır ve TotalStock'a geri yazılmaz.
type Audit struct {
	ID              uint `gorm:"primaryKey"`
	CompanyID       uint `gorm:"index;not null"`
	Company         Company
	StartDate       time.Time `gorm:"index;not null"`
	EndDate         time.Time `gorm:"index;not null"`
	IncludeExpenses bool      `gorm:"not null;default:false"` // fatura + maaş giderlerini özete kat
	Notes           string    `gorm:"size:500"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []AuditItem
}

// AuditItem: Sayım satırı. ExpectedQuantity audit oluşturulurken bir kez
// doldurulur (boş gelirse o anki TotalStock yazılır) ve sonradan asla
// yeniden hesaplanmaz; stok değişmeye devam eder, snapshot sabittir.
type AuditItem struct {
	ID               uint `gorm:"primaryKey"`
	AuditID          uint `gorm:"index;not null"`
	InventoryItemID  uint `gorm:"index;not null"`
	InventoryItem    InventoryItem
	ExpectedQuantity int    `gorm:"not null"`
	ActualQuantity   int    `gorm:"not null"`
	Notes            string `gorm:"size:255"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

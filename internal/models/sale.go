package models

import "time"

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusReady     SaleStatus = "ready"
	SaleStatusDelivered SaleStatus = "delivered"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// Sale: Gözlük satışı. Frame ve Lens foreign key değil, serbest metin isimdir;
// stok düşümü şirket içinde birebir isim eşleşmesiyle yapılır.
// Stok ürünü yeniden adlandırılırsa eski satışların bağlantısı kopar,
// bu bilinen ve korunan bir davranıştır.
type Sale struct {
	ID         uint   `gorm:"primaryKey"`
	CompanyID  uint   `gorm:"index;not null"`
	Company    Company
	CustomerID uint `gorm:"index;not null"`
	Customer   Customer
	OrderNo    string `gorm:"size:30;uniqueIndex;not null"` // sistem üretir, ör: "SO-9B1C44E0"

	Frame string `gorm:"size:150"` // boş olabilir (sadece cam satışı)
	Lens  string `gorm:"size:150"` // boş olabilir (sadece çerçeve satışı)

	// Reçete alanları
	RightSphere   string `gorm:"size:20"`
	RightCylinder string `gorm:"size:20"`
	RightAxis     string `gorm:"size:20"`
	LeftSphere    string `gorm:"size:20"`
	LeftCylinder  string `gorm:"size:20"`
	LeftAxis      string `gorm:"size:20"`
	PupilDistance string `gorm:"size:20"`

	Total     float64 `gorm:"not null"`
	Received  float64 `gorm:"not null"`
	Remaining float64 `gorm:"not null"` // her zaman Total - Received

	Status       SaleStatus `gorm:"size:20;not null;default:pending"`
	EntryDate    time.Time  `gorm:"index;not null"`
	DeliveryDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

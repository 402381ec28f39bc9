package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// Payment: Satışa karşı alınan tahsilat. Oluşturulduğunda satışın
// Received alanı artar, Remaining aynı transaction içinde yeniden hesaplanır.
type Payment struct {
	ID          uint `gorm:"primaryKey"`
	CompanyID   uint `gorm:"index;not null"`
	Company     Company
	SaleID      uint `gorm:"index;not null"`
	Sale        Sale
	Date        time.Time     `gorm:"index;not null"`
	Method      PaymentMethod `gorm:"size:20;not null"`
	Amount      float64       `gorm:"not null"`
	Description string        `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

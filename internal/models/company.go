package models

import "time"

// Company: Tenant. Tüm iş verileri (satış, stok, müşteri, fatura...)
// company_id ile ayrılır, şirketler arası referans yok.
type Company struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Slug      string `gorm:"size:60;not null;uniqueIndex"` // vitrin URL anahtarı (ör: /store/optik-merkez)
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}

// ThemeSettings: Şirket başına vitrin tema ayarları
type ThemeSettings struct {
	ID             uint   `gorm:"primaryKey"`
	CompanyID      uint   `gorm:"uniqueIndex;not null"`
	Company        Company
	StoreName      string `gorm:"size:100"`
	PrimaryColor   string `gorm:"size:20"` // hex, ör: "#1a73e8"
	SecondaryColor string `gorm:"size:20"`
	LogoURL        string `gorm:"size:255"`
	WelcomeText    string `gorm:"size:500"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

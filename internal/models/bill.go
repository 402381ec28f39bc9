package models

import "time"

type BillCategory struct {
	ID        uint   `gorm:"primaryKey"`
	CompanyID uint   `gorm:"index;not null"`
	Company   Company
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bill: İşletme gideri (kira, elektrik, tedarikçi faturası...).
// Audit'in includeExpenses özetine maaş ödemeleriyle birlikte girer.
type Bill struct {
	ID          uint `gorm:"primaryKey"`
	CompanyID   uint `gorm:"index;not null"`
	Company     Company
	CategoryID  uint `gorm:"index;not null"`
	Category    BillCategory
	Title       string    `gorm:"size:150;not null"`
	Date        time.Time `gorm:"index;not null"`
	Amount      float64   `gorm:"not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

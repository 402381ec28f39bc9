package models

import "time"

type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	CompanyID uint   `gorm:"index;not null"`
	Company   Company
	Name      string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:50;index"`
	Email     string `gorm:"size:100"`
	Address   string `gorm:"size:255"`
	BirthDate *time.Time
	Notes     string `gorm:"size:500"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

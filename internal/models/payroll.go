package models

import "time"

type Employee struct {
	ID            uint   `gorm:"primaryKey"`
	CompanyID     uint   `gorm:"index;not null"`
	Company       Company
	Name          string  `gorm:"size:100;not null"`
	Position      string  `gorm:"size:100"`
	MonthlySalary float64 `gorm:"not null;default:0"`
	Active        bool    `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SalaryPayment: Maaş ödemesi. Audit'in dönem gider özetine dahil edilir.
type SalaryPayment struct {
	ID          uint `gorm:"primaryKey"`
	CompanyID   uint `gorm:"index;not null"`
	Company     Company
	EmployeeID  uint `gorm:"index;not null"`
	Employee    Employee
	Date        time.Time `gorm:"index;not null"`
	Amount      float64   `gorm:"not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

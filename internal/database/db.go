package database

import (
	"optik-backend/internal/config"
	"optik-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("Veritabanına bağlanılamadı")
	}

	if err := Migrate(DB); err != nil {
		logrus.WithError(err).Fatal("AutoMigrate hatası")
	}

	logrus.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: Tüm modelleri migrate eder. Testler sqlite ile aynı şemayı
// kurmak için bunu çağırır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.ThemeSettings{},
		&models.User{},
		&models.Customer{},
		&models.Category{},
		&models.InventoryItem{},
		&models.Sale{},
		&models.Payment{},
		&models.Audit{},
		&models.AuditItem{},
		&models.BillCategory{},
		&models.Bill{},
		&models.Employee{},
		&models.SalaryPayment{},
		&models.Supplier{},
		&models.SupplierPurchase{},
		&models.WasteEntry{},
		&models.StoreOrder{},
		&models.StoreOrderItem{},
		&models.ActivityLog{},
	)
}

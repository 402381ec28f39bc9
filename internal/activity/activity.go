package activity

import (
	"fmt"

	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/sirupsen/logrus"
)

type LogOptions struct {
	CompanyID   *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.ActivityAction
	Description string
}

// WriteLog: Aktivite kaydı düşer. Log yazılamaması iş akışını durdurmaz,
// çağıranlar dönüş değerini genelde yok sayar.
func WriteLog(opts LogOptions) error {
	entry := models.ActivityLog{
		CompanyID:   opts.CompanyID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		logrus.WithError(err).Warn("aktivite kaydı yazılamadı")
		return fmt.Errorf("aktivite kaydı yazılamadı: %w", err)
	}

	return nil
}

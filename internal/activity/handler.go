package activity

import (
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/activity-logs?entity_type=sale&limit=50
func ListActivityLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 100)
		if limit < 1 || limit > 500 {
			limit = 100
		}

		dbq := database.DB.
			Where("company_id = ?", companyID).
			Order("created_at DESC").
			Limit(limit)

		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}

		var logs []models.ActivityLog
		if err := dbq.Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Aktivite kayıtları listelenemedi")
		}

		return c.JSON(logs)
	}
}

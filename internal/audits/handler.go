package audits

import (
	"fmt"
	"time"

	"optik-backend/internal/activity"
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"
	"optik-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuditItemRequest struct {
	InventoryItemID  uint   `json:"inventory_item_id" validate:"required"`
	ExpectedQuantity *int   `json:"expected_quantity" validate:"omitempty,gte=0"` // boşsa o anki stoktan doldurulur
	ActualQuantity   int    `json:"actual_quantity" validate:"gte=0"`
	Notes            string `json:"notes"`
}

type CreateAuditRequest struct {
	StartDate       string             `json:"start_date" validate:"required"`
	EndDate         string             `json:"end_date" validate:"required"`
	Items           []AuditItemRequest `json:"items" validate:"required,min=1,dive"`
	IncludeExpenses bool               `json:"include_expenses"`
	Notes           string             `json:"notes"`
}

type AuditItemResponse struct {
	ID               uint   `json:"id"`
	InventoryItemID  uint   `json:"inventory_item_id"`
	ItemName         string `json:"item_name"`
	ItemCode         string `json:"item_code"`
	ExpectedQuantity int    `json:"expected_quantity"`
	ActualQuantity   int    `json:"actual_quantity"`
	Variance         int    `json:"variance"` // actual - expected; sıfır değilse fire veya fazlalık
	Notes            string `json:"notes"`
}

type AuditResponse struct {
	ID              uint                `json:"id"`
	StartDate       string              `json:"start_date"`
	EndDate         string              `json:"end_date"`
	IncludeExpenses bool                `json:"include_expenses"`
	Notes           string              `json:"notes"`
	CreatedAt       string              `json:"created_at"`
	Items           []AuditItemResponse `json:"items"`
	Summary         *FinancialSummary   `json:"summary,omitempty"`
}

func auditResponse(a *models.Audit, summary *FinancialSummary) AuditResponse {
	items := make([]AuditItemResponse, 0, len(a.Items))
	for _, it := range a.Items {
		items = append(items, AuditItemResponse{
			ID:               it.ID,
			InventoryItemID:  it.InventoryItemID,
			ItemName:         it.InventoryItem.Name,
			ItemCode:         it.InventoryItem.ItemCode,
			ExpectedQuantity: it.ExpectedQuantity,
			ActualQuantity:   it.ActualQuantity,
			Variance:         it.ActualQuantity - it.ExpectedQuantity,
			Notes:            it.Notes,
		})
	}
	return AuditResponse{
		ID:              a.ID,
		StartDate:       a.StartDate.Format("2006-01-02"),
		EndDate:         a.EndDate.Format("2006-01-02"),
		IncludeExpenses: a.IncludeExpenses,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:           items,
		Summary:         summary,
	}
}

// Yardımcı: Kullanıcı bilgilerini al (aktivite logu için)
func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.Name, nil
}

// POST /api/audits
// Sayım kaydı. expected_quantity verilmemişse o anki TotalStock yazılır;
// bu bir snapshot'tır, sonradan stok değişse de yeniden hesaplanmaz.
// Audit stok düzeltmez.
func CreateAuditHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAuditRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		startDate, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_date formatı 'YYYY-MM-DD' olmalı")
		}
		endDate, err := time.Parse("2006-01-02", body.EndDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_date formatı 'YYYY-MM-DD' olmalı")
		}
		if endDate.Before(startDate) {
			return fiber.NewError(fiber.StatusBadRequest, "end_date start_date'ten önce olamaz")
		}

		audit := models.Audit{
			CompanyID:       companyID,
			StartDate:       startDate,
			EndDate:         endDate,
			IncludeExpenses: body.IncludeExpenses,
			Notes:           body.Notes,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, itemReq := range body.Items {
				var invItem models.InventoryItem
				if err := tx.Where("company_id = ? AND id = ?", companyID, itemReq.InventoryItemID).First(&invItem).Error; err != nil {
					return fmt.Errorf("stok kalemi bulunamadı (ID: %d)", itemReq.InventoryItemID)
				}

				expected := invItem.TotalStock // otomatik: oluşturma anındaki stok
				if itemReq.ExpectedQuantity != nil {
					expected = *itemReq.ExpectedQuantity
				}

				audit.Items = append(audit.Items, models.AuditItem{
					InventoryItemID:  invItem.ID,
					ExpectedQuantity: expected,
					ActualQuantity:   itemReq.ActualQuantity,
					Notes:            itemReq.Notes,
				})
			}
			return tx.Create(&audit).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Sayım oluşturulamadı: %v", err))
		}

		// Item isimlerini response için yükle
		if err := database.DB.Preload("Items.InventoryItem").First(&audit, audit.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayım kaydı okunamadı")
		}

		var summary *FinancialSummary
		if audit.IncludeExpenses {
			s, err := buildFinancialSummary(companyID, audit.StartDate, audit.EndDate, true)
			if err == nil {
				summary = &s
			}
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "audit",
				EntityID:    audit.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Stok sayımı oluşturuldu: %s - %s (%d kalem)", body.StartDate, body.EndDate, len(audit.Items)),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(auditResponse(&audit, summary))
	}
}

// GET /api/audits?start_date=&end_date=&period=
// En yeni önce. start_date/end_date verilirse pencereyle kesişen auditler;
// period (week|month|year|all) eski istemciler için aynı filtrenin kısayolu.
func ListAuditsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.
			Preload("Items.InventoryItem").
			Where("company_id = ?", companyID)

		var filterStart, filterEnd time.Time
		hasFilter := false

		if sStr := c.Query("start_date"); sStr != "" {
			filterStart, err = time.Parse("2006-01-02", sStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date geçersiz")
			}
			hasFilter = true
		}
		if eStr := c.Query("end_date"); eStr != "" {
			filterEnd, err = time.Parse("2006-01-02", eStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date geçersiz")
			}
			hasFilter = true
		}

		if !hasFilter {
			start, end, ok, perr := periodRange(c.Query("period"), time.Now())
			if perr != nil {
				return fiber.NewError(fiber.StatusBadRequest, perr.Error())
			}
			if ok {
				filterStart, filterEnd = start, end
				hasFilter = true
			}
		}

		if hasFilter {
			// Pencere kesişimi: audit.start <= filtre sonu && audit.end >= filtre başı
			if !filterEnd.IsZero() {
				dbq = dbq.Where("start_date <= ?", filterEnd)
			}
			if !filterStart.IsZero() {
				dbq = dbq.Where("end_date >= ?", filterStart)
			}
		}

		var audits []models.Audit
		if err := dbq.Order("created_at DESC").Find(&audits).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayımlar listelenemedi")
		}

		resp := make([]AuditResponse, 0, len(audits))
		for i := range audits {
			var summary *FinancialSummary
			if audits[i].IncludeExpenses {
				if s, err := buildFinancialSummary(companyID, audits[i].StartDate, audits[i].EndDate, true); err == nil {
					summary = &s
				}
			}
			resp = append(resp, auditResponse(&audits[i], summary))
		}
		return c.JSON(resp)
	}
}

// GET /api/audits/:id
func GetAuditHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var audit models.Audit
		if err := database.DB.Preload("Items.InventoryItem").Where("company_id = ?", companyID).First(&audit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sayım bulunamadı")
		}

		var summary *FinancialSummary
		if audit.IncludeExpenses {
			if s, err := buildFinancialSummary(companyID, audit.StartDate, audit.EndDate, true); err == nil {
				summary = &s
			}
		}

		return c.JSON(auditResponse(&audit, summary))
	}
}

// DELETE /api/audits/:id
// Audit silmek stoka dokunmaz; sayım sadece kayıttır.
func DeleteAuditHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var audit models.Audit
		if err := database.DB.Where("company_id = ?", companyID).First(&audit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sayım bulunamadı")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("audit_id = ?", audit.ID).Delete(&models.AuditItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&audit).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayım silinemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "audit",
				EntityID:    audit.ID,
				Action:      models.ActivityActionDelete,
				Description: fmt.Sprintf("Stok sayımı silindi (ID: %d)", audit.ID),
			})
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

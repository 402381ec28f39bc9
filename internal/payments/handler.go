package payments

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

type CreatePaymentRequest struct {
	SaleID      uint    `json:"sale_id" validate:"required"`
	Date        string  `json:"date"` // boşsa bugün
	Method      string  `json:"method" validate:"required,oneof=cash card transfer"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
}

type PaymentResponse struct {
	ID            uint    `json:"id"`
	SaleID        uint    `json:"sale_id"`
	OrderNo       string  `json:"order_no"`
	Date          string  `json:"date"`
	Method        string  `json:"method"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	SaleRemaining float64 `json:"sale_remaining"`
}

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

// POST /api/payments
// Tahsilat kaydı: satışın Received/Remaining alanları aynı transaction içinde güncellenir.
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePaymentRequest
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

		date := time.Now()
		if body.Date != "" {
			date, err = time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		var sale models.Sale
		if err := database.DB.Where("company_id = ?", companyID).First(&sale, "id = ?", body.SaleID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}
		if sale.Status == models.SaleStatusCancelled {
			return fiber.NewError(fiber.StatusBadRequest, "İptal edilmiş satışa tahsilat girilemez")
		}
		if body.Amount > sale.Remaining {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Tahsilat kalan tutarı aşamaz (kalan: %.2f)", sale.Remaining))
		}

		payment := models.Payment{
			CompanyID:   companyID,
			SaleID:      sale.ID,
			Date:        date,
			Method:      models.PaymentMethod(body.Method),
			Amount:      body.Amount,
			Description: body.Description,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			sale.Received += body.Amount
			sale.Remaining = sale.Total - sale.Received
			return tx.Save(&sale).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilat kaydedilemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "payment",
				EntityID:    payment.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Tahsilat: %s - %.2f (%s)", sale.OrderNo, payment.Amount, payment.Method),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(PaymentResponse{
			ID:            payment.ID,
			SaleID:        sale.ID,
			OrderNo:       sale.OrderNo,
			Date:          payment.Date.Format("2006-01-02"),
			Method:        string(payment.Method),
			Amount:        payment.Amount,
			Description:   payment.Description,
			SaleRemaining: sale.Remaining,
		})
	}
}

// GET /api/payments?sale_id=&from=&to=
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.
			Preload("Sale").
			Where("company_id = ?", companyID)

		if saleID := c.QueryInt("sale_id", 0); saleID > 0 {
			dbq = dbq.Where("sale_id = ?", saleID)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("date <= ?", to)
		}

		var paymentsList []models.Payment
		if err := dbq.Order("date DESC, created_at DESC").Find(&paymentsList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilatlar listelenemedi")
		}

		resp := make([]PaymentResponse, 0, len(paymentsList))
		for _, p := range paymentsList {
			resp = append(resp, PaymentResponse{
				ID:            p.ID,
				SaleID:        p.SaleID,
				OrderNo:       p.Sale.OrderNo,
				Date:          p.Date.Format("2006-01-02"),
				Method:        string(p.Method),
				Amount:        p.Amount,
				Description:   p.Description,
				SaleRemaining: p.Sale.Remaining,
			})
		}
		return c.JSON(resp)
	}
}

// DELETE /api/payments/:id
// Tahsilat silinince satışın Received/Remaining alanları geri alınır.
func DeletePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var payment models.Payment
		if err := database.DB.Where("company_id = ?", companyID).First(&payment, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tahsilat bulunamadı")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var sale models.Sale
			if err := tx.First(&sale, "id = ?", payment.SaleID).Error; err == nil {
				sale.Received -= payment.Amount
				if sale.Received < 0 {
					sale.Received = 0
				}
				sale.Remaining = sale.Total - sale.Received
				if err := tx.Save(&sale).Error; err != nil {
					return err
				}
			}
			return tx.Delete(&payment).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilat silinemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "payment",
				EntityID:    payment.ID,
				Action:      models.ActivityActionDelete,
				Description: fmt.Sprintf("Tahsilat silindi: %.2f", payment.Amount),
			})
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

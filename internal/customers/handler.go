package customers

import (
	"strings"
	"time"

	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CustomerResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
	Address   string  `json:"address"`
	BirthDate *string `json:"birth_date"`
	Notes     string  `json:"notes"`
	CreatedAt string  `json:"created_at"`
}

type CreateCustomerRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	BirthDate string `json:"birth_date"` // opsiyonel, "YYYY-MM-DD"
	Notes     string `json:"notes"`
}

type UpdateCustomerRequest struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	BirthDate *string `json:"birth_date"`
	Notes     *string `json:"notes"`
}

func customerResponse(cust *models.Customer) CustomerResponse {
	var birth *string
	if cust.BirthDate != nil {
		b := cust.BirthDate.Format("2006-01-02")
		birth = &b
	}
	return CustomerResponse{
		ID:        cust.ID,
		Name:      cust.Name,
		Phone:     cust.Phone,
		Email:     cust.Email,
		Address:   cust.Address,
		BirthDate: birth,
		Notes:     cust.Notes,
		CreatedAt: cust.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/customers?q=
// q ile isim veya telefon araması
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("company_id = ?", companyID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name LIKE ? OR phone LIKE ?", "%"+q+"%", "%"+q+"%")
		}

		var custs []models.Customer
		if err := dbq.Order("name asc").Find(&custs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		res := make([]CustomerResponse, 0, len(custs))
		for i := range custs {
			res = append(res, customerResponse(&custs[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}

		var birthDate *time.Time
		if body.BirthDate != "" {
			d, err := time.Parse("2006-01-02", body.BirthDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "birth_date formatı 'YYYY-MM-DD' olmalı")
			}
			birthDate = &d
		}

		cust := models.Customer{
			CompanyID: companyID,
			Name:      body.Name,
			Phone:     strings.TrimSpace(body.Phone),
			Email:     strings.TrimSpace(body.Email),
			Address:   body.Address,
			BirthDate: birthDate,
			Notes:     body.Notes,
		}

		if err := database.DB.Create(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(customerResponse(&cust))
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var cust models.Customer
		if err := database.DB.Where("company_id = ?", companyID).First(&cust, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		return c.JSON(customerResponse(&cust))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var cust models.Customer
		if err := database.DB.Where("company_id = ?", companyID).First(&cust, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var body UpdateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			cust.Name = name
		}
		if body.Phone != nil {
			cust.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			cust.Email = strings.TrimSpace(*body.Email)
		}
		if body.Address != nil {
			cust.Address = *body.Address
		}
		if body.Notes != nil {
			cust.Notes = *body.Notes
		}
		if body.BirthDate != nil {
			if *body.BirthDate == "" {
				cust.BirthDate = nil
			} else {
				d, err := time.Parse("2006-01-02", *body.BirthDate)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "birth_date formatı 'YYYY-MM-DD' olmalı")
				}
				cust.BirthDate = &d
			}
		}

		if err := database.DB.Save(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		return c.JSON(customerResponse(&cust))
	}
}

// DELETE /api/customers/:id
// Satışı olan müşteri silinemez; geçmiş satış kayıtları sahipsiz kalmasın.
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var cust models.Customer
		if err := database.DB.Where("company_id = ?", companyID).First(&cust, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var saleCount int64
		database.DB.Model(&models.Sale{}).Where("customer_id = ?", cust.ID).Count(&saleCount)
		if saleCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Satış kaydı olan müşteri silinemez")
		}

		if err := database.DB.Delete(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri silinemedi")
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/customers/:id/balance
// Müşterinin açık bakiyesi: teslim edilmemiş/ödenmemiş satışların kalan toplamı
func GetCustomerBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var cust models.Customer
		if err := database.DB.Where("company_id = ?", companyID).First(&cust, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var remaining *float64
		if err := database.DB.Model(&models.Sale{}).
			Where("company_id = ? AND customer_id = ? AND status <> ?", companyID, cust.ID, models.SaleStatusCancelled).
			Select("SUM(remaining)").
			Scan(&remaining).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hesaplanamadı")
		}

		balance := 0.0
		if remaining != nil {
			balance = *remaining
		}

		return c.JSON(fiber.Map{
			"customer_id": cust.ID,
			"name":        cust.Name,
			"balance":     balance,
		})
	}
}

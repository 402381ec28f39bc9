package suppliers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"optik-backend/internal/activity"
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/ledger"
	"optik-backend/internal/models"
	"optik-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SupplierResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
}

type CreateSupplierRequest struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
}

type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Description *string `json:"description"`
}

type CreatePurchaseRequest struct {
	SupplierID      uint    `json:"supplier_id" validate:"required"`
	InventoryItemID uint    `json:"inventory_item_id" validate:"required"`
	Date            string  `json:"date"` // boşsa bugün
	Quantity        int     `json:"quantity" validate:"required,gt=0"`
	UnitCost        float64 `json:"unit_cost" validate:"gte=0"`
	Description     string  `json:"description"`
}

type PurchaseResponse struct {
	ID           uint    `json:"id"`
	SupplierID   uint    `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	ItemID       uint    `json:"inventory_item_id"`
	ItemName     string  `json:"item_name"`
	Date         string  `json:"date"`
	Quantity     int     `json:"quantity"`
	UnitCost     float64 `json:"unit_cost"`
	TotalCost    float64 `json:"total_cost"`
	Description  string  `json:"description"`
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

func supplierResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{ID: s.ID, Name: s.Name, Phone: s.Phone, Description: s.Description}
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var suppliersList []models.Supplier
		if err := database.DB.Where("company_id = ?", companyID).Order("name asc").Find(&suppliersList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		resp := make([]SupplierResponse, 0, len(suppliersList))
		for _, s := range suppliersList {
			resp = append(resp, supplierResponse(s))
		}
		return c.JSON(resp)
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplierRequest
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

		supplier := models.Supplier{
			CompanyID:   companyID,
			Name:        strings.TrimSpace(body.Name),
			Phone:       body.Phone,
			Description: body.Description,
		}
		if supplier.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}

		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(supplierResponse(supplier))
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var supplier models.Supplier
		if err := database.DB.Where("company_id = ?", companyID).First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			supplier.Name = name
		}
		if body.Phone != nil {
			supplier.Phone = *body.Phone
		}
		if body.Description != nil {
			supplier.Description = *body.Description
		}

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi güncellenemedi")
		}
		return c.JSON(supplierResponse(supplier))
	}
}

// DELETE /api/suppliers/:id
// Tedarikçi ile birlikte alım kayıtları da silinir; stok geri alınmaz
// (mal zaten rafta, alım geçmişi sadece kayıt).
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var supplier models.Supplier
		if err := database.DB.Where("company_id = ?", companyID).First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("supplier_id = ?", supplier.ID).Delete(&models.SupplierPurchase{}).Error; err != nil {
				return err
			}
			return tx.Delete(&supplier).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// POST /api/supplier-purchases
// Alım kaydı: stok aynı transaction içinde artırılır.
func CreatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseRequest
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

		var supplier models.Supplier
		if err := database.DB.Where("company_id = ?", companyID).First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}
		var item models.InventoryItem
		if err := database.DB.Where("company_id = ?", companyID).First(&item, "id = ?", body.InventoryItemID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok ürünü bulunamadı")
		}

		date := time.Now()
		if body.Date != "" {
			date, err = time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		purchase := models.SupplierPurchase{
			CompanyID:       companyID,
			SupplierID:      supplier.ID,
			InventoryItemID: item.ID,
			Date:            date,
			Quantity:        body.Quantity,
			UnitCost:        body.UnitCost,
			TotalCost:       body.UnitCost * float64(body.Quantity),
			Description:     body.Description,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ledger.AddByID(tx, companyID, item.ID, body.Quantity); err != nil {
				return err
			}
			return tx.Create(&purchase).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alım kaydedilemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "supplier_purchase",
				EntityID:    purchase.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Alım: %s x%d (%s)", item.Name, purchase.Quantity, supplier.Name),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(PurchaseResponse{
			ID:           purchase.ID,
			SupplierID:   supplier.ID,
			SupplierName: supplier.Name,
			ItemID:       item.ID,
			ItemName:     item.Name,
			Date:         purchase.Date.Format("2006-01-02"),
			Quantity:     purchase.Quantity,
			UnitCost:     purchase.UnitCost,
			TotalCost:    purchase.TotalCost,
			Description:  purchase.Description,
		})
	}
}

// GET /api/supplier-purchases?supplier_id=&from=&to=
func ListPurchasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.
			Preload("Supplier").
			Preload("InventoryItem").
			Where("company_id = ?", companyID)

		if sid := c.QueryInt("supplier_id", 0); sid > 0 {
			dbq = dbq.Where("supplier_id = ?", sid)
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

		var purchases []models.SupplierPurchase
		if err := dbq.Order("date DESC, created_at DESC").Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alımlar listelenemedi")
		}

		resp := make([]PurchaseResponse, 0, len(purchases))
		for _, p := range purchases {
			resp = append(resp, PurchaseResponse{
				ID:           p.ID,
				SupplierID:   p.SupplierID,
				SupplierName: p.Supplier.Name,
				ItemID:       p.InventoryItemID,
				ItemName:     p.InventoryItem.Name,
				Date:         p.Date.Format("2006-01-02"),
				Quantity:     p.Quantity,
				UnitCost:     p.UnitCost,
				TotalCost:    p.TotalCost,
				Description:  p.Description,
			})
		}
		return c.JSON(resp)
	}
}

// DELETE /api/supplier-purchases/:id
// Alım silinince stok geri düşülür; stok yetmiyorsa 400.
func DeletePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var purchase models.SupplierPurchase
		if err := database.DB.Where("company_id = ?", companyID).First(&purchase, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alım kaydı bulunamadı")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ledger.DeductByID(tx, companyID, purchase.InventoryItemID, purchase.Quantity); err != nil {
				// ürün silinmişse kayıt yine temizlenebilir
				if !errors.Is(err, ledger.ErrItemNotFound) {
					return err
				}
			}
			return tx.Delete(&purchase).Error
		})
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientStock) {
				return fiber.NewError(fiber.StatusBadRequest, "Failed to deduct inventory: "+err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Alım silinemedi")
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

package inventory

import (
	"fmt"
	"strings"

	"optik-backend/internal/activity"
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"
	"optik-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ItemResponse struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	ItemCode   string  `json:"item_code"`
	CategoryID *uint   `json:"category_id"`
	Category   string  `json:"category"`
	UnitPrice  float64 `json:"unit_price"`
	TotalStock int     `json:"total_stock"`
}

type CreateItemRequest struct {
	Name       string  `json:"name" validate:"required"`
	CategoryID *uint   `json:"category_id"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
	TotalStock int     `json:"total_stock" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Name       *string  `json:"name"`
	CategoryID *uint    `json:"category_id"`
	UnitPrice  *float64 `json:"unit_price"`
	TotalStock *int     `json:"total_stock"`
}

func itemResponse(it *models.InventoryItem) ItemResponse {
	categoryName := ""
	if it.Category != nil {
		categoryName = it.Category.Name
	}
	return ItemResponse{
		ID:         it.ID,
		Name:       it.Name,
		ItemCode:   it.ItemCode,
		CategoryID: it.CategoryID,
		Category:   categoryName,
		UnitPrice:  it.UnitPrice,
		TotalStock: it.TotalStock,
	}
}

func newItemCode() string {
	return "ITM-" + strings.ToUpper(uuid.New().String()[:8])
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

// GET /api/inventory?category_id=&q=&low_stock=
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.
			Preload("Category").
			Where("company_id = ?", companyID)

		if cid := c.QueryInt("category_id", 0); cid > 0 {
			dbq = dbq.Where("category_id = ?", cid)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name LIKE ?", "%"+q+"%")
		}
		if c.Query("low_stock") == "true" {
			dbq = dbq.Where("total_stock <= ?", 2)
		}

		var items []models.InventoryItem
		if err := dbq.Order("name asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemleri listelenemedi")
		}

		res := make([]ItemResponse, 0, len(items))
		for i := range items {
			res = append(res, itemResponse(&items[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/inventory
func CreateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
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

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}

		// İsim şirket içinde benzersiz olmalı; satışlar bu isme bağlanır
		var existing models.InventoryItem
		if err := database.DB.Where("company_id = ? AND name = ?", companyID, body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu ürün adı zaten kullanılıyor")
		}

		if body.CategoryID != nil {
			var category models.Category
			if err := database.DB.Where("company_id = ? AND id = ?", companyID, *body.CategoryID).First(&category).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
		}

		item := models.InventoryItem{
			CompanyID:  companyID,
			Name:       body.Name,
			ItemCode:   newItemCode(),
			CategoryID: body.CategoryID,
			UnitPrice:  body.UnitPrice,
			TotalStock: body.TotalStock,
		}

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi oluşturulamadı")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_item",
				EntityID:    item.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Stok kalemi oluşturuldu: %s (%d adet)", item.Name, item.TotalStock),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(itemResponse(&item))
	}
}

// PUT /api/inventory/:id
// total_stock doğrudan düzenlenebilir ama negatif değer reddedilir,
// sıfıra yuvarlanmaz.
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var item models.InventoryItem
		if err := database.DB.Where("company_id = ?", companyID).First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			if name != item.Name {
				var existing models.InventoryItem
				if err := database.DB.Where("company_id = ? AND name = ? AND id <> ?", companyID, name, item.ID).First(&existing).Error; err == nil {
					return fiber.NewError(fiber.StatusConflict, "Bu ürün adı zaten kullanılıyor")
				}
				// Dikkat: isim değişince eski satışların stok bağlantısı kopar.
				// Bilinen davranış, isim bazlı eşleşmenin bedeli.
				item.Name = name
			}
		}

		if body.CategoryID != nil {
			var category models.Category
			if err := database.DB.Where("company_id = ? AND id = ?", companyID, *body.CategoryID).First(&category).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			item.CategoryID = body.CategoryID
		}

		if body.UnitPrice != nil {
			if *body.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Birim fiyat negatif olamaz")
			}
			item.UnitPrice = *body.UnitPrice
		}

		if body.TotalStock != nil {
			if *body.TotalStock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Stok negatif olamaz")
			}
			item.TotalStock = *body.TotalStock
		}

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi güncellenemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_item",
				EntityID:    item.ID,
				Action:      models.ActivityActionUpdate,
				Description: fmt.Sprintf("Stok kalemi güncellendi: %s", item.Name),
			})
		}

		return c.JSON(itemResponse(&item))
	}
}

// DELETE /api/inventory/:id
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var item models.InventoryItem
		if err := database.DB.Where("company_id = ?", companyID).First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi silinemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_item",
				EntityID:    item.ID,
				Action:      models.ActivityActionDelete,
				Description: fmt.Sprintf("Stok kalemi silindi: %s", item.Name),
			})
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

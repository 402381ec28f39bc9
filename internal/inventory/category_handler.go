package inventory

import (
	"strings"

	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"` // "frame" | "lens" | "" (genel)
}

type UpdateCategoryRequest struct {
	Name *string `json:"name"`
	// nil = dokunma, "" = tipi temizle. Pointer alan "alan gelmedi" ile
	// "alan boş gönderildi" ayrımını taşır.
	Type *string `json:"type"`
}

func validCategoryType(t string) bool {
	return t == "" || t == "frame" || t == "lens"
}

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var categories []models.Category
		if err := database.DB.Where("company_id = ?", companyID).Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			res = append(res, CategoryResponse{ID: cat.ID, Name: cat.Name, Type: cat.Type})
		}
		return c.JSON(res)
	}
}

// POST /api/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
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
		if !validCategoryType(body.Type) {
			return fiber.NewError(fiber.StatusBadRequest, "Type 'frame', 'lens' veya boş olmalı")
		}

		var existing models.Category
		if err := database.DB.Where("company_id = ? AND name = ?", companyID, body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu kategori adı zaten kullanılıyor")
		}

		category := models.Category{
			CompanyID: companyID,
			Name:      body.Name,
			Type:      body.Type,
		}

		if err := database.DB.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(CategoryResponse{ID: category.ID, Name: category.Name, Type: category.Type})
	}
}

// PUT /api/categories/:id
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var category models.Category
		if err := database.DB.Where("company_id = ?", companyID).First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var body UpdateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			category.Name = name
		}

		if body.Type != nil {
			if !validCategoryType(*body.Type) {
				return fiber.NewError(fiber.StatusBadRequest, "Type 'frame', 'lens' veya boş olmalı")
			}
			category.Type = *body.Type // "" gönderildiyse tip temizlenir
		}

		if err := database.DB.Save(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}

		return c.JSON(CategoryResponse{ID: category.ID, Name: category.Name, Type: category.Type})
	}
}

// DELETE /api/categories/:id
// Kategoriye bağlı kalemler silinmez, kategorisiz kalır.
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var category models.Category
		if err := database.DB.Where("company_id = ?", companyID).First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		if err := database.DB.Model(&models.InventoryItem{}).
			Where("company_id = ? AND category_id = ?", companyID, category.ID).
			Update("category_id", nil).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori bağlantıları temizlenemedi")
		}

		if err := database.DB.Delete(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

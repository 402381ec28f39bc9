package store

import (
	"strings"

	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"
	"optik-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThemeResponse struct {
	StoreName      string `json:"store_name"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	LogoURL        string `json:"logo_url"`
	WelcomeText    string `json:"welcome_text"`
}

type UpdateThemeRequest struct {
	StoreName      *string `json:"store_name"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	LogoURL        *string `json:"logo_url"`
	WelcomeText    *string `json:"welcome_text"`
}

type StoreProductResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
	InStock   bool    `json:"in_stock"`
}

type CreateStoreOrderRequest struct {
	CustomerName  string                  `json:"customer_name" validate:"required"`
	CustomerPhone string                  `json:"customer_phone" validate:"required"`
	CustomerEmail string                  `json:"customer_email" validate:"omitempty,email"`
	Note          string                  `json:"note"`
	Items         []StoreOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type StoreOrderItemRequest struct {
	InventoryItemID uint `json:"inventory_item_id" validate:"required"`
	Quantity        int  `json:"quantity" validate:"required,gt=0"`
}

type StoreOrderItemResponse struct {
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type StoreOrderResponse struct {
	ID            uint                     `json:"id"`
	OrderNo       string                   `json:"order_no"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPhone string                   `json:"customer_phone"`
	CustomerEmail string                   `json:"customer_email"`
	Note          string                   `json:"note"`
	Total         float64                  `json:"total"`
	Status        string                   `json:"status"`
	CreatedAt     string                   `json:"created_at"`
	Items         []StoreOrderItemResponse `json:"items"`
}

type UpdateStoreOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new confirmed completed cancelled"`
}

func newStoreOrderNo() string {
	return "WEB-" + strings.ToUpper(uuid.NewString()[:8])
}

func companyBySlug(slug string) (*models.Company, error) {
	var company models.Company
	if err := database.DB.Where("slug = ?", slug).First(&company).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Mağaza bulunamadı")
	}
	return &company, nil
}

func storeOrderResponse(o models.StoreOrder) StoreOrderResponse {
	items := make([]StoreOrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, StoreOrderItemResponse{
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return StoreOrderResponse{
		ID:            o.ID,
		OrderNo:       o.OrderNo,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail,
		Note:          o.Note,
		Total:         o.Total,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt.Format("2006-01-02 15:04"),
		Items:         items,
	}
}

// GET /store/:slug/theme  (public)
func GetPublicThemeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		company, err := companyBySlug(c.Params("slug"))
		if err != nil {
			return err
		}

		var theme models.ThemeSettings
		if err := database.DB.Where("company_id = ?", company.ID).First(&theme).Error; err != nil {
			// tema kaydı yoksa şirket adıyla varsayılan dön
			return c.JSON(ThemeResponse{StoreName: company.Name})
		}

		return c.JSON(ThemeResponse{
			StoreName:      theme.StoreName,
			PrimaryColor:   theme.PrimaryColor,
			SecondaryColor: theme.SecondaryColor,
			LogoURL:        theme.LogoURL,
			WelcomeText:    theme.WelcomeText,
		})
	}
}

// GET /store/:slug/products  (public, sadece stokta olanlar)
func ListPublicProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		company, err := companyBySlug(c.Params("slug"))
		if err != nil {
			return err
		}

		var items []models.InventoryItem
		if err := database.DB.
			Preload("Category").
			Where("company_id = ? AND total_stock > 0", company.ID).
			Order("name asc").
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		resp := make([]StoreProductResponse, 0, len(items))
		for _, item := range items {
			categoryName := ""
			if item.Category != nil {
				categoryName = item.Category.Name
			}
			resp = append(resp, StoreProductResponse{
				ID:        item.ID,
				Name:      item.Name,
				Category:  categoryName,
				UnitPrice: item.UnitPrice,
				InStock:   true,
			})
		}
		return c.JSON(resp)
	}
}

// POST /store/:slug/orders  (public)
// Vitrin siparişi stok düşmez; fiyat ve isim sipariş anında denormalize edilir.
func CreatePublicOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		company, err := companyBySlug(c.Params("slug"))
		if err != nil {
			return err
		}

		var body CreateStoreOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		order := models.StoreOrder{
			CompanyID:     company.ID,
			OrderNo:       newStoreOrderNo(),
			CustomerName:  strings.TrimSpace(body.CustomerName),
			CustomerPhone: strings.TrimSpace(body.CustomerPhone),
			CustomerEmail: body.CustomerEmail,
			Note:          body.Note,
			Status:        models.StoreOrderStatusNew,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			total := 0.0
			for _, reqItem := range body.Items {
				var item models.InventoryItem
				if err := tx.Where("company_id = ? AND total_stock > 0", company.ID).
					First(&item, "id = ?", reqItem.InventoryItemID).Error; err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Sipariş edilen ürün mağazada bulunamadı")
				}
				order.Items = append(order.Items, models.StoreOrderItem{
					InventoryItemID: item.ID,
					ItemName:        item.Name,
					Quantity:        reqItem.Quantity,
					UnitPrice:       item.UnitPrice,
				})
				total += item.UnitPrice * float64(reqItem.Quantity)
			}
			order.Total = total
			return tx.Create(&order).Error
		})
		if err != nil {
			if ferr, ok := err.(*fiber.Error); ok {
				return ferr
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(storeOrderResponse(order))
	}
}

// GET /api/store-orders?status=  (panel)
func ListStoreOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.
			Preload("Items").
			Where("company_id = ?", companyID)
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var orders []models.StoreOrder
		if err := dbq.Order("created_at DESC").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		resp := make([]StoreOrderResponse, 0, len(orders))
		for _, o := range orders {
			resp = append(resp, storeOrderResponse(o))
		}
		return c.JSON(resp)
	}
}

// PUT /api/store-orders/:id/status  (panel)
func UpdateStoreOrderStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateStoreOrderStatusRequest
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

		id := c.Params("id")
		var order models.StoreOrder
		if err := database.DB.Preload("Items").Where("company_id = ?", companyID).First(&order, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		order.Status = models.StoreOrderStatus(body.Status)
		if err := database.DB.Save(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}
		return c.JSON(storeOrderResponse(order))
	}
}

// GET /api/theme  (panel)
func GetThemeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var theme models.ThemeSettings
		if err := database.DB.Where("company_id = ?", companyID).First(&theme).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tema ayarı bulunamadı")
		}

		return c.JSON(ThemeResponse{
			StoreName:      theme.StoreName,
			PrimaryColor:   theme.PrimaryColor,
			SecondaryColor: theme.SecondaryColor,
			LogoURL:        theme.LogoURL,
			WelcomeText:    theme.WelcomeText,
		})
	}
}

// PUT /api/theme  (panel)
func UpdateThemeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateThemeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var theme models.ThemeSettings
		if err := database.DB.Where("company_id = ?", companyID).First(&theme).Error; err != nil {
			theme = models.ThemeSettings{CompanyID: companyID}
		}

		if body.StoreName != nil {
			theme.StoreName = *body.StoreName
		}
		if body.PrimaryColor != nil {
			theme.PrimaryColor = *body.PrimaryColor
		}
		if body.SecondaryColor != nil {
			theme.SecondaryColor = *body.SecondaryColor
		}
		if body.LogoURL != nil {
			theme.LogoURL = *body.LogoURL
		}
		if body.WelcomeText != nil {
			theme.WelcomeText = *body.WelcomeText
		}

		if err := database.DB.Save(&theme).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tema kaydedilemedi")
		}

		return c.JSON(ThemeResponse{
			StoreName:      theme.StoreName,
			PrimaryColor:   theme.PrimaryColor,
			SecondaryColor: theme.SecondaryColor,
			LogoURL:        theme.LogoURL,
			WelcomeText:    theme.WelcomeText,
		})
	}
}

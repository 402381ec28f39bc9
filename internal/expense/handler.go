package expense

import (
	"fmt"
	"strings"
	"time"

	"optik-backend/internal/activity"
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BillCategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CreateBillCategoryRequest struct {
	Name string `json:"name"`
}

type CreateBillRequest struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"` // "2025-12-09"
	CategoryID  uint    `json:"category_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type BillResponse struct {
	ID          uint    `json:"id"`
	CategoryID  uint    `json:"category_id"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type MonthlyBillSummaryItem struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
}

type MonthlyBillSummaryResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Items      []MonthlyBillSummaryItem `json:"items"`
	GrandTotal float64                  `json:"grand_total"`
}

// Yardımcı: Kullanıcı bilgilerini al
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

// GET /api/bill-categories
func ListBillCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var categories []models.BillCategory
		if err := database.DB.Where("company_id = ?", companyID).Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Gider kategorileri listelenemedi")
		}

		res := make([]BillCategoryResponse, 0, len(categories))
		for _, cat := range categories {
			res = append(res, BillCategoryResponse{ID: cat.ID, Name: cat.Name})
		}
		return c.JSON(res)
	}
}

// POST /api/bill-categories
func CreateBillCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBillCategoryRequest
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

		var existing models.BillCategory
		if err := database.DB.Where("company_id = ? AND name = ?", companyID, body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu kategori adı zaten kullanılıyor")
		}

		category := models.BillCategory{CompanyID: companyID, Name: body.Name}
		if err := database.DB.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(BillCategoryResponse{ID: category.ID, Name: category.Name})
	}
}

// DELETE /api/bill-categories/:id
func DeleteBillCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var category models.BillCategory
		if err := database.DB.Where("company_id = ?", companyID).First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var billCount int64
		database.DB.Model(&models.Bill{}).Where("category_id = ?", category.ID).Count(&billCount)
		if billCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Faturası olan kategori silinemez")
		}

		if err := database.DB.Delete(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// POST /api/bills
func CreateBillHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBillRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Tutar 0'dan büyük olmalı")
		}
		body.Title = strings.TrimSpace(body.Title)
		if body.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Title zorunlu")
		}

		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var category models.BillCategory
		if err := database.DB.Where("company_id = ? AND id = ?", companyID, body.CategoryID).First(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
		}

		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		bill := models.Bill{
			CompanyID:   companyID,
			CategoryID:  category.ID,
			Title:       body.Title,
			Date:        date,
			Amount:      body.Amount,
			Description: body.Description,
		}

		if err := database.DB.Create(&bill).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura oluşturulamadı")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "bill",
				EntityID:    bill.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Fatura: %s - %.2f (%s)", bill.Title, bill.Amount, category.Name),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(BillResponse{
			ID:          bill.ID,
			CategoryID:  bill.CategoryID,
			Category:    category.Name,
			Title:       bill.Title,
			Date:        bill.Date.Format("2006-01-02"),
			Amount:      bill.Amount,
			Description: bill.Description,
		})
	}
}

// GET /api/bills?from=&to=&category_id=
func ListBillsHandler() fiber.Handler {
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

		var bills []models.Bill
		if err := dbq.Order("date DESC, created_at DESC").Find(&bills).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar listelenemedi")
		}

		resp := make([]BillResponse, 0, len(bills))
		for _, b := range bills {
			resp = append(resp, BillResponse{
				ID:          b.ID,
				CategoryID:  b.CategoryID,
				Category:    b.Category.Name,
				Title:       b.Title,
				Date:        b.Date.Format("2006-01-02"),
				Amount:      b.Amount,
				Description: b.Description,
			})
		}
		return c.JSON(resp)
	}
}

// DELETE /api/bills/:id
func DeleteBillHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var bill models.Bill
		if err := database.DB.Where("company_id = ?", companyID).First(&bill, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		if err := database.DB.Delete(&bill).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura silinemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "bill",
				EntityID:    bill.ID,
				Action:      models.ActivityActionDelete,
				Description: fmt.Sprintf("Fatura silindi: %s", bill.Title),
			})
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/bills/summary/monthly?year=&month=
// Kategori bazında aylık gider toplamı
func MonthlyBillSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		year := c.QueryInt("year", 0)
		month := c.QueryInt("month", 0)
		if year < 2000 || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu (month 1-12)")
		}

		loc := time.Now().Location()
		firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		lastDay := firstDay.AddDate(0, 1, -1)

		var bills []models.Bill
		if err := database.DB.
			Preload("Category").
			Where("company_id = ? AND date >= ? AND date <= ?", companyID, firstDay, lastDay).
			Find(&bills).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar okunamadı")
		}

		totals := make(map[uint]*MonthlyBillSummaryItem)
		grandTotal := 0.0
		for _, b := range bills {
			item, ok := totals[b.CategoryID]
			if !ok {
				item = &MonthlyBillSummaryItem{CategoryID: b.CategoryID, CategoryName: b.Category.Name}
				totals[b.CategoryID] = item
			}
			item.Total += b.Amount
			grandTotal += b.Amount
		}

		items := make([]MonthlyBillSummaryItem, 0, len(totals))
		for _, item := range totals {
			items = append(items, *item)
		}

		return c.JSON(MonthlyBillSummaryResponse{
			Year:       year,
			Month:      month,
			Items:      items,
			GrandTotal: grandTotal,
		})
	}
}

package store

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app       *fiber.App
	companyID uint
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate hatası: %v", err)
	}
	database.DB = db

	company := models.Company{Name: "Optik Merkez", Slug: "optik-merkez"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("şirket oluşturulamadı: %v", err)
	}
	theme := models.ThemeSettings{CompanyID: company.ID, StoreName: "Optik Merkez Vitrin", PrimaryColor: "#1a73e8"}
	if err := db.Create(&theme).Error; err != nil {
		t.Fatalf("tema oluşturulamadı: %v", err)
	}
	user := models.User{
		CompanyID:    &company.ID,
		Name:         "Test Admin",
		Email:        "admin@optik-merkez.test",
		PasswordHash: "x",
		Role:         models.RoleCompanyAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Beklenmeyen sunucu hatası"})
		},
	})

	// Public vitrin route'ları middleware'siz
	app.Get("/store/:slug/theme", GetPublicThemeHandler())
	app.Get("/store/:slug/products", ListPublicProductsHandler())
	app.Post("/store/:slug/orders", CreatePublicOrderHandler())

	// Panel route'ları test middleware'iyle
	companyID := company.ID
	panel := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, user.ID)
		c.Locals(auth.CtxUserRoleKey, models.RoleCompanyAdmin)
		c.Locals(auth.CtxCompanyIDKey, &companyID)
		return c.Next()
	})
	panel.Get("/store-orders", ListStoreOrdersHandler())
	panel.Put("/store-orders/:id/status", UpdateStoreOrderStatusHandler())
	panel.Get("/theme", GetThemeHandler())
	panel.Put("/theme", UpdateThemeHandler())

	return &testEnv{app: app, companyID: company.ID}
}

func (e *testEnv) seedItem(t *testing.T, name string, price float64, stock int) models.InventoryItem {
	t.Helper()

	item := models.InventoryItem{CompanyID: e.companyID, Name: name, UnitPrice: price, TotalStock: stock}
	if err := database.DB.Create(&item).Error; err != nil {
		t.Fatalf("stok kalemi oluşturulamadı: %v", err)
	}
	return item
}

func (e *testEnv) request(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("istek gövdesi encode edilemedi: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, raw
}

func TestPublicThemeBySlug(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "GET", "/store/optik-merkez/theme", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var theme ThemeResponse
	if err := json.Unmarshal(raw, &theme); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if theme.StoreName != "Optik Merkez Vitrin" || theme.PrimaryColor != "#1a73e8" {
		t.Errorf("tema beklenen gibi değil: %+v", theme)
	}

	resp, _ = env.request(t, "GET", "/store/olmayan-magaza/theme", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("bilinmeyen slug 404 dönmeli, %d", resp.StatusCode)
	}
}

func TestPublicProductsOnlyInStock(t *testing.T) {
	env := setupTest(t)
	env.seedItem(t, "RayBan Aviator", 1500, 3)
	env.seedItem(t, "Tükenen Model", 900, 0)

	resp, raw := env.request(t, "GET", "/store/optik-merkez/products", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var list []StoreProductResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if len(list) != 1 || list[0].Name != "RayBan Aviator" {
		t.Errorf("sadece stoktaki ürün listelenmeli: %+v", list)
	}
}

func TestPublicOrderDoesNotDeductStock(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 1500, 3)

	resp, raw := env.request(t, "POST", "/store/optik-merkez/orders", fiber.Map{
		"customer_name":  "Ziyaretçi",
		"customer_phone": "5550002",
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "quantity": 2},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}

	var order StoreOrderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if !strings.HasPrefix(order.OrderNo, "WEB-") {
		t.Errorf("order_no WEB- öneki taşımalı: %q", order.OrderNo)
	}
	if order.Total != 3000 {
		t.Errorf("toplam 3000 beklenirken %v", order.Total)
	}

	// Vitrin siparişi stok düşmez; stok satış yaratılınca düşer
	var stored models.InventoryItem
	database.DB.First(&stored, item.ID)
	if stored.TotalStock != 3 {
		t.Errorf("stok 3'te kalmalıydı, %d", stored.TotalStock)
	}
}

func TestStoreOrderStatusFlow(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 1500, 3)

	resp, raw := env.request(t, "POST", "/store/optik-merkez/orders", fiber.Map{
		"customer_name":  "Ziyaretçi",
		"customer_phone": "5550002",
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "quantity": 1},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var order StoreOrderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	resp, raw = env.request(t, "GET", "/api/store-orders?status=new", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var list []StoreOrderResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("1 yeni sipariş beklenirken %d", len(list))
	}

	resp, raw = env.request(t, "PUT", "/api/store-orders/"+itoa(order.ID)+"/status", fiber.Map{
		"status": "confirmed",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var updated StoreOrderResponse
	if err := json.Unmarshal(raw, &updated); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if updated.Status != "confirmed" {
		t.Errorf("status confirmed beklenirken %q", updated.Status)
	}

	resp, _ = env.request(t, "PUT", "/api/store-orders/"+itoa(order.ID)+"/status", fiber.Map{
		"status": "bozuk",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("geçersiz status 400 dönmeli, %d", resp.StatusCode)
	}
}

func TestUpdateTheme(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "PUT", "/api/theme", fiber.Map{
		"welcome_text": "Hoş geldiniz",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var theme ThemeResponse
	if err := json.Unmarshal(raw, &theme); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if theme.WelcomeText != "Hoş geldiniz" {
		t.Errorf("welcome_text güncellenmeliydi: %q", theme.WelcomeText)
	}
	// Patch'te gelmeyen alan korunur
	if theme.StoreName != "Optik Merkez Vitrin" {
		t.Errorf("store_name değişmemeliydi: %q", theme.StoreName)
	}
}

func itoa(v uint) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

package sales

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
	app        *fiber.App
	companyID  uint
	customerID uint
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
	customer := models.Customer{CompanyID: company.ID, Name: "Ayşe Yılmaz", Phone: "5550001"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Beklenmeyen sunucu hatası"})
		},
	})
	// JWT middleware yerine locals'ı doğrudan dolduran test middleware'i
	companyID := company.ID
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, user.ID)
		c.Locals(auth.CtxUserRoleKey, models.RoleCompanyAdmin)
		c.Locals(auth.CtxCompanyIDKey, &companyID)
		return c.Next()
	})

	app.Get("/api/sales", ListSalesHandler())
	app.Post("/api/sales", CreateSaleHandler())
	app.Get("/api/sales/:id", GetSaleHandler())
	app.Put("/api/sales/:id", UpdateSaleHandler())
	app.Delete("/api/sales/:id", DeleteSaleHandler())

	return &testEnv{app: app, companyID: company.ID, customerID: customer.ID}
}

func (e *testEnv) seedItem(t *testing.T, name string, price float64, stock int) models.InventoryItem {
	t.Helper()

	item := models.InventoryItem{CompanyID: e.companyID, Name: name, UnitPrice: price, TotalStock: stock}
	if err := database.DB.Create(&item).Error; err != nil {
		t.Fatalf("stok kalemi oluşturulamadı: %v", err)
	}
	return item
}

func (e *testEnv) stockOf(t *testing.T, id uint) int {
	t.Helper()

	var item models.InventoryItem
	if err := database.DB.First(&item, id).Error; err != nil {
		t.Fatalf("stok kalemi okunamadı: %v", err)
	}
	return item.TotalStock
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

func TestCreateSaleDeductsFrameAndLens(t *testing.T) {
	env := setupTest(t)
	frame := env.seedItem(t, "RayBan Aviator", 1500, 3)
	lens := env.seedItem(t, "Essilor 1.5", 400, 5)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "RayBan Aviator",
		"lens":        "Essilor 1.5",
		"total":       2000,
		"received":    500,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}

	var sale SaleResponse
	if err := json.Unmarshal(raw, &sale); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if !strings.HasPrefix(sale.OrderNo, "SO-") {
		t.Errorf("order_no SO- öneki taşımalı: %q", sale.OrderNo)
	}
	if sale.Remaining != 1500 {
		t.Errorf("remaining 1500 beklenirken %v", sale.Remaining)
	}

	if got := env.stockOf(t, frame.ID); got != 2 {
		t.Errorf("çerçeve stoğu 2 beklenirken %d", got)
	}
	if got := env.stockOf(t, lens.ID); got != 4 {
		t.Errorf("cam stoğu 4 beklenirken %d", got)
	}
}

func TestCreateSaleDepletesStockThenRejects(t *testing.T) {
	env := setupTest(t)
	frame := env.seedItem(t, "RayBan Aviator", 1500, 1)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "RayBan Aviator",
		"total":       1500,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("ilk satış 201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	if got := env.stockOf(t, frame.ID); got != 0 {
		t.Fatalf("stok 0 beklenirken %d", got)
	}

	resp, raw = env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "RayBan Aviator",
		"total":       1500,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("stok tükendiğinde 400 beklenirken %d: %s", resp.StatusCode, raw)
	}
	msg := string(raw)
	if !strings.Contains(msg, "Failed to deduct inventory") || !strings.Contains(msg, "insufficient stock") {
		t.Errorf("hata mesajı sözleşmeye uymuyor: %s", msg)
	}
	if got := env.stockOf(t, frame.ID); got != 0 {
		t.Errorf("stok 0'da kalmalıydı, %d", got)
	}

	var count int64
	database.DB.Model(&models.Sale{}).Count(&count)
	if count != 1 {
		t.Errorf("ikinci satış kaydedilmemeliydi, %d satır var", count)
	}
}

func TestCreateSaleUnknownFrame(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "Olmayan Çerçeve",
		"total":       100,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 beklenirken %d: %s", resp.StatusCode, raw)
	}
	if !strings.Contains(string(raw), "inventory item not found") {
		t.Errorf("hata mesajı sözleşmeye uymuyor: %s", raw)
	}
}

func TestCreateSaleAtomicRollback(t *testing.T) {
	env := setupTest(t)
	frame := env.seedItem(t, "RayBan Aviator", 1500, 3)
	lens := env.seedItem(t, "Essilor 1.5", 400, 0) // cam tükenmiş

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "RayBan Aviator",
		"lens":        "Essilor 1.5",
		"total":       2000,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 beklenirken %d: %s", resp.StatusCode, raw)
	}

	// Çerçeve düşümü de geri alınmış olmalı
	if got := env.stockOf(t, frame.ID); got != 3 {
		t.Errorf("çerçeve stoğu 3'te kalmalıydı, %d", got)
	}
	if got := env.stockOf(t, lens.ID); got != 0 {
		t.Errorf("cam stoğu 0'da kalmalıydı, %d", got)
	}

	var count int64
	database.DB.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Errorf("satış kaydedilmemeliydi, %d satır var", count)
	}
}

func TestCreateSaleReceivedExceedsTotal(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"total":       100,
		"received":    150,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 beklenirken %d: %s", resp.StatusCode, raw)
	}
}

func TestUpdateSaleSwapsFrame(t *testing.T) {
	env := setupTest(t)
	frameA := env.seedItem(t, "Çerçeve A", 800, 2)
	frameC := env.seedItem(t, "Çerçeve C", 900, 2)
	lensB := env.seedItem(t, "Cam B", 300, 2)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "Çerçeve A",
		"lens":        "Cam B",
		"total":       1100,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var sale SaleResponse
	if err := json.Unmarshal(raw, &sale); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	resp, raw = env.request(t, "PUT", "/api/sales/"+itoa(sale.ID), fiber.Map{
		"frame": "Çerçeve C",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}

	if got := env.stockOf(t, frameA.ID); got != 2 {
		t.Errorf("eski çerçeve iade edilmeliydi (2), %d", got)
	}
	if got := env.stockOf(t, frameC.ID); got != 1 {
		t.Errorf("yeni çerçeve düşülmeliydi (1), %d", got)
	}
	// Patch'te gelmeyen cam dokunulmadan kalır
	if got := env.stockOf(t, lensB.ID); got != 1 {
		t.Errorf("cam stoğu değişmemeliydi (1), %d", got)
	}
}

func TestUpdateSaleRollbackOnInsufficientNewFrame(t *testing.T) {
	env := setupTest(t)
	frameA := env.seedItem(t, "Çerçeve A", 800, 1)
	frameC := env.seedItem(t, "Çerçeve C", 900, 0)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "Çerçeve A",
		"total":       800,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var sale SaleResponse
	if err := json.Unmarshal(raw, &sale); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	resp, raw = env.request(t, "PUT", "/api/sales/"+itoa(sale.ID), fiber.Map{
		"frame": "Çerçeve C",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 beklenirken %d: %s", resp.StatusCode, raw)
	}

	// Transaction geri alındı: A iadesi de kalıcı olmadı, satış eski halinde
	if got := env.stockOf(t, frameA.ID); got != 0 {
		t.Errorf("çerçeve A stoğu 0'da kalmalıydı, %d", got)
	}
	if got := env.stockOf(t, frameC.ID); got != 0 {
		t.Errorf("çerçeve C stoğu 0'da kalmalıydı, %d", got)
	}

	var stored models.Sale
	if err := database.DB.First(&stored, sale.ID).Error; err != nil {
		t.Fatalf("satış okunamadı: %v", err)
	}
	if stored.Frame != "Çerçeve A" {
		t.Errorf("satış çerçevesi değişmemeliydi: %q", stored.Frame)
	}
}

func TestUpdateSaleRecomputesRemaining(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"total":       1000,
		"received":    200,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var sale SaleResponse
	if err := json.Unmarshal(raw, &sale); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	// Sadece received patch'lenir; remaining saklanan total'dan hesaplanır
	resp, raw = env.request(t, "PUT", "/api/sales/"+itoa(sale.ID), fiber.Map{
		"received": 700,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var updated SaleResponse
	if err := json.Unmarshal(raw, &updated); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if updated.Remaining != 300 {
		t.Errorf("remaining 300 beklenirken %v", updated.Remaining)
	}

	// received > total reddedilir
	resp, raw = env.request(t, "PUT", "/api/sales/"+itoa(sale.ID), fiber.Map{
		"received": 1200,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 beklenirken %d: %s", resp.StatusCode, raw)
	}
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	env := setupTest(t)
	frame := env.seedItem(t, "RayBan Aviator", 1500, 3)
	lens := env.seedItem(t, "Essilor 1.5", 400, 3)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "RayBan Aviator",
		"lens":        "Essilor 1.5",
		"total":       2000,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var sale SaleResponse
	if err := json.Unmarshal(raw, &sale); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	resp, raw = env.request(t, "DELETE", "/api/sales/"+itoa(sale.ID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}

	// Oluştur + sil stok açısından net sıfır
	if got := env.stockOf(t, frame.ID); got != 3 {
		t.Errorf("çerçeve stoğu 3'e dönmeliydi, %d", got)
	}
	if got := env.stockOf(t, lens.ID); got != 3 {
		t.Errorf("cam stoğu 3'e dönmeliydi, %d", got)
	}
}

func TestDeleteSaleWithDeletedItemStillSucceeds(t *testing.T) {
	env := setupTest(t)
	frame := env.seedItem(t, "RayBan Aviator", 1500, 1)

	resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
		"customer_id": env.customerID,
		"frame":       "RayBan Aviator",
		"total":       1500,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var sale SaleResponse
	if err := json.Unmarshal(raw, &sale); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	// Ürün katalogdan kaldırılsa bile satış silme iadeyi sessizce atlar
	if err := database.DB.Delete(&models.InventoryItem{}, frame.ID).Error; err != nil {
		t.Fatalf("stok kalemi silinemedi: %v", err)
	}

	resp, raw = env.request(t, "DELETE", "/api/sales/"+itoa(sale.ID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
}

func TestListSalesFiltersByStatus(t *testing.T) {
	env := setupTest(t)

	for _, status := range []string{"pending", "delivered"} {
		resp, raw := env.request(t, "POST", "/api/sales", fiber.Map{
			"customer_id": env.customerID,
			"total":       100,
			"status":      status,
		})
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
		}
	}

	resp, raw := env.request(t, "GET", "/api/sales?status=delivered", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var list []SaleResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if len(list) != 1 || list[0].Status != "delivered" {
		t.Errorf("sadece delivered satış dönmeliydi: %+v", list)
	}

	resp, _ = env.request(t, "GET", "/api/sales?status=bozuk", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("geçersiz status filtresi 400 dönmeli, %d", resp.StatusCode)
	}
}

func itoa(v uint) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

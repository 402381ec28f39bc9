package audits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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
	companyID := company.ID
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, user.ID)
		c.Locals(auth.CtxUserRoleKey, models.RoleCompanyAdmin)
		c.Locals(auth.CtxCompanyIDKey, &companyID)
		return c.Next()
	})

	app.Post("/api/audits", CreateAuditHandler())
	app.Get("/api/audits", ListAuditsHandler())
	app.Get("/api/audits/:id", GetAuditHandler())
	app.Delete("/api/audits/:id", DeleteAuditHandler())

	return &testEnv{app: app, companyID: company.ID}
}

func (e *testEnv) seedItem(t *testing.T, name string, stock int) models.InventoryItem {
	t.Helper()

	item := models.InventoryItem{CompanyID: e.companyID, Name: name, UnitPrice: 100, TotalStock: stock}
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

func TestCreateAuditFillsExpectedFromStock(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 7)

	resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
		"start_date": "2026-08-01",
		"end_date":   "2026-08-28",
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "actual_quantity": 5},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}

	var audit AuditResponse
	if err := json.Unmarshal(raw, &audit); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if len(audit.Items) != 1 {
		t.Fatalf("1 kalem beklenirken %d", len(audit.Items))
	}
	if audit.Items[0].ExpectedQuantity != 7 {
		t.Errorf("expected stoktan dolmalıydı (7), %d", audit.Items[0].ExpectedQuantity)
	}
	if audit.Items[0].Variance != -2 {
		t.Errorf("variance -2 beklenirken %d", audit.Items[0].Variance)
	}
}

func TestCreateAuditExplicitExpectedWins(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 7)

	expected := 10
	resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
		"start_date": "2026-08-01",
		"end_date":   "2026-08-28",
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "expected_quantity": expected, "actual_quantity": 10},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}

	var audit AuditResponse
	if err := json.Unmarshal(raw, &audit); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if audit.Items[0].ExpectedQuantity != expected {
		t.Errorf("expected %d beklenirken %d", expected, audit.Items[0].ExpectedQuantity)
	}
}

func TestAuditSnapshotIsImmutable(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 7)

	resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
		"start_date": "2026-08-01",
		"end_date":   "2026-08-28",
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "actual_quantity": 7},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var created AuditResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	// Audit sonrası stok değişir; snapshot sabit kalmalı
	if err := database.DB.Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		UpdateColumn("total_stock", 2).Error; err != nil {
		t.Fatalf("stok güncellenemedi: %v", err)
	}

	resp, raw = env.request(t, "GET", fmt.Sprintf("/api/audits/%d", created.ID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var fetched AuditResponse
	if err := json.Unmarshal(raw, &fetched); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if fetched.Items[0].ExpectedQuantity != 7 {
		t.Errorf("snapshot yeniden hesaplanmamalı: expected 7, %d", fetched.Items[0].ExpectedQuantity)
	}
}

func TestCreateAuditRejectsReversedDates(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 1)

	resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
		"start_date": "2026-08-28",
		"end_date":   "2026-08-01",
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "actual_quantity": 1},
		},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 beklenirken %d: %s", resp.StatusCode, raw)
	}
}

func TestCreateAuditRejectsForeignItem(t *testing.T) {
	env := setupTest(t)

	other := models.Company{Name: "Rakip Optik", Slug: "rakip-optik"}
	if err := database.DB.Create(&other).Error; err != nil {
		t.Fatalf("şirket oluşturulamadı: %v", err)
	}
	foreign := models.InventoryItem{CompanyID: other.ID, Name: "Gizli Ürün", UnitPrice: 1, TotalStock: 1}
	if err := database.DB.Create(&foreign).Error; err != nil {
		t.Fatalf("stok kalemi oluşturulamadı: %v", err)
	}

	resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
		"start_date": "2026-08-01",
		"end_date":   "2026-08-28",
		"items": []fiber.Map{
			{"inventory_item_id": foreign.ID, "actual_quantity": 1},
		},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("başka şirketin kalemiyle sayım 400 dönmeli, %d: %s", resp.StatusCode, raw)
	}
}

func TestAuditIncludeExpensesFoldsBillsAndSalaries(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 5)

	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local)
	customer := models.Customer{CompanyID: env.companyID, Name: "Ayşe Yılmaz"}
	if err := database.DB.Create(&customer).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}
	sale := models.Sale{
		CompanyID:  env.companyID,
		CustomerID: customer.ID,
		OrderNo:    "SO-TEST0001",
		Total:      3000,
		Received:   3000,
		Status:     models.SaleStatusDelivered,
		EntryDate:  day,
	}
	if err := database.DB.Create(&sale).Error; err != nil {
		t.Fatalf("satış oluşturulamadı: %v", err)
	}

	billCat := models.BillCategory{CompanyID: env.companyID, Name: "Kira"}
	if err := database.DB.Create(&billCat).Error; err != nil {
		t.Fatalf("kategori oluşturulamadı: %v", err)
	}
	bill := models.Bill{CompanyID: env.companyID, CategoryID: billCat.ID, Title: "Ağustos kira", Date: day, Amount: 1200}
	if err := database.DB.Create(&bill).Error; err != nil {
		t.Fatalf("fatura oluşturulamadı: %v", err)
	}

	employee := models.Employee{CompanyID: env.companyID, Name: "Mehmet", MonthlySalary: 500, Active: true}
	if err := database.DB.Create(&employee).Error; err != nil {
		t.Fatalf("personel oluşturulamadı: %v", err)
	}
	salary := models.SalaryPayment{CompanyID: env.companyID, EmployeeID: employee.ID, Date: day, Amount: 500}
	if err := database.DB.Create(&salary).Error; err != nil {
		t.Fatalf("maaş ödemesi oluşturulamadı: %v", err)
	}

	resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
		"start_date":       "2026-08-01",
		"end_date":         "2026-08-28",
		"include_expenses": true,
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "actual_quantity": 5},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}

	var audit AuditResponse
	if err := json.Unmarshal(raw, &audit); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if audit.Summary == nil {
		t.Fatal("include_expenses ile summary dönmeliydi")
	}
	if audit.Summary.SalesTotal != 3000 {
		t.Errorf("ciro 3000 beklenirken %v", audit.Summary.SalesTotal)
	}
	if audit.Summary.ExpensesTotal != 1700 {
		t.Errorf("gider 1700 beklenirken %v", audit.Summary.ExpensesTotal)
	}
	if audit.Summary.NetResult != 1300 {
		t.Errorf("net 1300 beklenirken %v", audit.Summary.NetResult)
	}
}

func TestListAuditsWindowFilter(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 5)

	windows := [][2]string{
		{"2026-01-01", "2026-01-31"},
		{"2026-08-01", "2026-08-28"},
	}
	for _, w := range windows {
		resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
			"start_date": w[0],
			"end_date":   w[1],
			"items": []fiber.Map{
				{"inventory_item_id": item.ID, "actual_quantity": 5},
			},
		})
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
		}
	}

	resp, raw := env.request(t, "GET", "/api/audits?start_date=2026-08-10&end_date=2026-08-20", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var list []AuditResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if len(list) != 1 || list[0].StartDate != "2026-08-01" {
		t.Errorf("sadece kesişen audit dönmeliydi: %+v", list)
	}

	// Filtresiz: en yeni önce
	resp, raw = env.request(t, "GET", "/api/audits", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("2 audit beklenirken %d", len(list))
	}

	resp, _ = env.request(t, "GET", "/api/audits?period=bozuk", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("geçersiz period 400 dönmeli, %d", resp.StatusCode)
	}
}

func TestDeleteAuditDoesNotTouchStock(t *testing.T) {
	env := setupTest(t)
	item := env.seedItem(t, "RayBan Aviator", 7)

	resp, raw := env.request(t, "POST", "/api/audits", fiber.Map{
		"start_date": "2026-08-01",
		"end_date":   "2026-08-28",
		"items": []fiber.Map{
			{"inventory_item_id": item.ID, "actual_quantity": 3},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var audit AuditResponse
	if err := json.Unmarshal(raw, &audit); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	resp, raw = env.request(t, "DELETE", fmt.Sprintf("/api/audits/%d", audit.ID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}

	var stored models.InventoryItem
	if err := database.DB.First(&stored, item.ID).Error; err != nil {
		t.Fatalf("stok kalemi okunamadı: %v", err)
	}
	if stored.TotalStock != 7 {
		t.Errorf("audit silmek stoka dokunmamalı (7), %d", stored.TotalStock)
	}

	var itemCount int64
	database.DB.Model(&models.AuditItem{}).Where("audit_id = ?", audit.ID).Count(&itemCount)
	if itemCount != 0 {
		t.Errorf("audit kalemleri de silinmeliydi, %d kaldı", itemCount)
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.Local)

	start, end, ok, err := periodRange("week", now)
	if err != nil || !ok {
		t.Fatalf("week çözülmeli: ok=%v err=%v", ok, err)
	}
	if end.Day() != 29 || start.Day() != 22 {
		t.Errorf("hafta penceresi yanlış: %v - %v", start, end)
	}

	if _, _, ok, err := periodRange("all", now); err != nil || ok {
		t.Errorf("all filtresiz olmalı: ok=%v err=%v", ok, err)
	}
	if _, _, ok, err := periodRange("", now); err != nil || ok {
		t.Errorf("boş period filtresiz olmalı: ok=%v err=%v", ok, err)
	}
	if _, _, _, err := periodRange("quarter", now); err == nil {
		t.Error("bilinmeyen period hata dönmeli")
	}
}

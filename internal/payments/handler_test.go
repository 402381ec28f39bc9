package payments

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
	saleID    uint
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
	customer := models.Customer{CompanyID: company.ID, Name: "Ayşe Yılmaz"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}
	sale := models.Sale{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		OrderNo:    "SO-TEST0001",
		Total:      1000,
		Received:   200,
		Remaining:  800,
		Status:     models.SaleStatusPending,
		EntryDate:  time.Now(),
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("satış oluşturulamadı: %v", err)
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

	app.Post("/api/payments", CreatePaymentHandler())
	app.Get("/api/payments", ListPaymentsHandler())
	app.Delete("/api/payments/:id", DeletePaymentHandler())

	return &testEnv{app: app, companyID: company.ID, saleID: sale.ID}
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

func (e *testEnv) sale(t *testing.T) models.Sale {
	t.Helper()

	var sale models.Sale
	if err := database.DB.First(&sale, e.saleID).Error; err != nil {
		t.Fatalf("satış okunamadı: %v", err)
	}
	return sale
}

func TestCreatePaymentUpdatesSaleBalance(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "POST", "/api/payments", fiber.Map{
		"sale_id": env.saleID,
		"method":  "cash",
		"amount":  300,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}

	var payment PaymentResponse
	if err := json.Unmarshal(raw, &payment); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}
	if payment.SaleRemaining != 500 {
		t.Errorf("kalan 500 beklenirken %v", payment.SaleRemaining)
	}

	sale := env.sale(t)
	if sale.Received != 500 || sale.Remaining != 500 {
		t.Errorf("satış bakiyesi güncellenmeli: received=%v remaining=%v", sale.Received, sale.Remaining)
	}
}

func TestCreatePaymentRejectsOverpayment(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "POST", "/api/payments", fiber.Map{
		"sale_id": env.saleID,
		"method":  "card",
		"amount":  900, // kalan 800
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 beklenirken %d: %s", resp.StatusCode, raw)
	}

	sale := env.sale(t)
	if sale.Received != 200 {
		t.Errorf("satış değişmemeliydi: received=%v", sale.Received)
	}
}

func TestCreatePaymentRejectsInvalidMethod(t *testing.T) {
	env := setupTest(t)

	resp, _ := env.request(t, "POST", "/api/payments", fiber.Map{
		"sale_id": env.saleID,
		"method":  "bitcoin",
		"amount":  100,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("geçersiz method 400 dönmeli, %d", resp.StatusCode)
	}
}

func TestCreatePaymentRejectsCancelledSale(t *testing.T) {
	env := setupTest(t)

	if err := database.DB.Model(&models.Sale{}).Where("id = ?", env.saleID).
		Update("status", models.SaleStatusCancelled).Error; err != nil {
		t.Fatalf("satış güncellenemedi: %v", err)
	}

	resp, _ := env.request(t, "POST", "/api/payments", fiber.Map{
		"sale_id": env.saleID,
		"method":  "cash",
		"amount":  100,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("iptal satışa tahsilat 400 dönmeli, %d", resp.StatusCode)
	}
}

func TestDeletePaymentRevertsSaleBalance(t *testing.T) {
	env := setupTest(t)

	resp, raw := env.request(t, "POST", "/api/payments", fiber.Map{
		"sale_id": env.saleID,
		"method":  "transfer",
		"amount":  300,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 beklenirken %d: %s", resp.StatusCode, raw)
	}
	var payment PaymentResponse
	if err := json.Unmarshal(raw, &payment); err != nil {
		t.Fatalf("cevap çözümlenemedi: %v", err)
	}

	resp, raw = env.request(t, "DELETE", fmt.Sprintf("/api/payments/%d", payment.ID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 beklenirken %d: %s", resp.StatusCode, raw)
	}

	sale := env.sale(t)
	if sale.Received != 200 || sale.Remaining != 800 {
		t.Errorf("bakiye geri alınmalıydı: received=%v remaining=%v", sale.Received, sale.Remaining)
	}
}

package main

import (
	"strings"

	"optik-backend/internal/activity"
	"optik-backend/internal/admin"
	"optik-backend/internal/audits"
	"optik-backend/internal/auth"
	"optik-backend/internal/config"
	"optik-backend/internal/customers"
	"optik-backend/internal/dashboard"
	"optik-backend/internal/database"
	"optik-backend/internal/expense"
	"optik-backend/internal/financial"
	"optik-backend/internal/inventory"
	"optik-backend/internal/models"
	"optik-backend/internal/payments"
	"optik-backend/internal/payroll"
	"optik-backend/internal/sales"
	"optik-backend/internal/store"
	"optik-backend/internal/suppliers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logrus.WithError(err).Error("beklenmeyen hata")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den temizle
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// Public vitrin (login yok)
	app.Get("/store/:slug/theme", store.GetPublicThemeHandler())
	app.Get("/store/:slug/products", store.ListPublicProductsHandler())
	app.Post("/store/:slug/orders", store.CreatePublicOrderHandler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/register-company", auth.RegisterCompanyHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Şirket yönetimi
	adminRoutes.Post("/companies", admin.CreateCompanyHandler())
	adminRoutes.Get("/companies", admin.ListCompaniesHandler())
	adminRoutes.Get("/companies/:id", admin.GetCompanyHandler())
	adminRoutes.Put("/companies/:id", admin.UpdateCompanyHandler())
	adminRoutes.Delete("/companies/:id", admin.DeleteCompanyHandler())
	adminRoutes.Post("/companies/:id/admins", admin.CreateCompanyAdminHandler())
	adminRoutes.Get("/companies/:id/admins", admin.ListCompanyAdminsHandler())

	// Stok
	protected.Get("/inventory", inventory.ListItemsHandler())
	protected.Post("/inventory", inventory.CreateItemHandler())
	protected.Put("/inventory/:id", inventory.UpdateItemHandler())
	protected.Delete("/inventory/:id", inventory.DeleteItemHandler())
	protected.Post("/inventory/bulk-import", inventory.BulkImportItemsHandler())

	// Kategoriler
	protected.Get("/categories", inventory.ListCategoriesHandler())
	protected.Post("/categories", inventory.CreateCategoryHandler())
	protected.Put("/categories/:id", inventory.UpdateCategoryHandler())
	protected.Delete("/categories/:id", inventory.DeleteCategoryHandler())

	// Zayiat girişleri
	protected.Post("/waste-entries", inventory.CreateWasteEntryHandler())
	protected.Get("/waste-entries", inventory.ListWasteEntriesHandler())
	protected.Delete("/waste-entries/:id", inventory.DeleteWasteEntryHandler())

	// Müşteriler
	protected.Get("/customers", customers.ListCustomersHandler())
	protected.Post("/customers", customers.CreateCustomerHandler())
	protected.Get("/customers/:id", customers.GetCustomerHandler())
	protected.Put("/customers/:id", customers.UpdateCustomerHandler())
	protected.Delete("/customers/:id", customers.DeleteCustomerHandler())
	protected.Get("/customers/:id/balance", customers.GetCustomerBalanceHandler())

	// Satışlar
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())
	protected.Put("/sales/:id", sales.UpdateSaleHandler())
	protected.Patch("/sales/:id", sales.UpdateSaleHandler()) // eski frontend PATCH kullanıyor
	protected.Delete("/sales/:id", sales.DeleteSaleHandler())

	// Tahsilatlar
	protected.Post("/payments", payments.CreatePaymentHandler())
	protected.Get("/payments", payments.ListPaymentsHandler())
	protected.Delete("/payments/:id", payments.DeletePaymentHandler())

	// Sayımlar
	protected.Post("/audits", audits.CreateAuditHandler())
	protected.Get("/audits", audits.ListAuditsHandler())
	protected.Get("/audits/:id", audits.GetAuditHandler())
	protected.Delete("/audits/:id", audits.DeleteAuditHandler())

	// Giderler
	protected.Get("/bill-categories", expense.ListBillCategoriesHandler())
	protected.Post("/bill-categories", expense.CreateBillCategoryHandler())
	protected.Delete("/bill-categories/:id", expense.DeleteBillCategoryHandler())
	protected.Post("/bills", expense.CreateBillHandler())
	protected.Get("/bills", expense.ListBillsHandler())
	protected.Delete("/bills/:id", expense.DeleteBillHandler())
	protected.Get("/bills/summary/monthly", expense.MonthlyBillSummaryHandler())

	// Personel & maaşlar
	protected.Get("/employees", payroll.ListEmployeesHandler())
	protected.Post("/employees", payroll.CreateEmployeeHandler())
	protected.Put("/employees/:id", payroll.UpdateEmployeeHandler())
	protected.Delete("/employees/:id", payroll.DeleteEmployeeHandler())
	protected.Post("/salary-payments", payroll.CreateSalaryPaymentHandler())
	protected.Get("/salary-payments", payroll.ListSalaryPaymentsHandler())
	protected.Delete("/salary-payments/:id", payroll.DeleteSalaryPaymentHandler())

	// Tedarikçiler
	protected.Get("/suppliers", suppliers.ListSuppliersHandler())
	protected.Post("/suppliers", suppliers.CreateSupplierHandler())
	protected.Put("/suppliers/:id", suppliers.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", suppliers.DeleteSupplierHandler())
	protected.Post("/supplier-purchases", suppliers.CreatePurchaseHandler())
	protected.Get("/supplier-purchases", suppliers.ListPurchasesHandler())
	protected.Delete("/supplier-purchases/:id", suppliers.DeletePurchaseHandler())

	// Vitrin yönetimi (panel)
	protected.Get("/store-orders", store.ListStoreOrdersHandler())
	protected.Put("/store-orders/:id/status", store.UpdateStoreOrderStatusHandler())
	protected.Get("/theme", store.GetThemeHandler())
	protected.Put("/theme", store.UpdateThemeHandler())

	// Dashboard
	protected.Get("/dashboard/overview", dashboard.OverviewHandler())
	protected.Get("/dashboard/sales-chart", dashboard.SalesChartHandler())

	// Finansal özet
	protected.Get("/financial-summary/monthly", financial.MonthlyFinancialSummaryHandler())
	protected.Get("/financial-summary/monthly/export", financial.MonthlyFinancialExportHandler())

	// Aktivite kayıtları
	protected.Get("/activity-logs", activity.ListActivityLogsHandler())

	logrus.Info("Server çalışıyor port: ", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logrus.Fatal(err)
	}
}

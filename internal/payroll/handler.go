package payroll

import (
	"fmt"
	"strings"
	"time"

	"optik-backend/internal/activity"
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"
	"optik-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type EmployeeResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Position      string  `json:"position"`
	MonthlySalary float64 `json:"monthly_salary"`
	Active        bool    `json:"active"`
}

type CreateEmployeeRequest struct {
	Name          string  `json:"name" validate:"required"`
	Position      string  `json:"position"`
	MonthlySalary float64 `json:"monthly_salary" validate:"gte=0"`
}

type UpdateEmployeeRequest struct {
	Name          *string  `json:"name"`
	Position      *string  `json:"position"`
	MonthlySalary *float64 `json:"monthly_salary"`
	Active        *bool    `json:"active"`
}

type CreateSalaryPaymentRequest struct {
	EmployeeID  uint    `json:"employee_id" validate:"required"`
	Date        string  `json:"date"` // boşsa bugün
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
}

type SalaryPaymentResponse struct {
	ID           uint    `json:"id"`
	EmployeeID   uint    `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
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

func employeeResponse(e models.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:            e.ID,
		Name:          e.Name,
		Position:      e.Position,
		MonthlySalary: e.MonthlySalary,
		Active:        e.Active,
	}
}

// GET /api/employees?active=
func ListEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("company_id = ?", companyID)
		if activeStr := c.Query("active"); activeStr != "" {
			dbq = dbq.Where("active = ?", activeStr == "true")
		}

		var employees []models.Employee
		if err := dbq.Order("name asc").Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel listelenemedi")
		}

		resp := make([]EmployeeResponse, 0, len(employees))
		for _, e := range employees {
			resp = append(resp, employeeResponse(e))
		}
		return c.JSON(resp)
	}
}

// POST /api/employees
func CreateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
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

		employee := models.Employee{
			CompanyID:     companyID,
			Name:          strings.TrimSpace(body.Name),
			Position:      body.Position,
			MonthlySalary: body.MonthlySalary,
			Active:        true,
		}
		if employee.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}

		if err := database.DB.Create(&employee).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(employeeResponse(employee))
	}
}

// PUT /api/employees/:id
func UpdateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var employee models.Employee
		if err := database.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Personel bulunamadı")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			employee.Name = name
		}
		if body.Position != nil {
			employee.Position = *body.Position
		}
		if body.MonthlySalary != nil {
			if *body.MonthlySalary < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Maaş negatif olamaz")
			}
			employee.MonthlySalary = *body.MonthlySalary
		}
		if body.Active != nil {
			employee.Active = *body.Active
		}

		if err := database.DB.Save(&employee).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel güncellenemedi")
		}

		return c.JSON(employeeResponse(employee))
	}
}

// DELETE /api/employees/:id
// Maaş ödemesi olan personel silinmez, pasife çekilir.
func DeleteEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var employee models.Employee
		if err := database.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Personel bulunamadı")
		}

		var paymentCount int64
		database.DB.Model(&models.SalaryPayment{}).Where("employee_id = ?", employee.ID).Count(&paymentCount)
		if paymentCount > 0 {
			employee.Active = false
			if err := database.DB.Save(&employee).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Personel pasifleştirilemedi")
			}
			return c.JSON(fiber.Map{"success": true, "deactivated": true})
		}

		if err := database.DB.Delete(&employee).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel silinemedi")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// POST /api/salary-payments
func CreateSalaryPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSalaryPaymentRequest
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

		var employee models.Employee
		if err := database.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", body.EmployeeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Personel bulunamadı")
		}

		date := time.Now()
		if body.Date != "" {
			date, err = time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		payment := models.SalaryPayment{
			CompanyID:   companyID,
			EmployeeID:  employee.ID,
			Date:        date,
			Amount:      body.Amount,
			Description: body.Description,
		}
		if err := database.DB.Create(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Maaş ödemesi kaydedilemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "salary_payment",
				EntityID:    payment.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Maaş ödemesi: %s - %.2f", employee.Name, payment.Amount),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(SalaryPaymentResponse{
			ID:           payment.ID,
			EmployeeID:   employee.ID,
			EmployeeName: employee.Name,
			Date:         payment.Date.Format("2006-01-02"),
			Amount:       payment.Amount,
			Description:  payment.Description,
		})
	}
}

// GET /api/salary-payments?employee_id=&year=&month=
func ListSalaryPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.
			Preload("Employee").
			Where("company_id = ?", companyID)

		if eid := c.QueryInt("employee_id", 0); eid > 0 {
			dbq = dbq.Where("employee_id = ?", eid)
		}
		year := c.QueryInt("year", 0)
		month := c.QueryInt("month", 0)
		if year > 0 && month >= 1 && month <= 12 {
			loc := time.Now().Location()
			firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
			dbq = dbq.Where("date >= ? AND date < ?", firstDay, firstDay.AddDate(0, 1, 0))
		}

		var paymentsList []models.SalaryPayment
		if err := dbq.Order("date DESC").Find(&paymentsList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Maaş ödemeleri listelenemedi")
		}

		resp := make([]SalaryPaymentResponse, 0, len(paymentsList))
		total := 0.0
		for _, p := range paymentsList {
			total += p.Amount
			resp = append(resp, SalaryPaymentResponse{
				ID:           p.ID,
				EmployeeID:   p.EmployeeID,
				EmployeeName: p.Employee.Name,
				Date:         p.Date.Format("2006-01-02"),
				Amount:       p.Amount,
				Description:  p.Description,
			})
		}
		return c.JSON(fiber.Map{
			"payments": resp,
			"total":    total,
		})
	}
}

// DELETE /api/salary-payments/:id
func DeleteSalaryPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var payment models.SalaryPayment
		if err := database.DB.Where("company_id = ?", companyID).First(&payment, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Maaş ödemesi bulunamadı")
		}

		if err := database.DB.Delete(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Maaş ödemesi silinemedi")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"optik-backend/internal/activity"
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/ledger"
	"optik-backend/internal/models"
	"optik-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateSaleRequest struct {
	CustomerID uint   `json:"customer_id" validate:"required"`
	Frame      string `json:"frame"`
	Lens       string `json:"lens"`

	RightSphere   string `json:"right_sphere"`
	RightCylinder string `json:"right_cylinder"`
	RightAxis     string `json:"right_axis"`
	LeftSphere    string `json:"left_sphere"`
	LeftCylinder  string `json:"left_cylinder"`
	LeftAxis      string `json:"left_axis"`
	PupilDistance string `json:"pupil_distance"`

	Total        float64 `json:"total" validate:"gte=0"`
	Received     float64 `json:"received" validate:"gte=0"`
	Status       string  `json:"status"`
	EntryDate    string  `json:"entry_date"`    // "2025-12-09", boşsa bugün
	DeliveryDate *string `json:"delivery_date"` // opsiyonel
}

type UpdateSaleRequest struct {
	CustomerID *uint   `json:"customer_id"`
	Frame      *string `json:"frame"`
	Lens       *string `json:"lens"`

	RightSphere   *string `json:"right_sphere"`
	RightCylinder *string `json:"right_cylinder"`
	RightAxis     *string `json:"right_axis"`
	LeftSphere    *string `json:"left_sphere"`
	LeftCylinder  *string `json:"left_cylinder"`
	LeftAxis      *string `json:"left_axis"`
	PupilDistance *string `json:"pupil_distance"`

	Total        *float64 `json:"total"`
	Received     *float64 `json:"received"`
	Status       *string  `json:"status"`
	EntryDate    *string  `json:"entry_date"`
	DeliveryDate *string  `json:"delivery_date"`
}

type SaleCustomer struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type SaleResponse struct {
	ID       uint         `json:"id"`
	OrderNo  string       `json:"order_no"`
	Customer SaleCustomer `json:"customer"`

	Frame string `json:"frame"`
	Lens  string `json:"lens"`

	RightSphere   string `json:"right_sphere"`
	RightCylinder string `json:"right_cylinder"`
	RightAxis     string `json:"right_axis"`
	LeftSphere    string `json:"left_sphere"`
	LeftCylinder  string `json:"left_cylinder"`
	LeftAxis      string `json:"left_axis"`
	PupilDistance string `json:"pupil_distance"`

	Total     float64 `json:"total"`
	Received  float64 `json:"received"`
	Remaining float64 `json:"remaining"`

	Status       string  `json:"status"`
	EntryDate    string  `json:"entry_date"`
	DeliveryDate *string `json:"delivery_date"`
	CreatedAt    string  `json:"created_at"`
}

func saleResponse(s *models.Sale) SaleResponse {
	var delivery *string
	if s.DeliveryDate != nil {
		d := s.DeliveryDate.Format("2006-01-02")
		delivery = &d
	}
	return SaleResponse{
		ID:      s.ID,
		OrderNo: s.OrderNo,
		Customer: SaleCustomer{
			ID:    s.Customer.ID,
			Name:  s.Customer.Name,
			Phone: s.Customer.Phone,
			Email: s.Customer.Email,
		},
		Frame:         s.Frame,
		Lens:          s.Lens,
		RightSphere:   s.RightSphere,
		RightCylinder: s.RightCylinder,
		RightAxis:     s.RightAxis,
		LeftSphere:    s.LeftSphere,
		LeftCylinder:  s.LeftCylinder,
		LeftAxis:      s.LeftAxis,
		PupilDistance: s.PupilDistance,
		Total:         s.Total,
		Received:      s.Received,
		Remaining:     s.Remaining,
		Status:        string(s.Status),
		EntryDate:     s.EntryDate.Format("2006-01-02"),
		DeliveryDate:  delivery,
		CreatedAt:     s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func newOrderNo() string {
	return "SO-" + strings.ToUpper(uuid.New().String()[:8])
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

func validStatus(s string) bool {
	switch models.SaleStatus(s) {
	case models.SaleStatusPending, models.SaleStatusReady, models.SaleStatusDelivered, models.SaleStatusCancelled:
		return true
	}
	return false
}

// deductFailure: Ledger hatalarını HTTP 400'e çevirir. Mesaj öneki dashboard
// sözleşmesidir, değiştirme.
func deductFailure(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "Failed to deduct inventory: "+err.Error())
}

func isLedgerError(err error) bool {
	return errors.Is(err, ledger.ErrItemNotFound) || errors.Is(err, ledger.ErrInsufficientStock)
}

// POST /api/sales
// Satış oluşturma: çerçeve ve cam düşümü + satış satırı tek transaction.
// Herhangi bir düşüm başarısızsa hiçbir stok değişikliği kalıcı olmaz.
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
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

		var customer models.Customer
		if err := database.DB.Where("company_id = ? AND id = ?", companyID, body.CustomerID).First(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Müşteri bulunamadı")
		}

		if body.Received > body.Total {
			return fiber.NewError(fiber.StatusBadRequest, "Alınan tutar toplam tutarı aşamaz")
		}

		var entryDate time.Time
		if body.EntryDate == "" {
			now := time.Now()
			entryDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			entryDate, err = time.Parse("2006-01-02", body.EntryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "entry_date formatı 'YYYY-MM-DD' olmalı")
			}
		}

		var deliveryDate *time.Time
		if body.DeliveryDate != nil && *body.DeliveryDate != "" {
			d, err := time.Parse("2006-01-02", *body.DeliveryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "delivery_date formatı 'YYYY-MM-DD' olmalı")
			}
			deliveryDate = &d
		}

		status := models.SaleStatusPending
		if body.Status != "" {
			if !validStatus(body.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status (pending|ready|delivered|cancelled)")
			}
			status = models.SaleStatus(body.Status)
		}

		sale := models.Sale{
			CompanyID:     companyID,
			CustomerID:    customer.ID,
			OrderNo:       newOrderNo(),
			Frame:         strings.TrimSpace(body.Frame),
			Lens:          strings.TrimSpace(body.Lens),
			RightSphere:   body.RightSphere,
			RightCylinder: body.RightCylinder,
			RightAxis:     body.RightAxis,
			LeftSphere:    body.LeftSphere,
			LeftCylinder:  body.LeftCylinder,
			LeftAxis:      body.LeftAxis,
			PupilDistance: body.PupilDistance,
			Total:         body.Total,
			Received:      body.Received,
			Remaining:     body.Total - body.Received,
			Status:        status,
			EntryDate:     entryDate,
			DeliveryDate:  deliveryDate,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if _, err := ledger.Deduct(tx, companyID, sale.Frame, 1); err != nil {
				return err
			}
			if _, err := ledger.Deduct(tx, companyID, sale.Lens, 1); err != nil {
				return err
			}
			return tx.Create(&sale).Error
		})
		if err != nil {
			if isLedgerError(err) {
				return deductFailure(err)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Satış oluşturulamadı")
		}

		sale.Customer = customer

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Satış oluşturuldu: %s (%s)", sale.OrderNo, customer.Name),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(saleResponse(&sale))
	}
}

// PUT /api/sales/:id
// Çerçeve/cam patch'te geldiyse eski isim iade edilir, yeni isim düşülür;
// hepsi satır güncellemesiyle birlikte tek transaction'dadır. Yeni düşüm
// başarısızsa iade de dahil her şey geri alınır; telafi aksiyonuna gerek
// kalmaz.
func UpdateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var sale models.Sale
		if err := database.DB.Preload("Customer").Where("company_id = ?", companyID).First(&sale, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}

		var body UpdateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.CustomerID != nil {
			var customer models.Customer
			if err := database.DB.Where("company_id = ? AND id = ?", companyID, *body.CustomerID).First(&customer).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Müşteri bulunamadı")
			}
			sale.CustomerID = customer.ID
			sale.Customer = customer
		}

		if body.Status != nil {
			if !validStatus(*body.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status (pending|ready|delivered|cancelled)")
			}
			sale.Status = models.SaleStatus(*body.Status)
		}

		if body.EntryDate != nil {
			d, err := time.Parse("2006-01-02", *body.EntryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "entry_date formatı 'YYYY-MM-DD' olmalı")
			}
			sale.EntryDate = d
		}

		if body.DeliveryDate != nil {
			if *body.DeliveryDate == "" {
				sale.DeliveryDate = nil
			} else {
				d, err := time.Parse("2006-01-02", *body.DeliveryDate)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "delivery_date formatı 'YYYY-MM-DD' olmalı")
				}
				sale.DeliveryDate = &d
			}
		}

		if body.RightSphere != nil {
			sale.RightSphere = *body.RightSphere
		}
		if body.RightCylinder != nil {
			sale.RightCylinder = *body.RightCylinder
		}
		if body.RightAxis != nil {
			sale.RightAxis = *body.RightAxis
		}
		if body.LeftSphere != nil {
			sale.LeftSphere = *body.LeftSphere
		}
		if body.LeftCylinder != nil {
			sale.LeftCylinder = *body.LeftCylinder
		}
		if body.LeftAxis != nil {
			sale.LeftAxis = *body.LeftAxis
		}
		if body.PupilDistance != nil {
			sale.PupilDistance = *body.PupilDistance
		}

		// Patch'te gelmeyen alanlar mevcut değerlerinden tamamlanır
		if body.Total != nil {
			if *body.Total < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Toplam tutar negatif olamaz")
			}
			sale.Total = *body.Total
		}
		if body.Received != nil {
			if *body.Received < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Alınan tutar negatif olamaz")
			}
			sale.Received = *body.Received
		}
		if sale.Received > sale.Total {
			return fiber.NewError(fiber.StatusBadRequest, "Alınan tutar toplam tutarı aşamaz")
		}
		sale.Remaining = sale.Total - sale.Received

		oldFrame := sale.Frame
		oldLens := sale.Lens
		if body.Frame != nil {
			sale.Frame = strings.TrimSpace(*body.Frame)
		}
		if body.Lens != nil {
			sale.Lens = strings.TrimSpace(*body.Lens)
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if body.Frame != nil {
				if err := ledger.Restore(tx, companyID, oldFrame, 1); err != nil {
					return err
				}
				if _, err := ledger.Deduct(tx, companyID, sale.Frame, 1); err != nil {
					return err
				}
			}
			if body.Lens != nil {
				if err := ledger.Restore(tx, companyID, oldLens, 1); err != nil {
					return err
				}
				if _, err := ledger.Deduct(tx, companyID, sale.Lens, 1); err != nil {
					return err
				}
			}
			return tx.Save(&sale).Error
		})
		if err != nil {
			if isLedgerError(err) {
				logrus.WithFields(logrus.Fields{
					"sale_id":   sale.ID,
					"company":   companyID,
					"old_frame": oldFrame,
					"old_lens":  oldLens,
				}).WithError(err).Warn("satış güncellemesinde stok düşümü başarısız, transaction geri alındı")
				return deductFailure(err)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Satış güncellenemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.ActivityActionUpdate,
				Description: fmt.Sprintf("Satış güncellendi: %s", sale.OrderNo),
			})
		}

		return c.JSON(saleResponse(&sale))
	}
}

// DELETE /api/sales/:id
// Silme: çerçeve + cam iadesi ve satır silme tek transaction.
func DeleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var sale models.Sale
		if err := database.DB.Where("company_id = ?", companyID).First(&sale, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ledger.Restore(tx, companyID, sale.Frame, 1); err != nil {
				return err
			}
			if err := ledger.Restore(tx, companyID, sale.Lens, 1); err != nil {
				return err
			}
			return tx.Delete(&sale).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış silinemedi")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.ActivityActionDelete,
				Description: fmt.Sprintf("Satış silindi: %s", sale.OrderNo),
			})
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/sales?status=&customer_id=&from=&to=
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.
			Preload("Customer").
			Where("company_id = ?", companyID)

		if status := c.Query("status"); status != "" {
			if !validStatus(status) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status filtresi")
			}
			dbq = dbq.Where("status = ?", status)
		}

		if cid := c.QueryInt("customer_id", 0); cid > 0 {
			dbq = dbq.Where("customer_id = ?", cid)
		}

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			dbq = dbq.Where("entry_date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("entry_date <= ?", to)
		}

		var sales []models.Sale
		if err := dbq.Order("entry_date DESC, created_at DESC").Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		resp := make([]SaleResponse, 0, len(sales))
		for i := range sales {
			resp = append(resp, saleResponse(&sales[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var sale models.Sale
		if err := database.DB.Preload("Customer").Where("company_id = ?", companyID).First(&sale, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}

		return c.JSON(saleResponse(&sale))
	}
}

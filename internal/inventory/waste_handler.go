package inventory

import (
	"errors"
	"fmt"
	"time"

	"optik-backend/internal/activity"
	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/ledger"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateWasteEntryRequest struct {
	InventoryItemID uint   `json:"inventory_item_id"`
	Date            string `json:"date"` // "2025-12-09", boşsa bugün
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason"`
}

type WasteEntryResponse struct {
	ID              uint   `json:"id"`
	InventoryItemID uint   `json:"inventory_item_id"`
	ItemName        string `json:"item_name"`
	Date            string `json:"date"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason"`
	CreatedAt       string `json:"created_at"`
}

// POST /api/waste-entries
// Zayiat girişi stoğu ledger üzerinden düşer; stok yetersizse kayıt
// reddedilir (zayiat stoğu negatife çekemez). Düşüm + kayıt tek transaction.
func CreateWasteEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWasteEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.InventoryItemID == 0 || body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "inventory_item_id zorunlu, quantity 0'dan büyük olmalı")
		}

		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var item models.InventoryItem
		if err := database.DB.Where("company_id = ? AND id = ?", companyID, body.InventoryItemID).First(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Stok kalemi bulunamadı")
		}

		var date time.Time
		if body.Date == "" {
			now := time.Now()
			date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			date, err = time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		entry := models.WasteEntry{
			CompanyID:       companyID,
			InventoryItemID: item.ID,
			Date:            date,
			Quantity:        body.Quantity,
			Reason:          body.Reason,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ledger.DeductByID(tx, companyID, item.ID, body.Quantity); err != nil {
				return err
			}
			return tx.Create(&entry).Error
		})
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientStock) || errors.Is(err, ledger.ErrItemNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "Failed to deduct inventory: "+err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Zayiat kaydı oluşturulamadı")
		}

		userID, userName, uerr := getUserInfo(c)
		if uerr == nil {
			_ = activity.WriteLog(activity.LogOptions{
				CompanyID:   &companyID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "waste_entry",
				EntityID:    entry.ID,
				Action:      models.ActivityActionCreate,
				Description: fmt.Sprintf("Zayiat: %s - %d adet (%s)", item.Name, entry.Quantity, entry.Reason),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(WasteEntryResponse{
			ID:              entry.ID,
			InventoryItemID: entry.InventoryItemID,
			ItemName:        item.Name,
			Date:            entry.Date.Format("2006-01-02"),
			Quantity:        entry.Quantity,
			Reason:          entry.Reason,
			CreatedAt:       entry.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/waste-entries
func ListWasteEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		var entries []models.WasteEntry
		if err := database.DB.
			Preload("InventoryItem").
			Where("company_id = ?", companyID).
			Order("date DESC, created_at DESC").
			Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Zayiat kayıtları listelenemedi")
		}

		resp := make([]WasteEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, WasteEntryResponse{
				ID:              e.ID,
				InventoryItemID: e.InventoryItemID,
				ItemName:        e.InventoryItem.Name,
				Date:            e.Date.Format("2006-01-02"),
				Quantity:        e.Quantity,
				Reason:          e.Reason,
				CreatedAt:       e.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}

// DELETE /api/waste-entries/:id
// Zayiat silinirse düşülen stok geri verilir; ikisi tek transaction.
func DeleteWasteEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var entry models.WasteEntry
		if err := database.DB.Where("company_id = ?", companyID).First(&entry, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Zayiat kaydı bulunamadı")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ledger.AddByID(tx, companyID, entry.InventoryItemID, entry.Quantity); err != nil {
				// Kalem bu arada silinmişse iade edilecek stok yok, kayıt yine silinir
				if !errors.Is(err, ledger.ErrItemNotFound) {
					return err
				}
			}
			return tx.Delete(&entry).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Zayiat kaydı silinemedi")
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

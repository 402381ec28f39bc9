package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type BulkImportResponse struct {
	Imported int      `json:"imported"` // içe aktarılan kalem sayısı
	Updated  int      `json:"updated"`  // stoğu güncellenen mevcut kalem sayısı
	Skipped  int      `json:"skipped"`  // atlanan satır sayısı
	Errors   []string `json:"errors"`
}

// POST /api/inventory/bulk-import
// Excel'den toplu stok kalemi içe aktarma. Beklenen kolonlar:
// A: ürün adı, B: kategori (opsiyonel), C: birim fiyat, D: stok adedi.
// Aynı isimde kalem varsa stok miktarı ÜZERİNE eklenir, fiyat güncellenir.
// Tüm satırlar tek transaction'da işlenir; satır hataları toplanır ama
// dosyanın tamamını geçersiz kılmaz, sadece o satır atlanır.
func BulkImportItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası gerekli (form field: file)")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya açılamadı")
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası boş")
		}

		// İlk satır başlık mı? "ÜRÜN", "NAME", "PRODUCT" geçiyorsa atla
		startRow := 0
		if len(rows[0]) > 0 {
			firstCell := strings.ToUpper(strings.TrimSpace(rows[0][0]))
			if strings.Contains(firstCell, "ÜRÜN") || strings.Contains(firstCell, "NAME") || strings.Contains(firstCell, "PRODUCT") {
				startRow = 1
			}
		}

		resp := BulkImportResponse{Errors: []string{}}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for i := startRow; i < len(rows); i++ {
				row := rows[i]
				if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
					resp.Skipped++
					continue
				}

				name := strings.TrimSpace(row[0])

				var categoryID *uint
				if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
					catName := strings.TrimSpace(row[1])
					var category models.Category
					err := tx.Where("company_id = ? AND name = ?", companyID, catName).First(&category).Error
					if err != nil {
						// Kategori yoksa oluştur
						category = models.Category{CompanyID: companyID, Name: catName}
						if err := tx.Create(&category).Error; err != nil {
							resp.Errors = append(resp.Errors, fmt.Sprintf("satır %d: kategori oluşturulamadı: %s", i+1, catName))
							resp.Skipped++
							continue
						}
					}
					categoryID = &category.ID
				}

				unitPrice := 0.0
				if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
					unitPrice, err = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[2]), ",", "."), 64)
					if err != nil || unitPrice < 0 {
						resp.Errors = append(resp.Errors, fmt.Sprintf("satır %d: birim fiyat geçersiz: %s", i+1, row[2]))
						resp.Skipped++
						continue
					}
				}

				qty := 0
				if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
					qty, err = strconv.Atoi(strings.TrimSpace(row[3]))
					if err != nil || qty < 0 {
						resp.Errors = append(resp.Errors, fmt.Sprintf("satır %d: stok adedi geçersiz: %s", i+1, row[3]))
						resp.Skipped++
						continue
					}
				}

				var existing models.InventoryItem
				err := tx.Where("company_id = ? AND name = ?", companyID, name).First(&existing).Error
				if err == nil {
					existing.UnitPrice = unitPrice
					existing.TotalStock += qty
					if categoryID != nil {
						existing.CategoryID = categoryID
					}
					if err := tx.Save(&existing).Error; err != nil {
						return err
					}
					resp.Updated++
					continue
				}

				item := models.InventoryItem{
					CompanyID:  companyID,
					Name:       name,
					ItemCode:   newItemCode(),
					CategoryID: categoryID,
					UnitPrice:  unitPrice,
					TotalStock: qty,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				resp.Imported++
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("İçe aktarma başarısız: %v", err))
		}

		return c.JSON(resp)
	}
}

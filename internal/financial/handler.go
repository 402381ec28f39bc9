package financial

import (
	"fmt"
	"time"

	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ExpenseByCategory struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
}

type RevenueBlock struct {
	SalesCount int     `json:"sales_count"`
	Total      float64 `json:"total"`
	Received   float64 `json:"received"`
	Remaining  float64 `json:"remaining"`
}

type ExpenseBlock struct {
	Items []ExpenseByCategory `json:"items"`
	Total float64             `json:"total"`
}

type MonthlyFinancialSummaryResponse struct {
	CompanyID     uint         `json:"company_id"`
	Year          int          `json:"year"`
	Month         int          `json:"month"`
	Revenue       RevenueBlock `json:"revenue"`
	Bills         ExpenseBlock `json:"bills"`
	SalariesTotal float64      `json:"salaries_total"`
	TotalExpenses float64      `json:"total_expenses"`
	NetProfit     float64      `json:"net_profit"`
}

func parseYearMonth(c *fiber.Ctx) (int, int, error) {
	yearStr := c.Query("year")
	monthStr := c.Query("month")
	if yearStr == "" || monthStr == "" {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
	}

	var year, month int
	if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
	}
	if _, err := fmt.Sscan(monthStr, &month); err != nil || month < 1 || month > 12 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "month geçersiz")
	}
	return year, month, nil
}

func buildMonthlySummary(companyID uint, year, month int) (*MonthlyFinancialSummaryResponse, error) {
	loc := time.Now().Location()
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	nextMonth := firstDay.AddDate(0, 1, 0)

	// ---------------------------
	// 1) Ciro (satışlar, iptal hariç)
	// ---------------------------

	type revRow struct {
		Count     int     `gorm:"column:count"`
		Total     float64 `gorm:"column:total"`
		Received  float64 `gorm:"column:received"`
		Remaining float64 `gorm:"column:remaining"`
	}
	var rev revRow

	if err := database.DB.
		Model(&models.Sale{}).
		Select("COUNT(*) as count, COALESCE(SUM(total), 0) as total, COALESCE(SUM(received), 0) as received, COALESCE(SUM(remaining), 0) as remaining").
		Where("company_id = ? AND status <> ? AND entry_date >= ? AND entry_date < ?",
			companyID, models.SaleStatusCancelled, firstDay, nextMonth).
		Scan(&rev).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Ciro hesaplanamadı")
	}

	// ---------------------------
	// 2) Faturalar (kategori bazlı)
	// ---------------------------

	type expRow struct {
		CategoryID uint    `gorm:"column:category_id"`
		Total      float64 `gorm:"column:total"`
	}
	var expRows []expRow

	if err := database.DB.
		Model(&models.Bill{}).
		Select("category_id, SUM(amount) as total").
		Where("company_id = ? AND date >= ? AND date < ?", companyID, firstDay, nextMonth).
		Group("category_id").
		Scan(&expRows).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Giderler hesaplanamadı")
	}

	catIDs := make([]uint, 0, len(expRows))
	for _, r := range expRows {
		catIDs = append(catIDs, r.CategoryID)
	}

	catMap := make(map[uint]string)
	if len(catIDs) > 0 {
		var cats []models.BillCategory
		if err := database.DB.Where("id IN ?", catIDs).Find(&cats).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Kategori bilgileri alınamadı")
		}
		for _, ccat := range cats {
			catMap[ccat.ID] = ccat.Name
		}
	}

	billsBlock := ExpenseBlock{Items: make([]ExpenseByCategory, 0, len(expRows))}
	for _, r := range expRows {
		billsBlock.Items = append(billsBlock.Items, ExpenseByCategory{
			CategoryID:   r.CategoryID,
			CategoryName: catMap[r.CategoryID],
			Total:        r.Total,
		})
		billsBlock.Total += r.Total
	}

	// ---------------------------
	// 3) Maaş ödemeleri
	// ---------------------------

	var salariesTotal float64
	if err := database.DB.
		Model(&models.SalaryPayment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("company_id = ? AND date >= ? AND date < ?", companyID, firstDay, nextMonth).
		Scan(&salariesTotal).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Maaş toplamı hesaplanamadı")
	}

	totalExpenses := billsBlock.Total + salariesTotal

	return &MonthlyFinancialSummaryResponse{
		CompanyID: companyID,
		Year:      year,
		Month:     month,
		Revenue: RevenueBlock{
			SalesCount: rev.Count,
			Total:      rev.Total,
			Received:   rev.Received,
			Remaining:  rev.Remaining,
		},
		Bills:         billsBlock,
		SalariesTotal: salariesTotal,
		TotalExpenses: totalExpenses,
		NetProfit:     rev.Total - totalExpenses,
	}, nil
}

// GET /api/financial-summary/monthly?year=2025&month=12
func MonthlyFinancialSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		year, month, err := parseYearMonth(c)
		if err != nil {
			return err
		}

		resp, err := buildMonthlySummary(companyID, year, month)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// GET /api/financial-summary/monthly/export?year=2025&month=12
// Aylık özeti xlsx olarak indirir.
func MonthlyFinancialExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		year, month, err := parseYearMonth(c)
		if err != nil {
			return err
		}

		summary, err := buildMonthlySummary(companyID, year, month)
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Özet"
		f.SetSheetName("Sheet1", sheet)

		rows := [][]interface{}{
			{"Dönem", fmt.Sprintf("%04d-%02d", year, month)},
			{},
			{"Satış Adedi", summary.Revenue.SalesCount},
			{"Ciro", summary.Revenue.Total},
			{"Tahsil Edilen", summary.Revenue.Received},
			{"Kalan Alacak", summary.Revenue.Remaining},
			{},
			{"Gider Kalemi", "Tutar"},
		}
		for _, item := range summary.Bills.Items {
			rows = append(rows, []interface{}{item.CategoryName, item.Total})
		}
		rows = append(rows,
			[]interface{}{"Maaşlar", summary.SalariesTotal},
			[]interface{}{},
			[]interface{}{"Toplam Gider", summary.TotalExpenses},
			[]interface{}{"Net Kâr/Zarar", summary.NetProfit},
		)

		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
		}

		filename := fmt.Sprintf("finansal-ozet-%04d-%02d.xlsx", year, month)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return c.Send(buf.Bytes())
	}
}

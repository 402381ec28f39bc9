package dashboard

import (
	"fmt"
	"sort"
	"time"

	"optik-backend/internal/auth"
	"optik-backend/internal/database"
	"optik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SalesChartPoint struct {
	Label     string  `json:"label"` // tarih / hafta başlangıcı / ay başlangıcı
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
	Received  float64 `json:"received"`
	Remaining float64 `json:"remaining"`
}

type SalesChartGrandTotals struct {
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
	Received  float64 `json:"received"`
	Remaining float64 `json:"remaining"`
}

type SalesChartResponse struct {
	CompanyID   uint                  `json:"company_id"`
	Period      string                `json:"period"` // daily | weekly | monthly
	From        string                `json:"from"`
	To          string                `json:"to"`
	Points      []SalesChartPoint     `json:"points"`
	GrandTotals SalesChartGrandTotals `json:"grand_totals"`
}

type OverviewResponse struct {
	TodaySalesCount   int64   `json:"today_sales_count"`
	TodaySalesTotal   float64 `json:"today_sales_total"`
	PendingSalesCount int64   `json:"pending_sales_count"`
	MonthSalesTotal   float64 `json:"month_sales_total"`
	OpenBalanceTotal  float64 `json:"open_balance_total"` // tahsil edilmemiş toplam
	LowStockCount     int64   `json:"low_stock_count"`
	NewStoreOrders    int64   `json:"new_store_orders"`
	CustomerCount     int64   `json:"customer_count"`
}

// bucket başlangıcı: daily gün, weekly pazartesi, monthly ayın ilki
func truncateBucket(t time.Time, period string) time.Time {
	loc := t.Location()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	switch period {
	case "weekly":
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return day
	}
}

// GET /api/dashboard/sales-chart?period=daily&count=7
func SalesChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		period := c.Query("period", "daily") // daily | weekly | monthly
		countStr := c.Query("count", "")

		var count int
		if countStr == "" {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				period = "daily"
				count = 7
			}
		} else {
			if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "count geçersiz")
			}
			if period != "weekly" && period != "monthly" {
				period = "daily"
			}
		}

		now := time.Now()
		loc := now.Location()
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		var start time.Time

		switch period {
		case "weekly":
			start = truncateBucket(now, "weekly").AddDate(0, 0, -7*(count-1))
		case "monthly":
			start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(count - 1), 0)
		default:
			start = end.AddDate(0, 0, -count)
		}

		var salesList []models.Sale
		if err := database.DB.
			Where("company_id = ? AND status <> ? AND entry_date >= ? AND entry_date < ?",
				companyID, models.SaleStatusCancelled, start, end).
			Find(&salesList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Veri toplanırken hata oluştu")
		}

		// Aggregation Go tarafında; sqlite ve postgres'te aynı davranır.
		buckets := make(map[time.Time]*SalesChartPoint)
		keys := make([]time.Time, 0)

		for _, s := range salesList {
			bucket := truncateBucket(s.EntryDate, period)
			point, ok := buckets[bucket]
			if !ok {
				point = &SalesChartPoint{Label: bucket.Format("2006-01-02")}
				buckets[bucket] = point
				keys = append(keys, bucket)
			}
			point.Count++
			point.Total += s.Total
			point.Received += s.Received
			point.Remaining += s.Remaining
		}

		sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

		points := make([]SalesChartPoint, 0, len(keys))
		grand := SalesChartGrandTotals{}
		for _, k := range keys {
			p := buckets[k]
			points = append(points, *p)
			grand.Count += p.Count
			grand.Total += p.Total
			grand.Received += p.Received
			grand.Remaining += p.Remaining
		}

		return c.JSON(SalesChartResponse{
			CompanyID:   companyID,
			Period:      period,
			From:        start.Format("2006-01-02"),
			To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
			Points:      points,
			GrandTotals: grand,
		})
	}
}

// GET /api/dashboard/overview
func OverviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, err := auth.CompanyIDFromContext(c)
		if err != nil {
			return err
		}

		now := time.Now()
		loc := now.Location()
		todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

		var resp OverviewResponse

		database.DB.Model(&models.Sale{}).
			Where("company_id = ? AND status <> ? AND entry_date >= ?", companyID, models.SaleStatusCancelled, todayStart).
			Count(&resp.TodaySalesCount)

		var todayTotal *float64
		database.DB.Model(&models.Sale{}).
			Select("SUM(total)").
			Where("company_id = ? AND status <> ? AND entry_date >= ?", companyID, models.SaleStatusCancelled, todayStart).
			Scan(&todayTotal)
		if todayTotal != nil {
			resp.TodaySalesTotal = *todayTotal
		}

		database.DB.Model(&models.Sale{}).
			Where("company_id = ? AND status = ?", companyID, models.SaleStatusPending).
			Count(&resp.PendingSalesCount)

		var monthTotal *float64
		database.DB.Model(&models.Sale{}).
			Select("SUM(total)").
			Where("company_id = ? AND status <> ? AND entry_date >= ?", companyID, models.SaleStatusCancelled, monthStart).
			Scan(&monthTotal)
		if monthTotal != nil {
			resp.MonthSalesTotal = *monthTotal
		}

		var openBalance *float64
		database.DB.Model(&models.Sale{}).
			Select("SUM(remaining)").
			Where("company_id = ? AND status <> ?", companyID, models.SaleStatusCancelled).
			Scan(&openBalance)
		if openBalance != nil {
			resp.OpenBalanceTotal = *openBalance
		}

		database.DB.Model(&models.InventoryItem{}).
			Where("company_id = ? AND total_stock <= ?", companyID, 2).
			Count(&resp.LowStockCount)

		database.DB.Model(&models.StoreOrder{}).
			Where("company_id = ? AND status = ?", companyID, models.StoreOrderStatusNew).
			Count(&resp.NewStoreOrders)

		database.DB.Model(&models.Customer{}).
			Where("company_id = ?", companyID).
			Count(&resp.CustomerCount)

		return c.JSON(resp)
	}
}

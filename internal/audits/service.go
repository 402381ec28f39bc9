package audits

import (
	"fmt"
	"time"

	"optik-backend/internal/database"
	"optik-backend/internal/models"
)

// FinancialSummary: Audit penceresi için dönem özeti. includeExpenses
// işaretliyse fatura ve maaş ödemeleri satış cirosundan düşülür.
type FinancialSummary struct {
	SalesTotal    float64 `json:"sales_total"`
	BillsTotal    float64 `json:"bills_total"`
	SalariesTotal float64 `json:"salaries_total"`
	ExpensesTotal float64 `json:"expenses_total"`
	NetResult     float64 `json:"net_result"` // kar(+) / zarar(-)
}

// periodRange: Legacy "period" parametresini istek anına çapalanmış bir
// tarih aralığına çevirir. "all" (veya boş) filtre yok demektir.
func periodRange(period string, now time.Time) (time.Time, time.Time, bool, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	switch period {
	case "", "all":
		return time.Time{}, time.Time{}, false, nil
	case "week":
		return end.AddDate(0, 0, -7), end, true, nil
	case "month":
		return end.AddDate(0, -1, 0), end, true, nil
	case "year":
		return end.AddDate(-1, 0, 0), end, true, nil
	default:
		return time.Time{}, time.Time{}, false, fmt.Errorf("geçersiz period: %q (week|month|year|all)", period)
	}
}

// buildFinancialSummary: Pencere içindeki satış toplamını ve (istenirse)
// fatura + maaş giderlerini toplar. Saklanan satırlardan okuma anında
// hesaplanır, audit üzerine yazılmaz.
func buildFinancialSummary(companyID uint, start, end time.Time, includeExpenses bool) (FinancialSummary, error) {
	var summary FinancialSummary

	var salesTotal *float64
	err := database.DB.Model(&models.Sale{}).
		Where("company_id = ? AND entry_date >= ? AND entry_date <= ?", companyID, start, end).
		Select("SUM(total)").
		Scan(&salesTotal).Error
	if err != nil {
		return summary, err
	}
	if salesTotal != nil {
		summary.SalesTotal = *salesTotal
	}

	if includeExpenses {
		var billsTotal *float64
		err = database.DB.Model(&models.Bill{}).
			Where("company_id = ? AND date >= ? AND date <= ?", companyID, start, end).
			Select("SUM(amount)").
			Scan(&billsTotal).Error
		if err != nil {
			return summary, err
		}
		if billsTotal != nil {
			summary.BillsTotal = *billsTotal
		}

		var salariesTotal *float64
		err = database.DB.Model(&models.SalaryPayment{}).
			Where("company_id = ? AND date >= ? AND date <= ?", companyID, start, end).
			Select("SUM(amount)").
			Scan(&salariesTotal).Error
		if err != nil {
			return summary, err
		}
		if salariesTotal != nil {
			summary.SalariesTotal = *salariesTotal
		}
	}

	summary.ExpensesTotal = summary.BillsTotal + summary.SalariesTotal
	summary.NetResult = summary.SalesTotal - summary.ExpensesTotal
	return summary, nil
}

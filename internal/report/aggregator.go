package report

import (
	"context"
	"math"
	"time"

	"lokanta-backend/internal/inventory"
	"lokanta-backend/internal/models"

	"gorm.io/gorm"
)

// DailySalesSummary: bir UTC takvim günü için satış özeti. Her istekte
// sipariş geçmişinden yeniden hesaplanır, hiçbir yerde saklanmaz.
type DailySalesSummary struct {
	Date              string  `json:"date"`
	TotalOrders       int     `json:"total_orders"`
	CompletedOrders   int     `json:"completed_orders"`
	PendingOrders     int     `json:"pending_orders"`
	GrossRevenue      float64 `json:"gross_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// Aggregator: salt okunur raporlama. Kilit almaz, yazarları bloklamaz;
// commit edilmiş durumun anlık görüntüsü raporlama için yeterlidir.
type Aggregator struct {
	db     *gorm.DB
	ledger *inventory.Ledger
}

func NewAggregator(db *gorm.DB, ledger *inventory.Ledger) *Aggregator {
	return &Aggregator{db: db, ledger: ledger}
}

// DailySales: verilen günün (UTC, [00:00, +24s)) siparişlerini özetler.
// Ciro yalnızca completed siparişler üzerinden hesaplanır; completed sipariş
// yoksa ortalama 0'dır, sıfıra bölme oluşmaz.
func (a *Aggregator) DailySales(ctx context.Context, day time.Time) (*DailySalesSummary, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var row struct {
		TotalOrders     int
		CompletedOrders int
		PendingOrders   int
		GrossRevenue    float64
	}
	err := a.db.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_orders, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_orders, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN total_amount ELSE 0 END), 0) AS gross_revenue",
			models.OrderStatusCompleted, models.OrderStatusPending, models.OrderStatusCompleted).
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	average := 0.0
	if row.CompletedOrders > 0 {
		average = row.GrossRevenue / float64(row.CompletedOrders)
	}

	return &DailySalesSummary{
		Date:              start.Format("2006-01-02"),
		TotalOrders:       row.TotalOrders,
		CompletedOrders:   row.CompletedOrders,
		PendingOrders:     row.PendingOrders,
		GrossRevenue:      round2(row.GrossRevenue),
		AverageOrderValue: round2(average),
	}, nil
}

// StockAlerts: eşik taramasını stok defterine devreder. buffer negatifse
// InvalidRequest, belirtilmemişse çağıran taraf 0 geçer.
func (a *Aggregator) StockAlerts(ctx context.Context, buffer int) ([]inventory.StockAlert, error) {
	return a.ledger.AlertsBelow(ctx, buffer)
}

// kuruşa yuvarla
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

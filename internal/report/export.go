package report

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/reports/daily-sales/export?date=2025-12-09
// Günlük satış özetini Excel dosyası olarak indirir.
func DailySalesExportHandler(agg *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		day := time.Now().UTC()
		if dateStr := c.Query("date"); dateStr != "" {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date formatı 'YYYY-MM-DD' olmalı")
			}
			day = parsed
		}

		summary, err := agg.DailySales(c.Context(), day)
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		rows := [][]any{
			{"Tarih", summary.Date},
			{"Toplam Sipariş", summary.TotalOrders},
			{"Tamamlanan Sipariş", summary.CompletedOrders},
			{"Bekleyen Sipariş", summary.PendingOrders},
			{"Brüt Ciro", summary.GrossRevenue},
			{"Ortalama Sipariş Tutarı", summary.AverageOrderValue},
		}
		for i, row := range rows {
			cell := fmt.Sprintf("A%d", i+1)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Excel satırı yazılamadı")
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="gunluk-satis-%s.xlsx"`, summary.Date))
		return c.Send(buf.Bytes())
	}
}

package report

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// GET /api/reports/daily-sales?date=2025-12-09
// date verilmezse bugünün UTC tarihi kullanılır.
func DailySalesHandler(agg *Aggregator) fiber.Handler {
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

		return c.JSON(fiber.Map{
			"summary":      summary,
			"generated_at": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// GET /api/reports/stock-alerts?buffer=2
// buffer verilmezse 0 kabul edilir.
func StockAlertsHandler(agg *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		buffer := 0
		if bufferStr := c.Query("buffer"); bufferStr != "" {
			parsed, err := strconv.Atoi(bufferStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "buffer geçersiz")
			}
			buffer = parsed
		}

		alerts, err := agg.StockAlerts(c.Context(), buffer)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"alerts":       alerts,
			"generated_at": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

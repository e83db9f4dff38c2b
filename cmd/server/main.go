package main

import (
	"errors"
	"log"
	"strings"

	"lokanta-backend/internal/apperr"
	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/config"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/inventory"
	"lokanta-backend/internal/menu"
	"lokanta-backend/internal/order"
	"lokanta-backend/internal/report"
	"lokanta-backend/internal/reservation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	ledger := inventory.NewLedger(db)
	processor := order.NewProcessor(db, ledger)
	validator := reservation.NewValidator(db)
	aggregator := report.NewAggregator(db, ledger)
	logs := audit.NewService(db)

	api := app.Group("/api")

	// Menü yönetimi
	api.Get("/menu", menu.ListMenuItemsHandler(db))
	api.Post("/menu", menu.CreateMenuItemHandler(db, logs))
	api.Put("/menu/:id", menu.UpdateMenuItemHandler(db, logs))
	api.Delete("/menu/:id", menu.DeleteMenuItemHandler(db, logs))

	// Stok
	api.Get("/stock", inventory.ListStockHandler(db))
	api.Put("/stock/:menu_item_id", inventory.UpsertStockHandler(db, logs))

	// Siparişler
	api.Post("/orders", order.CreateOrderHandler(processor, logs))
	api.Get("/orders", order.ListOrdersHandler(processor))
	api.Get("/orders/:id", order.GetOrderHandler(processor))
	api.Post("/orders/:id/cancel", order.CancelOrderHandler(processor, logs))
	api.Post("/orders/:id/complete", order.CompleteOrderHandler(processor, logs))

	// Masalar & rezervasyonlar
	api.Get("/tables", reservation.ListTablesHandler(db))
	api.Post("/tables", reservation.CreateTableHandler(db, logs))
	api.Get("/reservations", reservation.ListReservationsHandler(validator))
	api.Post("/reservations", reservation.CreateReservationHandler(validator, logs))
	api.Post("/reservations/:id/cancel", reservation.CancelReservationHandler(validator, logs))

	// Raporlar
	api.Get("/reports/daily-sales", report.DailySalesHandler(aggregator))
	api.Get("/reports/daily-sales/export", report.DailySalesExportHandler(aggregator))
	api.Get("/reports/stock-alerts", report.StockAlertsHandler(aggregator))

	// Audit logs
	api.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

// errorHandler: sınıflandırılmış çekirdek hatalarını yapılandırılmış gövdeyle,
// fiber hatalarını kendi koduyla döndürür; kalanı loglayıp 500 yapar.
func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := fiber.Map{
			"error":   appErr.Kind,
			"message": appErr.Message,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		return c.Status(apperr.HTTPStatus(appErr.Kind)).JSON(body)
	}

	// Handler seviyesindeki fiber.NewError çağrıları da sınıf etiketi alır
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := "Internal"
		switch fiberErr.Code {
		case fiber.StatusBadRequest:
			kind = string(apperr.KindInvalidRequest)
		case fiber.StatusNotFound:
			kind = string(apperr.KindNotFound)
		}
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error":   kind,
			"message": fiberErr.Message,
		})
	}

	log.Println("Beklenmeyen hata:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal",
		"message": "Beklenmeyen sunucu hatası",
	})
}

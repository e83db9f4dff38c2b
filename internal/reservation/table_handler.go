package reservation

import (
	"fmt"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateTableRequest struct {
	Number int `json:"number"`
	Seats  int `json:"seats"`
}

type TableResponse struct {
	ID       uint `json:"id"`
	Number   int  `json:"number"`
	Seats    int  `json:"seats"`
	IsActive bool `json:"is_active"`
}

// GET /api/tables
// Sadece aktif masalar, numaraya göre sıralı.
func ListTablesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tables []models.Table
		if err := db.Where("is_active = ?", true).Order("number ASC").Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masalar listelenemedi")
		}

		resp := make([]TableResponse, 0, len(tables))
		for _, t := range tables {
			resp = append(resp, TableResponse{ID: t.ID, Number: t.Number, Seats: t.Seats, IsActive: t.IsActive})
		}
		return c.JSON(resp)
	}
}

// POST /api/tables
func CreateTableHandler(db *gorm.DB, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Number <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "number pozitif olmalı")
		}
		if body.Seats <= 0 {
			body.Seats = 4
		}

		var existing models.Table
		if err := db.Where("number = ?", body.Number).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Masa numarası zaten kullanılıyor: %d", body.Number))
		}

		table := models.Table{Number: body.Number, Seats: body.Seats, IsActive: true}
		if err := db.Create(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa oluşturulamadı")
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "dining_table",
			EntityID:    table.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Masa oluşturuldu: %d (%d kişilik)", table.Number, table.Seats),
			After:       table,
		})

		return c.Status(fiber.StatusCreated).JSON(TableResponse{
			ID: table.ID, Number: table.Number, Seats: table.Seats, IsActive: table.IsActive,
		})
	}
}

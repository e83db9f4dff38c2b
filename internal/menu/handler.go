package menu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MenuItemResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

type CreateMenuItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`  // başlangıç stoğu (opsiyonel)
	Threshold   *int    `json:"threshold"` // uyarı eşiği (varsayılan 5)
}

type UpdateMenuItemRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	IsAvailable *bool    `json:"is_available"`
}

func toResponse(m *models.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		IsAvailable: m.IsAvailable,
	}
}

// GET /api/menu
func ListMenuItemsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var items []models.MenuItem
		if err := db.Order("name ASC").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü listelenemedi")
		}

		resp := make([]MenuItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toResponse(&items[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/menu
// Menü ürünüyle birlikte stok kaydı da açılır; böylece her ürünün stok satırı
// baştan var olur ve sipariş akışı ayrıca kayıt oluşturmak zorunda kalmaz.
func CreateMenuItemHandler(db *gorm.DB, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Description = strings.TrimSpace(body.Description)

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunlu")
		}
		if body.Price <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price sıfırdan büyük olmalı")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity negatif olamaz")
		}
		if body.Threshold != nil && *body.Threshold < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "threshold negatif olamaz")
		}

		var existing models.MenuItem
		if err := db.Where("name = ?", body.Name).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu isimde bir menü ürünü zaten var")
		}

		threshold := 5
		if body.Threshold != nil {
			threshold = *body.Threshold
		}

		item := models.MenuItem{
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
			IsAvailable: true,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			stock := models.StockRecord{
				MenuItemID: item.ID,
				Quantity:   body.Quantity,
				Threshold:  threshold,
			}
			return tx.Create(&stock).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü oluşturulamadı")
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "menu_item",
			EntityID:    item.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Menü ürünü oluşturuldu: %s (%.2f)", item.Name, item.Price),
			After:       item,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(&item))
	}
}

// PUT /api/menu/:id
func UpdateMenuItemHandler(db *gorm.DB, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || itemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID geçersiz")
		}

		var body UpdateMenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var item models.MenuItem
		if err := db.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Menü ürünü bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü okunamadı")
		}
		before := item

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			item.Name = name
		}
		if body.Description != nil {
			item.Description = strings.TrimSpace(*body.Description)
		}
		if body.Price != nil {
			if *body.Price <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "price sıfırdan büyük olmalı")
			}
			item.Price = *body.Price
		}
		if body.IsAvailable != nil {
			item.IsAvailable = *body.IsAvailable
		}

		if err := db.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü güncellenemedi")
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "menu_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Menü ürünü güncellendi: %s", item.Name),
			Before:      before,
			After:       item,
		})

		return c.JSON(toResponse(&item))
	}
}

// DELETE /api/menu/:id
// Sipariş kalemi referans veren ürün silinemez; satıştan kaldırmak için
// is_available=false kullanılmalı.
func DeleteMenuItemHandler(db *gorm.DB, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		itemID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || itemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID geçersiz")
		}

		var item models.MenuItem
		if err := db.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Menü ürünü bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü okunamadı")
		}

		// Referans kontrolü silmeyle aynı transaction'da yapılır; kontrol ile
		// silme arasında onaylanan bir sipariş sahipsiz kalem bırakamaz
		err = db.Transaction(func(tx *gorm.DB) error {
			var lineCount int64
			if err := tx.Model(&models.OrderLine{}).Where("menu_item_id = ?", itemID).Count(&lineCount).Error; err != nil {
				return err
			}
			if lineCount > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Sipariş geçmişi olan ürün silinemez, satıştan kaldırın")
			}
			if err := tx.Where("menu_item_id = ?", itemID).Delete(&models.StockRecord{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.MenuItem{}, "id = ?", itemID).Error
		})
		if err != nil {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return err
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü silinemedi")
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "menu_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Menü ürünü silindi: %s", item.Name),
			Before:      item,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpsertStockRequest struct {
	Quantity  *int `json:"quantity"`
	Threshold *int `json:"threshold"`
}

type StockResponse struct {
	MenuItemID uint   `json:"menu_item_id"`
	MenuItem   string `json:"menu_item"`
	Quantity   int    `json:"quantity"`
	Threshold  int    `json:"threshold"`
	UpdatedAt  string `json:"updated_at"`
}

// PUT /api/stock/:menu_item_id
// Yönetim restoğu: miktar ve/veya eşik doğrudan set edilir. Sipariş akışının
// düşüm/iade yolundan bağımsızdır, yalnızca yönetim ekranları kullanır.
func UpsertStockHandler(db *gorm.DB, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parsed, err := strconv.ParseUint(c.Params("menu_item_id"), 10, 32)
		if err != nil || parsed == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "menu_item_id geçersiz")
		}
		menuItemID := uint(parsed)

		var body UpsertStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Quantity == nil && body.Threshold == nil {
			return fiber.NewError(fiber.StatusBadRequest, "quantity veya threshold zorunlu")
		}
		if body.Quantity != nil && *body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity negatif olamaz")
		}
		if body.Threshold != nil && *body.Threshold < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "threshold negatif olamaz")
		}

		var item models.MenuItem
		if err := db.First(&item, "id = ?", menuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Menü ürünü bulunamadı (ID: %d)", menuItemID))
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü okunamadı")
		}

		var rec models.StockRecord
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("menu_item_id = ?", menuItemID).First(&rec).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				rec = models.StockRecord{MenuItemID: menuItemID, Threshold: 5}
			}
			before := rec

			if body.Quantity != nil {
				rec.Quantity = *body.Quantity
			}
			if body.Threshold != nil {
				rec.Threshold = *body.Threshold
			}
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}

			_ = logs.Write(audit.LogOptions{
				EntityType:  "stock_record",
				EntityID:    rec.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Stok güncellendi: %s → %d adet (eşik %d)", item.Name, rec.Quantity, rec.Threshold),
				Before:      before,
				After:       rec,
			})
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kaydı güncellenemedi")
		}

		return c.JSON(StockResponse{
			MenuItemID: rec.MenuItemID,
			MenuItem:   item.Name,
			Quantity:   rec.Quantity,
			Threshold:  rec.Threshold,
			UpdatedAt:  rec.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/stock
// Mevcut stok durumu, ürün adına göre sıralı.
func ListStockHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var records []models.StockRecord
		if err := db.Preload("MenuItem").Find(&records).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kayıtları listelenemedi")
		}

		resp := make([]StockResponse, 0, len(records))
		for _, rec := range records {
			resp = append(resp, StockResponse{
				MenuItemID: rec.MenuItemID,
				MenuItem:   rec.MenuItem.Name,
				Quantity:   rec.Quantity,
				Threshold:  rec.Threshold,
				UpdatedAt:  rec.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		sort.Slice(resp, func(i, j int) bool {
			return resp[i].MenuItem < resp[j].MenuItem
		})

		return c.JSON(resp)
	}
}

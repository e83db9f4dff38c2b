package order

import (
	"context"
	"errors"
	"fmt"

	"lokanta-backend/internal/apperr"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/inventory"
	"lokanta-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LineRequest: sipariş isteğindeki tek kalem.
type LineRequest struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

// Processor: sipariş oluşturma ve durum geçişlerinin tek sahibi. Stok düşümü
// yalnızca buradan tetiklenir; düşüm ile sipariş kaydı aynı transaction'da
// yapılır, biri başarısız olursa ikisi de geri alınır.
type Processor struct {
	db     *gorm.DB
	ledger *inventory.Ledger
}

func NewProcessor(db *gorm.DB, ledger *inventory.Ledger) *Processor {
	return &Processor{db: db, ledger: ledger}
}

// CreateOrder: doğrulama sırası şöyledir: kalemler boş/negatif mi, menü
// ürünleri satışta mı, sonra mükerrer kalemler birleştirilip batch halinde
// stok düşümü. İlk hatada kesilir; stok yetersizse sipariş satırı oluşmaz.
func (p *Processor) CreateOrder(ctx context.Context, lines []LineRequest) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, apperr.New(apperr.KindInvalidRequest, "En az bir sipariş kalemi gerekli")
	}
	for _, l := range lines {
		if l.MenuItemID == 0 {
			return nil, apperr.New(apperr.KindInvalidRequest, "menu_item_id zorunlu")
		}
		if l.Quantity <= 0 {
			return nil, apperr.WithDetails(apperr.KindInvalidRequest,
				"Kalem miktarı pozitif olmalı",
				map[string]any{"menu_item_id": l.MenuItemID, "quantity": l.Quantity})
		}
	}

	// Mükerrer menü ürünleri birleştirilir (miktarlar toplanır), giriş sırası korunur
	merged := make([]LineRequest, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.MenuItemID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.MenuItemID] = len(merged)
		merged = append(merged, l)
	}

	// Menü kontrolü: ürün mevcut ve satışta mı?
	items := make(map[uint]models.MenuItem, len(merged))
	for _, l := range merged {
		var mi models.MenuItem
		if err := p.db.WithContext(ctx).First(&mi, "id = ?", l.MenuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.WithDetails(apperr.KindMenuItemUnavailable,
					fmt.Sprintf("Menü ürünü bulunamadı (ID: %d)", l.MenuItemID),
					map[string]any{"menu_item_id": l.MenuItemID})
			}
			return nil, err
		}
		if !mi.IsAvailable {
			return nil, apperr.WithDetails(apperr.KindMenuItemUnavailable,
				fmt.Sprintf("Menü ürünü satışta değil: %s", mi.Name),
				map[string]any{"menu_item_id": mi.ID})
		}
		items[l.MenuItemID] = mi
	}

	batch := make([]inventory.LineQuantity, 0, len(merged))
	for _, l := range merged {
		batch = append(batch, inventory.LineQuantity{MenuItemID: l.MenuItemID, Quantity: l.Quantity})
	}

	var order models.Order
	err := database.WithRetry(ctx, func() error {
		return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := p.ledger.DeductTx(tx, batch); err != nil {
				return err
			}

			total := 0.0
			orderLines := make([]models.OrderLine, 0, len(merged))
			for _, l := range merged {
				mi := items[l.MenuItemID]
				total += mi.Price * float64(l.Quantity)
				orderLines = append(orderLines, models.OrderLine{
					MenuItemID: mi.ID,
					Quantity:   l.Quantity,
					UnitPrice:  mi.Price, // sipariş anındaki fiyat
				})
			}

			order = models.Order{
				Code:        uuid.NewString(),
				Status:      models.OrderStatusConfirmed,
				TotalAmount: total,
				Lines:       orderLines,
			}
			return tx.Create(&order).Error
		})
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// CancelOrder: yalnızca pending/confirmed durumdan izinlidir. Durum geçişi
// koşullu UPDATE ile yapılır; iki eşzamanlı iptal aynı stoku iki kez iade
// edemez. İade ve durum değişikliği aynı transaction'dadır.
func (p *Processor) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := database.WithRetry(ctx, func() error {
		return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Preload("Lines").First(&order, "id = ?", orderID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.WithDetails(apperr.KindNotFound,
						fmt.Sprintf("Sipariş bulunamadı (ID: %d)", orderID),
						map[string]any{"order_id": orderID})
				}
				return err
			}

			res := tx.Model(&models.Order{}).
				Where("id = ? AND status IN ?", orderID,
					[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed}).
				Update("status", models.OrderStatusCancelled)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.WithDetails(apperr.KindInvalidTransition,
					fmt.Sprintf("%s durumundaki sipariş iptal edilemez", order.Status),
					map[string]any{"order_id": orderID, "status": string(order.Status)})
			}

			items := make([]inventory.LineQuantity, 0, len(order.Lines))
			for _, ln := range order.Lines {
				items = append(items, inventory.LineQuantity{MenuItemID: ln.MenuItemID, Quantity: ln.Quantity})
			}
			if err := p.ledger.ReleaseTx(tx, items); err != nil {
				return err
			}

			order.Status = models.OrderStatusCancelled
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CompleteOrder: mutfak/servis tarafı siparişi teslim ettiğinde çağrılır.
// Yalnızca confirmed → completed geçişi izinlidir; completed son durumdur.
func (p *Processor) CompleteOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := database.WithRetry(ctx, func() error {
		return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.WithDetails(apperr.KindNotFound,
						fmt.Sprintf("Sipariş bulunamadı (ID: %d)", orderID),
						map[string]any{"order_id": orderID})
				}
				return err
			}

			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", orderID, models.OrderStatusConfirmed).
				Update("status", models.OrderStatusCompleted)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.WithDetails(apperr.KindInvalidTransition,
					fmt.Sprintf("%s durumundaki sipariş tamamlanamaz", order.Status),
					map[string]any{"order_id": orderID, "status": string(order.Status)})
			}

			order.Status = models.OrderStatusCompleted
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder: kalemleri ve menü ürünleriyle birlikte tek sipariş.
func (p *Processor) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := p.db.WithContext(ctx).
		Preload("Lines.MenuItem").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithDetails(apperr.KindNotFound,
				fmt.Sprintf("Sipariş bulunamadı (ID: %d)", orderID),
				map[string]any{"order_id": orderID})
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders: en yeni sipariş en üstte.
func (p *Processor) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := p.db.WithContext(ctx).
		Preload("Lines.MenuItem").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

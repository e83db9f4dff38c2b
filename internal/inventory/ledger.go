package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"lokanta-backend/internal/apperr"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"gorm.io/gorm"
)

// LineQuantity: düşüm veya iade batch'indeki tek kalem.
type LineQuantity struct {
	MenuItemID uint
	Quantity   int
}

// StockAlert: eşiğin altına inen (veya buffer kadar yaklaşan) ürün.
type StockAlert struct {
	MenuItemID uint   `json:"menu_item_id"`
	MenuItem   string `json:"menu_item"`
	Quantity   int    `json:"quantity"`
	Threshold  int    `json:"threshold"`
	Deficit    int    `json:"deficit"` // max(0, threshold - quantity)
}

// Ledger: stok kayıtlarının tek yetkili yazarı. Düşüm yalnızca sipariş
// işleyicisi üzerinden, iade yalnızca iptal üzerinden gelir.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// ReserveAndDeduct: batch'teki tüm miktarları tek atomik işlemde düşer.
// Herhangi bir kalem için stok yetersizse hiçbir kayıt değişmez; başarıda
// güncel kayıtlar döner.
func (l *Ledger) ReserveAndDeduct(ctx context.Context, items []LineQuantity) ([]models.StockRecord, error) {
	var updated []models.StockRecord
	err := database.WithRetry(ctx, func() error {
		return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			updated, err = l.DeductTx(tx, items)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeductTx: düşümü verilen transaction içinde uygular. Sipariş işleyicisi
// sipariş kaydını da aynı atomik birime almak için bunu kullanır; herhangi
// bir hata tüm transaction'ı geri alır.
func (l *Ledger) DeductTx(tx *gorm.DB, items []LineQuantity) ([]models.StockRecord, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindInvalidRequest, "En az bir kalem gerekli")
	}

	updated := make([]models.StockRecord, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperr.WithDetails(apperr.KindInvalidRequest,
				"Miktar pozitif olmalı",
				map[string]any{"menu_item_id": item.MenuItemID, "quantity": item.Quantity})
		}

		// Koşullu UPDATE: miktar yeterliyse düşer, değilse hiçbir satır
		// etkilenmez. Kontrol ve yazma tek statement olduğu için iki eşzamanlı
		// sipariş aynı stoku iki kez düşemez.
		res := tx.Model(&models.StockRecord{}).
			Where("menu_item_id = ? AND quantity >= ?", item.MenuItemID, item.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", item.Quantity))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, deductFailure(tx, item)
		}

		var rec models.StockRecord
		if err := tx.Where("menu_item_id = ?", item.MenuItemID).First(&rec).Error; err != nil {
			return nil, err
		}
		updated = append(updated, rec)
	}
	return updated, nil
}

// deductFailure: düşülemeyen kalem için ayrıntılı hata. Kayıt yoksa NotFound,
// varsa istenen/mevcut miktarları taşıyan InsufficientStock.
func deductFailure(tx *gorm.DB, item LineQuantity) error {
	var rec models.StockRecord
	if err := tx.Where("menu_item_id = ?", item.MenuItemID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.WithDetails(apperr.KindNotFound,
				fmt.Sprintf("Stok kaydı bulunamadı (menü ürünü %d)", item.MenuItemID),
				map[string]any{"menu_item_id": item.MenuItemID})
		}
		return err
	}
	return apperr.WithDetails(apperr.KindInsufficientStock,
		fmt.Sprintf("Yetersiz stok (menü ürünü %d): istenen %d, mevcut %d", item.MenuItemID, item.Quantity, rec.Quantity),
		map[string]any{
			"menu_item_id": item.MenuItemID,
			"requested":    item.Quantity,
			"available":    rec.Quantity,
		})
}

// Release: iptal edilen siparişin düşümünü geri yükler.
func (l *Ledger) Release(ctx context.Context, items []LineQuantity) error {
	return database.WithRetry(ctx, func() error {
		return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return l.ReleaseTx(tx, items)
		})
	})
}

// ReleaseTx: iadeyi verilen transaction içinde uygular. Menü ürününün stok
// kaydı silinmişse NotFound döner ve batch'in tamamı geri alınır.
func (l *Ledger) ReleaseTx(tx *gorm.DB, items []LineQuantity) error {
	if len(items) == 0 {
		return apperr.New(apperr.KindInvalidRequest, "En az bir kalem gerekli")
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			return apperr.WithDetails(apperr.KindInvalidRequest,
				"Miktar pozitif olmalı",
				map[string]any{"menu_item_id": item.MenuItemID, "quantity": item.Quantity})
		}

		res := tx.Model(&models.StockRecord{}).
			Where("menu_item_id = ?", item.MenuItemID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.WithDetails(apperr.KindNotFound,
				fmt.Sprintf("Stok kaydı bulunamadı (menü ürünü %d)", item.MenuItemID),
				map[string]any{"menu_item_id": item.MenuItemID})
		}
	}
	return nil
}

// AlertsBelow: quantity <= threshold + buffer olan tüm kayıtları ürün adına
// göre sıralı döndürür. Salt okunur; yazarları bloklamaz. Negatif miktar veri
// bütünlüğü hatasıdır, uyarı olarak modellenmez.
func (l *Ledger) AlertsBelow(ctx context.Context, buffer int) ([]StockAlert, error) {
	if buffer < 0 {
		return nil, apperr.New(apperr.KindInvalidRequest, "buffer negatif olamaz")
	}

	var records []models.StockRecord
	if err := l.db.WithContext(ctx).
		Preload("MenuItem").
		Where("quantity <= threshold + ?", buffer).
		Find(&records).Error; err != nil {
		return nil, err
	}

	alerts := make([]StockAlert, 0, len(records))
	for _, rec := range records {
		if rec.Quantity < 0 {
			return nil, apperr.WithDetails(apperr.KindServiceUnavailable,
				fmt.Sprintf("Stok kaydı negatif miktarda, veri bütünlüğü bozulmuş (menü ürünü %d)", rec.MenuItemID),
				map[string]any{"menu_item_id": rec.MenuItemID, "quantity": rec.Quantity})
		}
		deficit := rec.Threshold - rec.Quantity
		if deficit < 0 {
			deficit = 0
		}
		alerts = append(alerts, StockAlert{
			MenuItemID: rec.MenuItemID,
			MenuItem:   rec.MenuItem.Name,
			Quantity:   rec.Quantity,
			Threshold:  rec.Threshold,
			Deficit:    deficit,
		})
	}

	// Testlerde deterministik sonuç için ürün adına göre sırala
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].MenuItem < alerts[j].MenuItem
	})

	return alerts, nil
}

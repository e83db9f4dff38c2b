package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lokanta-backend/internal/apperr"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"gorm.io/gorm"
)

// Validator: masa/zaman aralığı çakışma kontrolü ve rezervasyon yazma
// işlemlerinin sahibi. Aynı masaya gelen eşzamanlı istekler masa başına
// kilitle seri hale getirilir; farklı masalar birbirini beklemez.
type Validator struct {
	db *gorm.DB

	mu         sync.Mutex
	tableLocks map[uint]*sync.Mutex
}

func NewValidator(db *gorm.DB) *Validator {
	return &Validator{
		db:         db,
		tableLocks: make(map[uint]*sync.Mutex),
	}
}

func (v *Validator) lockTable(tableID uint) func() {
	v.mu.Lock()
	l, ok := v.tableLocks[tableID]
	if !ok {
		l = &sync.Mutex{}
		v.tableLocks[tableID] = l
	}
	v.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CheckConflict: [start, end) aralığı aynı masadaki aktif rezervasyonlarla
// çakışıyor mu? İki aralık ancak s1 < e2 && s2 < e1 ise çakışır; iptal
// edilmiş rezervasyonlar dikkate alınmaz. Çakışan en erken başlangıçlı
// rezervasyon döner, çakışma yoksa nil.
func (v *Validator) CheckConflict(ctx context.Context, tableID uint, start, end time.Time) (*models.Reservation, error) {
	return checkConflictTx(v.db.WithContext(ctx), tableID, start, end)
}

func checkConflictTx(tx *gorm.DB, tableID uint, start, end time.Time) (*models.Reservation, error) {
	var conflict models.Reservation
	err := tx.
		Where("table_id = ? AND status = ? AND start_time < ? AND end_time > ?",
			tableID, models.ReservationStatusActive, end, start).
		Order("start_time ASC, id ASC").
		First(&conflict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conflict, nil
}

// CreateReservation: start < end şartı, masa kontrolü, çakışma kontrolü ve
// kayıt. Çakışma varsa hiçbir şey yazılmaz.
func (v *Validator) CreateReservation(ctx context.Context, tableID uint, start, end time.Time) (*models.Reservation, error) {
	if tableID == 0 {
		return nil, apperr.New(apperr.KindInvalidRequest, "table_id zorunlu")
	}
	if !start.Before(end) {
		return nil, apperr.New(apperr.KindInvalidRequest, "start_time end_time'dan önce olmalı")
	}

	unlock := v.lockTable(tableID)
	defer unlock()

	var res models.Reservation
	err := database.WithRetry(ctx, func() error {
		return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var table models.Table
			if err := tx.First(&table, "id = ?", tableID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.WithDetails(apperr.KindNotFound,
						fmt.Sprintf("Masa bulunamadı (ID: %d)", tableID),
						map[string]any{"table_id": tableID})
				}
				return err
			}
			if !table.IsActive {
				return apperr.WithDetails(apperr.KindInvalidRequest,
					fmt.Sprintf("Masa rezervasyona kapalı (No: %d)", table.Number),
					map[string]any{"table_id": tableID})
			}

			conflict, err := checkConflictTx(tx, tableID, start, end)
			if err != nil {
				return err
			}
			if conflict != nil {
				return apperr.WithDetails(apperr.KindReservationConflict,
					fmt.Sprintf("Masa %d seçilen aralıkta dolu", table.Number),
					map[string]any{"conflicting_reservation_id": conflict.ID})
			}

			res = models.Reservation{
				TableID:   tableID,
				StartTime: start,
				EndTime:   end,
				Status:    models.ReservationStatusActive,
			}
			return tx.Create(&res).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CancelReservation: idempotenttir, iptal edilmiş rezervasyonu tekrar iptal
// etmek hata değildir ve mevcut kayıt aynen döner. Okuma ve durum güncellemesi
// tek transaction içinde, geçici depolama hatalarında tekrar denenerek yapılır.
func (v *Validator) CancelReservation(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	var res models.Reservation
	err := database.WithRetry(ctx, func() error {
		return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&res, "id = ?", reservationID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.WithDetails(apperr.KindNotFound,
						fmt.Sprintf("Rezervasyon bulunamadı (ID: %d)", reservationID),
						map[string]any{"reservation_id": reservationID})
				}
				return err
			}

			if res.Status == models.ReservationStatusCancelled {
				return nil
			}

			if err := tx.Model(&models.Reservation{}).
				Where("id = ?", reservationID).
				Update("status", models.ReservationStatusCancelled).Error; err != nil {
				return err
			}

			res.Status = models.ReservationStatusCancelled
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListReservations: başlangıç zamanına göre sıralı; status filtresi opsiyonel.
func (v *Validator) ListReservations(ctx context.Context, status models.ReservationStatus) ([]models.Reservation, error) {
	dbq := v.db.WithContext(ctx).Preload("Table").Order("start_time ASC, id ASC")
	if status != "" {
		dbq = dbq.Where("status = ?", status)
	}

	var reservations []models.Reservation
	if err := dbq.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

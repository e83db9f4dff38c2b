package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"lokanta-backend/internal/apperr"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedTable(t *testing.T, db *gorm.DB, number int) models.Table {
	t.Helper()

	table := models.Table{Number: number, Seats: 4, IsActive: true}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("masa oluşturulamadı: %v", err)
	}
	return table
}

// 2025-12-09 günü, verilen saat:dakika (UTC)
func at(hour, min int) time.Time {
	return time.Date(2025, 12, 9, hour, min, 0, 0, time.UTC)
}

func TestCheckConflictHalfOpenInterval(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	if _, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0)); err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}

	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"içeriden kesişen aralık", at(10, 30), at(11, 30), true},
		{"mevcut aralığı kapsayan aralık", at(9, 30), at(12, 0), true},
		{"mevcut aralığın içindeki aralık", at(10, 15), at(10, 45), true},
		{"bitiş anında başlayan aralık", at(11, 0), at(12, 0), false},
		{"başlangıç anında biten aralık", at(9, 0), at(10, 0), false},
		{"tamamen ayrık aralık", at(14, 0), at(15, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflict, err := v.CheckConflict(context.Background(), table.ID, tc.start, tc.end)
			if err != nil {
				t.Fatalf("beklenmeyen hata: %v", err)
			}
			if got := conflict != nil; got != tc.conflict {
				t.Errorf("çakışma=%v bekleniyordu, %v döndü", tc.conflict, got)
			}
		})
	}
}

func TestCheckConflictIgnoresCancelled(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	res, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}
	if _, err := v.CancelReservation(context.Background(), res.ID); err != nil {
		t.Fatalf("iptal başarısız: %v", err)
	}

	conflict, err := v.CheckConflict(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("beklenmeyen hata: %v", err)
	}
	if conflict != nil {
		t.Errorf("iptal edilmiş rezervasyon çakışma sayılmamalı: %+v", conflict)
	}
}

func TestCheckConflictOtherTable(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	masa1 := seedTable(t, db, 1)
	masa2 := seedTable(t, db, 2)

	if _, err := v.CreateReservation(context.Background(), masa1.ID, at(10, 0), at(11, 0)); err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}

	conflict, err := v.CheckConflict(context.Background(), masa2.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("beklenmeyen hata: %v", err)
	}
	if conflict != nil {
		t.Errorf("farklı masa çakışma sayılmamalı: %+v", conflict)
	}
}

func TestCheckConflictReturnsEarliestStart(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	if _, err := v.CreateReservation(context.Background(), table.ID, at(12, 0), at(13, 0)); err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}
	first, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}

	// Her ikisiyle de çakışan istek: en erken başlayan döner
	conflict, err := v.CheckConflict(context.Background(), table.ID, at(10, 30), at(12, 30))
	if err != nil {
		t.Fatalf("beklenmeyen hata: %v", err)
	}
	if conflict == nil || conflict.ID != first.ID {
		t.Errorf("en erken başlayan rezervasyon dönmeliydi: %+v", conflict)
	}
}

func TestCreateReservationInvalidTimes(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	if _, err := v.CreateReservation(context.Background(), table.ID, at(11, 0), at(10, 0)); !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("ters aralık InvalidRequest olmalıydı: %v", err)
	}
	if _, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(10, 0)); !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("boş aralık InvalidRequest olmalıydı: %v", err)
	}
	if _, err := v.CreateReservation(context.Background(), 0, at(10, 0), at(11, 0)); !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("sıfır table_id InvalidRequest olmalıydı: %v", err)
	}
}

func TestCreateReservationUnknownTable(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)

	if _, err := v.CreateReservation(context.Background(), 999, at(10, 0), at(11, 0)); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("NotFound bekleniyordu: %v", err)
	}
}

func TestCreateReservationInactiveTable(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)
	if err := db.Model(&models.Table{}).Where("id = ?", table.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("masa kapatılamadı: %v", err)
	}

	if _, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0)); !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("kapalı masa InvalidRequest olmalıydı: %v", err)
	}
}

func TestCreateReservationConflictPersistsNothing(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	existing, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}

	_, err = v.CreateReservation(context.Background(), table.ID, at(10, 30), at(11, 30))
	if !apperr.IsKind(err, apperr.KindReservationConflict) {
		t.Fatalf("ReservationConflict bekleniyordu: %v", err)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("apperr.Error bekleniyordu: %v", err)
	}
	if appErr.Details["conflicting_reservation_id"] != existing.ID {
		t.Errorf("çakışan rezervasyon ID'si yanlış: %v", appErr.Details)
	}

	var count int64
	if err := db.Model(&models.Reservation{}).Count(&count).Error; err != nil {
		t.Fatalf("rezervasyon sayısı okunamadı: %v", err)
	}
	if count != 1 {
		t.Errorf("yeni kayıt yazılmamalıydı, toplam: %d", count)
	}
}

func TestCancelReservationIdempotent(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	res, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}

	first, err := v.CancelReservation(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("ilk iptal başarısız: %v", err)
	}
	if first.Status != models.ReservationStatusCancelled {
		t.Errorf("durum cancelled olmalıydı: %s", first.Status)
	}

	// İkinci iptal hata değildir, kayıt aynen döner
	second, err := v.CancelReservation(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("ikinci iptal hata dönmemeliydi: %v", err)
	}
	if second.Status != models.ReservationStatusCancelled {
		t.Errorf("durum cancelled kalmalıydı: %s", second.Status)
	}
}

func TestCancelReservationRetriesTransientErrors(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	res, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}

	// İlk iki durum güncellemesi geçici hatayla düşer, üçüncü deneme geçer
	failures := 2
	if err := db.Callback().Update().Before("gorm:update").Register("fail_update_twice", func(tx *gorm.DB) {
		if failures > 0 {
			failures--
			tx.AddError(errors.New("database is locked"))
		}
	}); err != nil {
		t.Fatalf("callback kaydedilemedi: %v", err)
	}
	t.Cleanup(func() { _ = db.Callback().Update().Remove("fail_update_twice") })

	cancelled, err := v.CancelReservation(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("iptal tekrar denenerek başarılı olmalıydı: %v", err)
	}
	if cancelled.Status != models.ReservationStatusCancelled {
		t.Errorf("durum cancelled olmalıydı: %s", cancelled.Status)
	}
	if failures != 0 {
		t.Errorf("enjekte edilen hatalar tüketilmeliydi: %d", failures)
	}
}

func TestCancelReservationTransientExhaustion(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	res, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}

	if err := db.Callback().Update().Before("gorm:update").Register("fail_update_always", func(tx *gorm.DB) {
		tx.AddError(errors.New("database is locked"))
	}); err != nil {
		t.Fatalf("callback kaydedilemedi: %v", err)
	}
	t.Cleanup(func() { _ = db.Callback().Update().Remove("fail_update_always") })

	// Denemeler tükenince sınıflandırılmış hata döner, kayıt aktif kalır
	_, err = v.CancelReservation(context.Background(), res.ID)
	if !apperr.IsKind(err, apperr.KindServiceUnavailable) {
		t.Fatalf("ServiceUnavailable bekleniyordu: %v", err)
	}

	var stored models.Reservation
	if err := db.Callback().Update().Remove("fail_update_always"); err != nil {
		t.Fatalf("callback kaldırılamadı: %v", err)
	}
	if err := db.First(&stored, "id = ?", res.ID).Error; err != nil {
		t.Fatalf("rezervasyon okunamadı: %v", err)
	}
	if stored.Status != models.ReservationStatusActive {
		t.Errorf("rezervasyon aktif kalmalıydı: %s", stored.Status)
	}
}

func TestCancelReservationNotFound(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)

	if _, err := v.CancelReservation(context.Background(), 999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("NotFound bekleniyordu: %v", err)
	}
}

func TestCreateReservationConcurrentSameTable(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	const workers = 4
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.CreateReservation(context.Background(), table.ID, at(19, 0), at(21, 0))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case apperr.IsKind(err, apperr.KindReservationConflict):
		default:
			t.Errorf("beklenmeyen hata: %v", err)
		}
	}
	if success != 1 {
		t.Errorf("aynı aralık için tek rezervasyon başarılı olmalıydı: %d", success)
	}

	var count int64
	if err := db.Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusActive).
		Count(&count).Error; err != nil {
		t.Fatalf("rezervasyon sayısı okunamadı: %v", err)
	}
	if count != 1 {
		t.Errorf("tek aktif rezervasyon olmalıydı: %d", count)
	}
}

func TestListReservationsStatusFilter(t *testing.T) {
	db := newTestDB(t)
	v := NewValidator(db)
	table := seedTable(t, db, 1)

	first, err := v.CreateReservation(context.Background(), table.ID, at(10, 0), at(11, 0))
	if err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}
	if _, err := v.CreateReservation(context.Background(), table.ID, at(12, 0), at(13, 0)); err != nil {
		t.Fatalf("rezervasyon oluşturulamadı: %v", err)
	}
	if _, err := v.CancelReservation(context.Background(), first.ID); err != nil {
		t.Fatalf("iptal başarısız: %v", err)
	}

	all, err := v.ListReservations(context.Background(), "")
	if err != nil {
		t.Fatalf("listeleme başarısız: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("2 rezervasyon bekleniyordu: %d", len(all))
	}
	// Başlangıç zamanına göre sıralı
	if len(all) == 2 && all[0].StartTime.After(all[1].StartTime) {
		t.Errorf("liste başlangıç zamanına göre sıralı olmalı")
	}

	active, err := v.ListReservations(context.Background(), models.ReservationStatusActive)
	if err != nil {
		t.Fatalf("listeleme başarısız: %v", err)
	}
	if len(active) != 1 || active[0].Status != models.ReservationStatusActive {
		t.Errorf("1 aktif rezervasyon bekleniyordu: %+v", active)
	}
}

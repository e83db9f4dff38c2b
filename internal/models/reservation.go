package models

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation: Masa rezervasyonu. [StartTime, EndTime) yarı açık aralıktır;
// 18:00'de biten rezervasyon 18:00'de başlayanla çakışmaz. Aynı masadaki iki
// aktif rezervasyonun aralıkları çakışamaz.
type Reservation struct {
	ID        uint `gorm:"primaryKey"`
	TableID   uint `gorm:"index:idx_reservations_table_start;not null"`
	Table     Table
	StartTime time.Time         `gorm:"index:idx_reservations_table_start;not null"`
	EndTime   time.Time         `gorm:"not null"`
	Status    ReservationStatus `gorm:"size:20;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

package models

import "time"

// MenuItem: Menüdeki satılabilir ürün. Fiyat ve açıklama düzenlemeleri
// yönetim tarafından yapılır; sipariş akışı için salt okunur veridir.
type MenuItem struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:200;not null;unique"`
	Description string  `gorm:"size:500"`
	Price       float64 `gorm:"not null"` // birim fiyat
	IsAvailable bool    `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

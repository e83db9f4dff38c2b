package models

import "time"

// Table: Restoran masası. Yönetim tarafından tanımlanan referans veri.
type Table struct {
	ID        uint `gorm:"primaryKey"`
	Number    int  `gorm:"uniqueIndex;not null"`
	Seats     int  `gorm:"not null;default:4"`
	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// "tables" bazı araçlarda sorun çıkardığı için tablo adı açıkça veriliyor.
func (Table) TableName() string { return "dining_tables" }

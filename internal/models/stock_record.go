package models

import "time"

// StockRecord: Her menü ürünü için eldeki stok miktarı ve uyarı eşiği.
// Quantity hiçbir zaman negatif olamaz; düşümler koşullu UPDATE ile yapılır
// ve batch'in tamamı tek transaction içinde uygulanır.
type StockRecord struct {
	ID         uint `gorm:"primaryKey"`
	MenuItemID uint `gorm:"uniqueIndex;not null"`
	MenuItem   MenuItem
	Quantity   int `gorm:"not null;default:0"`
	Threshold  int `gorm:"not null;default:5"` // uyarı eşiği
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

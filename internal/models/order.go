package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order: Sipariş kaydı. TotalAmount sipariş anındaki birim fiyatlarla
// hesaplanır ve onaylandıktan sonra değişmez.
type Order struct {
	ID          uint        `gorm:"primaryKey"`
	Code        string      `gorm:"size:36;uniqueIndex;not null"` // müşteriye gösterilen referans kodu
	Status      OrderStatus `gorm:"size:20;not null;index"`
	TotalAmount float64     `gorm:"not null;default:0"`
	CreatedAt   time.Time   `gorm:"index"`
	UpdatedAt   time.Time

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderLine: Sipariş içindeki her kalem. UnitPrice sipariş anında
// MenuItem.Price'tan kopyalanır, sonraki fiyat düzenlemelerinden etkilenmez.
type OrderLine struct {
	ID         uint `gorm:"primaryKey"`
	OrderID    uint `gorm:"index;not null"`
	MenuItemID uint `gorm:"index;not null"`
	MenuItem   MenuItem
	Quantity   int     `gorm:"not null"`
	UnitPrice  float64 `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

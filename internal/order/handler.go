package order

import (
	"fmt"
	"strconv"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type OrderLineResponse struct {
	MenuItemID   uint    `json:"menu_item_id"`
	MenuItemName string  `json:"menu_item_name,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	LineTotal    float64 `json:"line_total"`
}

type OrderResponse struct {
	ID          uint                `json:"order_id"`
	Code        string              `json:"order_code"`
	Status      models.OrderStatus  `json:"status"`
	TotalAmount float64             `json:"total_amount"`
	CreatedAt   string              `json:"created_at"`
	Lines       []OrderLineResponse `json:"lines,omitempty"`
}

func toOrderResponse(o *models.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, ln := range o.Lines {
		lines = append(lines, OrderLineResponse{
			MenuItemID:   ln.MenuItemID,
			MenuItemName: ln.MenuItem.Name,
			Quantity:     ln.Quantity,
			UnitPrice:    ln.UnitPrice,
			LineTotal:    ln.UnitPrice * float64(ln.Quantity),
		})
	}
	return OrderResponse{
		ID:          o.ID,
		Code:        o.Code,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04:05"),
		Lines:       lines,
	}
}

// POST /api/orders
// Gövde: [{"menu_item_id": 1, "quantity": 2}, ...]
func CreateOrderHandler(proc *Processor, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var lines []LineRequest
		if err := c.BodyParser(&lines); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		order, err := proc.CreateOrder(c.Context(), lines)
		if err != nil {
			return err
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Sipariş oluşturuldu: %s, %.2f", order.Code, order.TotalAmount),
			After:       order,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"order_id":     order.ID,
			"order_code":   order.Code,
			"total_amount": order.TotalAmount,
			"status":       order.Status,
		})
	}
}

// POST /api/orders/:id/cancel
func CancelOrderHandler(proc *Processor, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş ID geçersiz")
		}

		order, err := proc.CancelOrder(c.Context(), uint(orderID))
		if err != nil {
			return err
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionCancel,
			Description: fmt.Sprintf("Sipariş iptal edildi: %s", order.Code),
			After:       order,
		})

		return c.JSON(fiber.Map{
			"order_id": order.ID,
			"status":   order.Status,
		})
	}
}

// POST /api/orders/:id/complete
func CompleteOrderHandler(proc *Processor, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş ID geçersiz")
		}

		order, err := proc.CompleteOrder(c.Context(), uint(orderID))
		if err != nil {
			return err
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionComplete,
			Description: fmt.Sprintf("Sipariş tamamlandı: %s", order.Code),
			After:       order,
		})

		return c.JSON(fiber.Map{
			"order_id": order.ID,
			"status":   order.Status,
		})
	}
}

// GET /api/orders
func ListOrdersHandler(proc *Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := proc.ListOrders(c.Context())
		if err != nil {
			return err
		}

		resp := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/orders/:id
func GetOrderHandler(proc *Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || orderID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş ID geçersiz")
		}

		order, err := proc.GetOrder(c.Context(), uint(orderID))
		if err != nil {
			return err
		}
		return c.JSON(toOrderResponse(order))
	}
}

package reservation

import (
	"fmt"
	"strconv"
	"time"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateReservationRequest struct {
	TableID   uint   `json:"table_id"`
	StartTime string `json:"start_time"` // ISO-8601, ör: "2025-12-09T18:00:00Z"
	EndTime   string `json:"end_time"`
}

type ReservationResponse struct {
	ID          uint                     `json:"reservation_id"`
	TableID     uint                     `json:"table_id"`
	TableNumber int                      `json:"table_number,omitempty"`
	StartTime   string                   `json:"start_time"`
	EndTime     string                   `json:"end_time"`
	Status      models.ReservationStatus `json:"status"`
}

// POST /api/reservations
func CreateReservationHandler(v *Validator, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReservationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		start, err := time.Parse(time.RFC3339, body.StartTime)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_time ISO-8601 formatında olmalı")
		}
		end, err := time.Parse(time.RFC3339, body.EndTime)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_time ISO-8601 formatında olmalı")
		}

		res, err := v.CreateReservation(c.Context(), body.TableID, start, end)
		if err != nil {
			return err
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "reservation",
			EntityID:    res.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Rezervasyon oluşturuldu: masa %d, %s", res.TableID, res.StartTime.Format("2006-01-02 15:04")),
			After:       res,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"reservation_id": res.ID,
			"status":         res.Status,
		})
	}
}

// POST /api/reservations/:id/cancel
func CancelReservationHandler(v *Validator, logs *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reservationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || reservationID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Rezervasyon ID geçersiz")
		}

		res, err := v.CancelReservation(c.Context(), uint(reservationID))
		if err != nil {
			return err
		}

		_ = logs.Write(audit.LogOptions{
			EntityType:  "reservation",
			EntityID:    res.ID,
			Action:      models.AuditActionCancel,
			Description: fmt.Sprintf("Rezervasyon iptal edildi: masa %d", res.TableID),
			After:       res,
		})

		return c.JSON(fiber.Map{
			"reservation_id": res.ID,
			"status":         res.Status,
		})
	}
}

// GET /api/reservations?status=active
func ListReservationsHandler(v *Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := models.ReservationStatus(c.Query("status"))
		if status != "" && status != models.ReservationStatusActive && status != models.ReservationStatusCancelled {
			return fiber.NewError(fiber.StatusBadRequest, "status geçersiz (active/cancelled)")
		}

		reservations, err := v.ListReservations(c.Context(), status)
		if err != nil {
			return err
		}

		resp := make([]ReservationResponse, 0, len(reservations))
		for _, r := range reservations {
			resp = append(resp, ReservationResponse{
				ID:          r.ID,
				TableID:     r.TableID,
				TableNumber: r.Table.Number,
				StartTime:   r.StartTime.Format(time.RFC3339),
				EndTime:     r.EndTime.Format(time.RFC3339),
				Status:      r.Status,
			})
		}
		return c.JSON(resp)
	}
}

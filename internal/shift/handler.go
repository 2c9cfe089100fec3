package shift

import (
	"encoding/json"

	"github.com/smsm300/fox-kiro-v5/internal/audit"
	"github.com/smsm300/fox-kiro-v5/internal/auth"
	"github.com/smsm300/fox-kiro-v5/internal/database"
	"github.com/smsm300/fox-kiro-v5/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type OpenShiftRequest struct {
	StartCash decimal.Decimal `json:"start_cash"`
}

type CloseShiftRequest struct {
	EndCash decimal.Decimal `json:"end_cash"`
}

type ShiftResponse struct {
	ID            uint                       `json:"id"`
	UserID        uint                       `json:"user_id"`
	UserName      string                     `json:"user_name"`
	StartTime     string                     `json:"start_time"`
	StartCash     decimal.Decimal            `json:"start_cash"`
	EndTime       *string                    `json:"end_time,omitempty"`
	EndCash       *decimal.Decimal           `json:"end_cash,omitempty"`
	ExpectedCash  *decimal.Decimal           `json:"expected_cash,omitempty"`
	Discrepancy   *decimal.Decimal           `json:"discrepancy,omitempty"`
	TotalSales    *decimal.Decimal           `json:"total_sales,omitempty"`
	SalesByMethod map[string]decimal.Decimal `json:"sales_by_method,omitempty"`
	Status        models.ShiftStatus         `json:"status"`
}

func toResponse(s *models.Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		UserName:  s.UserName,
		StartTime: s.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		StartCash: s.StartCash,
		EndCash:   s.EndCash,
		Status:    s.Status,
	}
	if s.EndTime != nil {
		t := s.EndTime.Format("2006-01-02T15:04:05Z07:00")
		resp.EndTime = &t
	}
	resp.ExpectedCash = s.ExpectedCash
	resp.TotalSales = s.TotalSales
	if s.EndCash != nil && s.ExpectedCash != nil {
		d := s.EndCash.Sub(*s.ExpectedCash)
		resp.Discrepancy = &d
	}
	if s.SalesByMethod != "" {
		var byMethod map[string]decimal.Decimal
		if err := json.Unmarshal([]byte(s.SalesByMethod), &byMethod); err == nil {
			resp.SalesByMethod = byMethod
		}
	}
	return resp
}

// -------------------------------------------------
// POST /api/shifts/open
// -------------------------------------------------
func OpenHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body OpenShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.StartCash.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "start_cash must not be negative")
		}

		s, err := Open(database.DB, actor.UserID, actor.Name, body.StartCash)
		if err != nil {
			return err
		}

		audit.Record(actor.UserID, actor.Name, "shift_open", "shift", s.ID,
			"shift opened with start cash "+body.StartCash.StringFixed(2))

		return c.Status(fiber.StatusCreated).JSON(toResponse(s))
	}
}

// -------------------------------------------------
// POST /api/shifts/:id/close
// -------------------------------------------------
func CloseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		shiftID, err := c.ParamsInt("id")
		if err != nil || shiftID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid shift id")
		}

		var body CloseShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.EndCash.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "end_cash must not be negative")
		}

		s, rec, err := Close(database.DB, uint(shiftID), body.EndCash)
		if err != nil {
			return err
		}

		audit.Record(actor.UserID, actor.Name, "shift_close", "shift", s.ID,
			"shift closed, expected "+rec.ExpectedCash.StringFixed(2)+
				", counted "+body.EndCash.StringFixed(2))

		return c.JSON(toResponse(s))
	}
}

// -------------------------------------------------
// GET /api/shifts/current
// -------------------------------------------------
func CurrentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		s, err := CurrentForUser(database.DB, actor.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot load shift")
		}
		if s == nil {
			return c.JSON(fiber.Map{"open": false})
		}
		return c.JSON(fiber.Map{"open": true, "shift": toResponse(s)})
	}
}

// -------------------------------------------------
// GET /api/shifts?from=2026-01-01&to=2026-01-31
// -------------------------------------------------
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Shift{})

		if from := c.Query("from"); from != "" {
			dbq = dbq.Where("start_time >= ?", from)
		}
		if to := c.Query("to"); to != "" {
			dbq = dbq.Where("start_time <= ?", to)
		}

		var shifts []models.Shift
		if err := dbq.Order("start_time desc, id desc").Find(&shifts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "cannot list shifts")
		}

		resp := make([]ShiftResponse, 0, len(shifts))
		for i := range shifts {
			resp = append(resp, toResponse(&shifts[i]))
		}
		return c.JSON(resp)
	}
}

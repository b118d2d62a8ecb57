package pass

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"driver-parkmate/internal/auth"
	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/session"
)

type scanRequest struct {
	Payload
	ParkingLotID string `json:"parkingLotId"`
	VehicleType  string `json:"vehicleType"`
}

func RegisterRoutes(r fiber.Router, bridge *Bridge, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req scanRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := bridge.Process(c.Context(), auth.Token(c), req.Payload, req.ParkingLotID, req.VehicleType)
		if err != nil {
			return scanError(err)
		}
		return c.JSON(result)
	})

	r.Post("/reset", authMiddleware, func(c *fiber.Ctx) error {
		bridge.Reset()
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func scanError(err error) error {
	switch {
	case errors.Is(err, ErrScanCoolingDown):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrMalformedPass):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrDuplicateCheckIn):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, backend.ErrBackendUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return fiber.NewError(apiErr.Status, apiErr.Message)
	}
	return err
}

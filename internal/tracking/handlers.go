package tracking

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"driver-parkmate/internal/shared/geo"
)

type fixRequest struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	AccuracyM  float64   `json:"accuracy_m"`
	RecordedAt time.Time `json:"recorded_at"`
}

type failureRequest struct {
	Reason string `json:"reason"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/watch", authMiddleware, func(c *fiber.Ctx) error {
		watch, err := svc.StartWatch()
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(watch)
	})

	r.Delete("/watch", authMiddleware, func(c *fiber.Ctx) error {
		svc.StopWatch()
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var req fixRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "lat/lon out of range")
		}
		accepted := svc.PushFix(geo.Position{Lat: req.Lat, Lon: req.Lon}, req.AccuracyM, req.RecordedAt)
		if !accepted {
			return fiber.NewError(fiber.StatusConflict, "no active watch")
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/errors", authMiddleware, func(c *fiber.Ctx) error {
		var req failureRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Reason == "" {
			return fiber.NewError(fiber.StatusBadRequest, "reason required")
		}
		svc.ReportFailure(req.Reason)
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/position", func(c *fiber.Ctx) error {
		fix := svc.LastFix()
		if fix == nil {
			return fiber.NewError(fiber.StatusNotFound, "no fix yet")
		}
		return c.JSON(fix)
	})
}

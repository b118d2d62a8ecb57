package lots

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"driver-parkmate/internal/shared/geo"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		pos, err := positionFromQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		refreshErr := svc.Refresh(c.Context(), pos)
		snapshot := svc.Snapshot(c.Query("type"))
		if refreshErr != nil && len(snapshot.Lots) == 0 {
			return fiber.NewError(fiber.StatusBadGateway, refreshErr.Error())
		}
		return c.JSON(snapshot)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		pos, err := positionFromQuery(c)
		if err != nil || pos == nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon required")
		}
		k := c.QueryInt("k", 5)
		return c.JSON(svc.Nearest(*pos, k))
	})

	r.Get("/within", func(c *fiber.Ctx) error {
		box, err := boxFromQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(svc.Within(box))
	})
}

func positionFromQuery(c *fiber.Ctx) (*geo.Position, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}
	return &geo.Position{Lat: lat, Lon: lon}, nil
}

func boxFromQuery(c *fiber.Ctx) (geo.BoundingBox, error) {
	var box geo.BoundingBox
	var err error
	fields := []struct {
		name string
		dst  *float64
	}{
		{"min_lat", &box.MinLat},
		{"min_lon", &box.MinLon},
		{"max_lat", &box.MaxLat},
		{"max_lon", &box.MaxLon},
	}
	for _, f := range fields {
		*f.dst, err = strconv.ParseFloat(c.Query(f.name), 64)
		if err != nil {
			return box, fiber.NewError(fiber.StatusBadRequest, f.name+" required")
		}
	}
	return box, nil
}

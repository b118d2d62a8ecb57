package session

import (
	"github.com/gofiber/fiber/v2"

	"driver-parkmate/internal/auth"
)

type sessionResponse struct {
	State     State            `json:"state"`
	Session   *Session         `json:"session,omitempty"`
	FinalBill *CheckoutSummary `json:"final_bill,omitempty"`
}

func RegisterRoutes(r fiber.Router, lc *Lifecycle, api SessionAPI, authMiddleware fiber.Handler) {
	// The first authenticated read adopts any session the backend still has
	// open, so a restarted agent does not show idle over an active visit.
	// A failed rehydrate is not fatal; local state is served as-is.
	//
	// The final bill rides along exactly once after a checkout; a refresh
	// after the driver has seen it shows a plain idle state.
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		if api != nil {
			_ = lc.Rehydrate(c.Context(), api, auth.Token(c))
		}
		return c.JSON(sessionResponse{
			State:     lc.State(),
			Session:   lc.Current(),
			FinalBill: lc.ConsumeFinalBill(),
		})
	})

	r.Get("/bill", authMiddleware, func(c *fiber.Ctx) error {
		bill, ok := lc.Bill()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active parking session")
		}
		return c.JSON(bill)
	})
}

package cloudsync

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, engine *Engine, authMiddleware fiber.Handler) {
	// Manual force-sync: flush the debounce and push right away.
	r.Post("/force", authMiddleware, func(c *fiber.Ctx) error {
		engine.SyncNow()
		return c.JSON(fiber.Map{"in_progress": engine.InProgress()})
	})

	r.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"in_progress": engine.InProgress()})
	})
}

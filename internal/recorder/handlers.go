package recorder

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/icalado/geo-snap-pro/internal/geoloc"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			ProjectID string `json:"project_id"`
		}
		_ = c.BodyParser(&req)

		err := svc.Start(c.Context(), req.ProjectID)
		switch {
		case errors.Is(err, geoloc.ErrUnsupported):
			return fiber.NewError(fiber.StatusNotImplemented, err.Error())
		case errors.Is(err, ErrAlreadyRecording):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(statusPayload(svc))
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Stop(c.Context()); err != nil {
			if errors.Is(err, ErrNotRecording) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(statusPayload(svc))
	})

	r.Post("/photos", authMiddleware, func(c *fiber.Ctx) error {
		var req MarkerInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.URL == "" {
			return fiber.NewError(fiber.StatusBadRequest, "url required")
		}
		marker, err := svc.AddPhotoMarker(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrNoActiveLog) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(marker)
	})

	r.Post("/clear", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Clear(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/wakelock", authMiddleware, func(c *fiber.Ctx) error {
		svc.Reacquire(c.Context())
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(statusPayload(svc))
	})
}

func statusPayload(svc *Service) fiber.Map {
	lastErr := ""
	if err := svc.LastErr(); err != nil {
		lastErr = err.Error()
	}
	return fiber.Map{
		"status":     svc.Status(),
		"recovered":  svc.Recovered(),
		"current":    svc.Current(),
		"log":        svc.Snapshot(),
		"last_error": lastErr,
	}
}

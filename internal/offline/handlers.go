package offline

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/icalado/geo-snap-pro/internal/track"
)

func RegisterRoutes(r fiber.Router, q *Queue, userID string, authMiddleware fiber.Handler) {
	r.Post("/photos", authMiddleware, func(c *fiber.Ctx) error {
		header, err := c.FormFile("photo")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "photo file required")
		}
		f, err := header.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		image, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p := track.PendingPhoto{
			UserID:    userID,
			ProjectID: c.FormValue("project_id"),
			Image:     image,
			Lat:       formFloat(c, "lat"),
			Lon:       formFloat(c, "lon"),
			Note:      c.FormValue("note"),
			TakenAt:   formInt(c, "taken_at"),
		}
		if v := c.FormValue("accuracy_m"); v != "" {
			acc := formFloat(c, "accuracy_m")
			p.AccuracyM = &acc
		}
		if v := c.FormValue("altitude_m"); v != "" {
			alt := formFloat(c, "altitude_m")
			p.AltitudeM = &alt
		}

		if err := q.Capture(c.Context(), p); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		pending, err := q.Pending(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"pending": pending})
	})

	r.Get("/pending", func(c *fiber.Ctx) error {
		pending, err := q.Pending(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"pending": pending, "draining": q.Draining()})
	})

	r.Post("/drain", authMiddleware, func(c *fiber.Ctx) error {
		report, err := q.Drain(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(report)
	})
}

func formFloat(c *fiber.Ctx, key string) float64 {
	v, _ := strconv.ParseFloat(c.FormValue(key), 64)
	return v
}

func formInt(c *fiber.Ctx, key string) int64 {
	v, _ := strconv.ParseInt(c.FormValue(key), 10, 64)
	return v
}

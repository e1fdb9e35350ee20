package export

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/icalado/geo-snap-pro/internal/track"
)

// SnapshotProvider hands the handler a deep copy of the current log.
type SnapshotProvider interface {
	Snapshot() *track.TrackLog
}

func RegisterRoutes(r fiber.Router, logs SnapshotProvider, authMiddleware fiber.Handler) {
	r.Get("/:format", authMiddleware, func(c *fiber.Ctx) error {
		format := Format(c.Params("format"))

		l := logs.Snapshot()
		if l == nil {
			return fiber.NewError(fiber.StatusNotFound, ErrNothingToExport.Error())
		}

		doc, err := Marshal(format, l)
		switch {
		case errors.Is(err, ErrUnknownFormat):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNothingToExport):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		c.Set(fiber.HeaderContentType, ContentType(format))
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="track-%s.%s"`, l.ID, fileExt(format)))
		return c.Send(doc)
	})
}

func fileExt(format Format) string {
	if format == FormatGeoJSON {
		return "geojson"
	}
	return string(format)
}

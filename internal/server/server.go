package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/icalado/geo-snap-pro/internal/auth"
	"github.com/icalado/geo-snap-pro/internal/cloudsync"
	"github.com/icalado/geo-snap-pro/internal/config"
	"github.com/icalado/geo-snap-pro/internal/export"
	"github.com/icalado/geo-snap-pro/internal/offline"
	"github.com/icalado/geo-snap-pro/internal/recorder"
	"github.com/icalado/geo-snap-pro/internal/stream"
)

// Server is the agent's control surface: the HTTP API the companion UI
// drives and the websocket feed it watches.
type Server struct {
	App    *fiber.App
	Cfg    config.Config
	Stream *stream.Hub
}

func NewServer(cfg config.Config, rec *recorder.Service, sync *cloudsync.Engine, queue *offline.Queue, hub *stream.Hub) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		Stream: hub,
	}

	registerRoutes(s, rec, sync, queue)
	return s
}

func registerRoutes(s *Server, rec *recorder.Service, sync *cloudsync.Engine, queue *offline.Queue) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.DeviceAuth(s.Cfg.JWTSecret, s.Cfg.UserID)

	recorder.RegisterRoutes(s.App.Group("/tracking"), rec, jwtMiddleware)
	cloudsync.RegisterRoutes(s.App.Group("/sync"), sync, jwtMiddleware)
	offline.RegisterRoutes(s.App.Group("/offline"), queue, s.Cfg.UserID, jwtMiddleware)
	export.RegisterRoutes(s.App.Group("/export"), rec, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

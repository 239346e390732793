// Package server is the thin HTTP boundary over the pipeline: route
// registration, parameter shape checks, and the mapping of error kinds to
// transport status codes. No scraping or decoding logic lives here.
package server

import (
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"anistream/internal/pipeline"
)

// Handler carries the service the routes delegate to.
type Handler struct {
	svc pipeline.Service
	log *log.Logger
}

// NewHandler creates the route handler set.
func NewHandler(svc pipeline.Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{svc: svc, log: logger}
}

// New builds the Fiber app with all routes registered.
func New(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "anistream",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/", h.Index)
	app.Get("/healthz", h.Health)
	app.Get("/search", h.Search)
	app.Get("/popular", h.Popular)
	app.Get("/latest", h.Latest)
	app.Get("/info/:anime_id", h.Info)
	app.Get("/episodes/:anime_id", h.Episodes)
	app.Get("/servers/:episode_id", h.Servers)
	app.Get("/watch/:episode_id", h.Watch)

	return app
}

// Index lists the available endpoints.
func (h *Handler) Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"api": "anistream",
		"endpoints": []string{
			"GET /search?q=boruto&page=1",
			"GET /popular?page=1",
			"GET /latest?page=1",
			"GET /info/{anime_id}",
			"GET /episodes/{anime_id}",
			"GET /servers/{episode_id}",
			"GET /watch/{episode_id}?server=HD-1&type=sub",
		},
	})
}

// Health is the liveness probe.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

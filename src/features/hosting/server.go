package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/features/changeset"
	"tomekeeper/src/features/config"
	"tomekeeper/src/features/jobs"
	"tomekeeper/src/features/metrics"
	"tomekeeper/src/features/pushing"
	"tomekeeper/src/features/reconciling"
	"tomekeeper/src/features/renaming"
	"tomekeeper/src/features/scanning"
	"tomekeeper/src/features/writing"
	"tomekeeper/src/infra/tag"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server with every feature's routes mounted.
func NewServer(
	cfg *config.Manager,
	scanningService *scanning.Service,
	reconcilingService *reconciling.Service,
	writingService *writing.Service,
	renamingService *renaming.Service,
	pushingService *pushing.Service,
	jobService *jobs.Service,
	inspector *tag.Reader,
) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Tomekeeper",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/inspect", func(c *fiber.Ctx) error {
		path := c.Query("path")
		if path == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path query parameter is required"})
		}
		inspection, err := inspector.Inspect(c.Context(), path)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(inspection)
	})

	config.RegisterRoutes(app, cfg)
	jobs.RegisterRoutes(app, jobService)
	metrics.RegisterRoutes(app)
	scanning.RegisterRoutes(app, scanningService, jobService)
	reconciling.RegisterRoutes(app, reconcilingService, scanningService)
	changeset.RegisterRoutes(app, cfg, scanningService)
	writing.RegisterRoutes(app, writingService, jobService, scanningService, renamingService)
	renaming.RegisterRoutes(app, renamingService, scanningService)
	pushing.RegisterRoutes(app, pushingService, jobService)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

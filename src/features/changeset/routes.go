package changeset

import (
	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/features/config"
)

// RegisterRoutes registers the routes for the changeset feature.
func RegisterRoutes(app *fiber.App, cfg *config.Manager, groups GroupSource) {
	handler := NewHandler(cfg, groups)

	app.Post("/changes/:id", handler.HandleComputeChanges)
}

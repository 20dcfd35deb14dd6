package renaming

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the routes for the renaming feature.
func RegisterRoutes(app *fiber.App, service *Service, groups GroupSource) {
	handler := NewHandler(service, groups)

	app.Post("/rename/preview", handler.HandlePreviewPath)
	app.Post("/rename/:id/preview", handler.HandlePreview)
	app.Post("/rename/:id/apply", handler.HandleApply)
}

package reconciling

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the routes for the reconciling feature.
func RegisterRoutes(app *fiber.App, service *Service, groups GroupSource) {
	handler := NewHandler(service, groups)

	app.Post("/reconcile/:id", handler.HandleReconcile)
	app.Get("/cache", handler.HandleCacheStatus)
	app.Delete("/cache", handler.HandleCacheClear)
}

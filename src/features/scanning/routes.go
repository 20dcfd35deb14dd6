package scanning

import (
	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/features/jobs"
)

// RegisterRoutes registers the routes for the scanning feature.
func RegisterRoutes(app *fiber.App, service *Service, jobService jobs.JobService) {
	handler := NewHandler(service, jobService)

	app.Post("/scan", handler.HandleScan)
	app.Post("/jobs/scan", handler.HandleScanJob)
	app.Get("/groups", handler.HandleGroups)
	app.Get("/groups/:id", handler.HandleGroup)
}

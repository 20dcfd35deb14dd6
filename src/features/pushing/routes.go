package pushing

import (
	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/features/jobs"
)

// RegisterRoutes registers the routes for the pushing feature.
func RegisterRoutes(app *fiber.App, service *Service, jobService jobs.JobService) {
	handler := NewHandler(service, jobService)

	app.Post("/push", handler.HandlePush)
	app.Post("/jobs/push", handler.HandlePushJob)
	app.Post("/push/test", handler.HandleTestConnection)
	app.Post("/push/rescan", handler.HandleRescan)
	app.Post("/push/normalize-genres", handler.HandleNormalizeGenres)
}

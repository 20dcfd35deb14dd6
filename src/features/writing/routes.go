package writing

import (
	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/features/jobs"
)

// RegisterRoutes registers the routes for the writing feature.
func RegisterRoutes(app *fiber.App, service *Service, jobService jobs.JobService, groups GroupSource, renamer Renamer) {
	handler := NewHandler(service, jobService, groups, renamer)

	app.Post("/write", handler.HandleWrite)
	app.Post("/write-rename/:id", handler.HandleWriteAndRename)
	app.Post("/jobs/write", handler.HandleWriteJob)
}

package scanning

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/features/jobs"
)

// Handler is the handler for the scanning feature.
type Handler struct {
	service    *Service
	jobService jobs.JobService
}

// NewHandler creates a new handler for the scanning feature.
func NewHandler(service *Service, jobService jobs.JobService) *Handler {
	return &Handler{service: service, jobService: jobService}
}

type scanRequest struct {
	Paths []string `json:"paths"`
}

// HandleScan runs a synchronous scan and returns the grouped result.
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	var req scanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	slog.Info("Scan requested", "paths", req.Paths)
	result, err := h.service.Scan(c.Context(), req.Paths, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleScanJob starts an asynchronous scan job.
func (h *Handler) HandleScanJob(c *fiber.Ctx) error {
	var req scanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	metadata := map[string]any{}
	if len(req.Paths) > 0 {
		metadata["paths"] = req.Paths
	}
	jobID, err := h.jobService.StartJob("library_scan", "Library scan", metadata)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"job_id": jobID})
}

// HandleGroups returns the latest scan snapshot.
func (h *Handler) HandleGroups(c *fiber.Ctx) error {
	return c.JSON(h.service.Groups())
}

// HandleGroup returns one group by ID.
func (h *Handler) HandleGroup(c *fiber.Ctx) error {
	group, ok := h.service.Group(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	return c.JSON(group)
}

package pushing

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/book"
	"tomekeeper/src/features/jobs"
)

// Handler is the handler for the pushing feature.
type Handler struct {
	service    *Service
	jobService jobs.JobService
}

// NewHandler creates a new handler for the pushing feature.
func NewHandler(service *Service, jobService jobs.JobService) *Handler {
	return &Handler{service: service, jobService: jobService}
}

type pushRequest struct {
	Items []book.SyncItem `json:"items"`
}

// HandlePush pushes the posted items synchronously.
func (h *Handler) HandlePush(c *fiber.Ctx) error {
	var req pushRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no items to push"})
	}

	slog.Info("Push requested", "items", len(req.Items))
	result, err := h.service.Push(c.Context(), req.Items)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandlePushJob starts an asynchronous push of every reconciled group.
func (h *Handler) HandlePushJob(c *fiber.Ctx) error {
	jobID, err := h.jobService.StartJob("abs_push", "Library push", map[string]any{})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"job_id": jobID})
}

// HandleTestConnection checks the remote server connection.
func (h *Handler) HandleTestConnection(c *fiber.Ctx) error {
	if err := h.service.TestConnection(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "connection ok"})
}

// HandleRescan asks the remote server to rescan its library.
func (h *Handler) HandleRescan(c *fiber.Ctx) error {
	if err := h.service.TriggerRescan(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "rescan triggered"})
}

// HandleNormalizeGenres re-applies the genre policy to the remote library.
func (h *Handler) HandleNormalizeGenres(c *fiber.Ctx) error {
	result, err := h.service.NormalizeRemoteGenres(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	slog.Info("Remote genres normalized", "updated", result.Updated, "failed", len(result.Failed))
	return c.JSON(result)
}

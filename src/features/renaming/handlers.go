package renaming

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/book"
)

// GroupSource provides the groups of the latest scan.
type GroupSource interface {
	Group(id string) (*book.Group, bool)
}

// Handler is the handler for the renaming feature.
type Handler struct {
	service *Service
	groups  GroupSource
}

// NewHandler creates a new handler for the renaming feature.
func NewHandler(service *Service, groups GroupSource) *Handler {
	return &Handler{service: service, groups: groups}
}

// HandlePreview renders target paths for a group without moving files.
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	group, ok := h.groups.Group(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	if group.Metadata == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "group has no reconciled metadata"})
	}
	return c.JSON(h.service.PreviewGroup(c.Context(), group))
}

type previewPathRequest struct {
	Path     string         `json:"path"`
	Metadata *book.Metadata `json:"metadata"`
}

// HandlePreviewPath renders the target path for an arbitrary file and
// metadata pair, without any scanned group.
func (h *Handler) HandlePreviewPath(c *fiber.Ctx) error {
	var req previewPathRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Path == "" || req.Metadata == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path and metadata are required"})
	}

	target, err := h.service.PreviewPath(c.Context(), req.Path, req.Metadata)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"new_path": target, "changed": target != req.Path})
}

// HandleApply moves a group's files to their derived paths.
func (h *Handler) HandleApply(c *fiber.Ctx) error {
	group, ok := h.groups.Group(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	if group.Metadata == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "group has no reconciled metadata"})
	}

	results := h.service.ApplyGroup(c.Context(), group)
	moved := 0
	for _, r := range results {
		if r.Success {
			moved++
		}
	}
	slog.Info("Rename applied", "group", group.Name, "moved", moved, "total", len(results))
	return c.JSON(results)
}

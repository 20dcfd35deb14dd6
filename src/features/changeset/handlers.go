package changeset

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

// GroupSource provides the groups of the latest scan.
type GroupSource interface {
	Group(id string) (*book.Group, bool)
}

// Handler is the handler for the changeset feature.
type Handler struct {
	config *config.Manager
	groups GroupSource
}

// NewHandler creates a new handler for the changeset feature.
func NewHandler(cfg *config.Manager, groups GroupSource) *Handler {
	return &Handler{config: cfg, groups: groups}
}

// HandleComputeChanges derives pending tag changes for every file of a
// group from its reconciled metadata.
func (h *Handler) HandleComputeChanges(c *fiber.Ctx) error {
	group, ok := h.groups.Group(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	if group.Metadata == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "group has no reconciled metadata"})
	}

	total := ComputeGroup(group, Options{EmbedCovers: h.config.Get().Write.EmbedCovers})
	slog.Info("Changes computed", "group", group.Name, "total", total, "processed", group.Processed)
	return c.JSON(group)
}

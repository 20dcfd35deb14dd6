package reconciling

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/book"
)

// GroupSource provides the groups of the latest scan.
type GroupSource interface {
	Group(id string) (*book.Group, bool)
}

// Handler is the handler for the reconciling feature.
type Handler struct {
	service *Service
	groups  GroupSource
}

// NewHandler creates a new handler for the reconciling feature.
func NewHandler(service *Service, groups GroupSource) *Handler {
	return &Handler{service: service, groups: groups}
}

// HandleReconcile reconciles one scanned group and stores the canonical
// metadata back on it.
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	group, ok := h.groups.Group(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}

	outcome, err := h.service.Reconcile(c.Context(), group)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	group.Metadata = outcome.Metadata

	slog.Info("Group reconciled", "group", group.Name,
		"sources", outcome.Sources, "cached", outcome.FromCache, "degraded", outcome.Degraded)
	return c.JSON(outcome)
}

// HandleCacheStatus reports how many queries the cache holds.
func (h *Handler) HandleCacheStatus(c *fiber.Ctx) error {
	n, err := h.service.CacheCount(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"entries": n})
}

// HandleCacheClear drops every cached provider response.
func (h *Handler) HandleCacheClear(c *fiber.Ctx) error {
	if err := h.service.ClearCache(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "cache cleared"})
}

package writing

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"tomekeeper/src/book"
	"tomekeeper/src/features/jobs"
)

// Renamer moves a group's written files to their metadata-derived paths.
type Renamer interface {
	ApplyGroup(ctx context.Context, group *book.Group) []book.RenameResult
}

// Handler is the handler for the writing feature.
type Handler struct {
	service    *Service
	jobService jobs.JobService
	groups     GroupSource
	renamer    Renamer
}

// NewHandler creates a new handler for the writing feature.
func NewHandler(service *Service, jobService jobs.JobService, groups GroupSource, renamer Renamer) *Handler {
	return &Handler{service: service, jobService: jobService, groups: groups, renamer: renamer}
}

type writeRequest struct {
	Files  []Request `json:"files"`
	Backup *bool     `json:"backup,omitempty"`
}

// HandleWrite applies the posted change maps synchronously and returns the
// per-file accounting.
func (h *Handler) HandleWrite(c *fiber.Ctx) error {
	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if len(req.Files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no files to write"})
	}

	slog.Info("Tag write requested", "files", len(req.Files))
	result := h.service.WriteBatch(c.Context(), req.Files, req.Backup, nil)
	return c.JSON(result)
}

type writeRenameRequest struct {
	Backup *bool `json:"backup,omitempty"`
}

// HandleWriteAndRename writes a group's pending changes and, for the files
// whose write succeeded, applies the metadata-derived rename in one call.
func (h *Handler) HandleWriteAndRename(c *fiber.Ctx) error {
	group, ok := h.groups.Group(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	if group.Metadata == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "group has no reconciled metadata"})
	}

	var req writeRenameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	requests := GroupRequests(group)
	writeResult := h.service.WriteBatch(c.Context(), requests, req.Backup, nil)
	MarkWritten(group, writeResult)
	renameResults := h.renamer.ApplyGroup(c.Context(), group)

	slog.Info("Write and rename applied", "group", group.Name,
		"written", writeResult.Success, "write_failed", writeResult.Failed)
	return c.JSON(fiber.Map{
		"write_result":   writeResult,
		"rename_results": renameResults,
	})
}

type writeJobRequest struct {
	GroupID string `json:"group_id"`
}

// HandleWriteJob starts an asynchronous tag write job over the scanned
// groups' pending changes.
func (h *Handler) HandleWriteJob(c *fiber.Ctx) error {
	var req writeJobRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	metadata := map[string]any{}
	if req.GroupID != "" {
		metadata["group_id"] = req.GroupID
	}
	jobID, err := h.jobService.StartJob("tag_write", "Tag write", metadata)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"job_id": jobID})
}

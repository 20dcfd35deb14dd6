package writing

import (
	"context"
	"fmt"
	"log/slog"

	"tomekeeper/src/book"
	"tomekeeper/src/features/jobs"
)

// GroupSource provides the groups of the latest scan.
type GroupSource interface {
	Groups() []*book.Group
	Group(id string) (*book.Group, bool)
}

// WriteTask applies the pending changes of scanned groups as a background
// job. Job metadata may carry "group_id" to restrict the batch to one group.
type WriteTask struct {
	service *Service
	groups  GroupSource
}

// NewWriteTask creates the tag write job task.
func NewWriteTask(service *Service, groups GroupSource) *WriteTask {
	return &WriteTask{service: service, groups: groups}
}

// MetadataKeys returns the metadata keys required to start the job.
func (t *WriteTask) MetadataKeys() []string { return nil }

// Execute writes every file that has pending changes.
func (t *WriteTask) Execute(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	logger := slog.Default()
	if job.Logger != nil {
		logger = job.Logger
	}

	selected := t.selectGroups(job)
	var requests []Request
	for _, group := range selected {
		requests = append(requests, GroupRequests(group)...)
	}
	if len(requests) == 0 {
		for _, group := range selected {
			MarkWritten(group, &book.WriteResult{})
		}
		progressUpdater(100, "Nothing to write")
		return map[string]any{"written": 0, "failed": 0}, nil
	}

	logger.Info("Writing tags", "files", len(requests))
	result := t.service.WriteBatch(ctx, requests, nil, func(done, total int) {
		progressUpdater(done*100/total, fmt.Sprintf("Written %d/%d files", done, total))
	})
	for _, group := range selected {
		MarkWritten(group, result)
	}

	for _, e := range result.Errors {
		logger.Warn("File failed", "path", e.Path, "error", e.Error)
	}
	stats := map[string]any{
		"written": result.Success,
		"failed":  result.Failed,
		"msg":     fmt.Sprintf("Wrote %d files, %d failed", result.Success, result.Failed),
	}

	if result.Failed > 0 && result.Success > 0 {
		return stats, fmt.Errorf("partial: %d of %d files failed", result.Failed, len(requests))
	}
	if result.Failed > 0 {
		return stats, fmt.Errorf("all %d files failed", result.Failed)
	}
	return stats, nil
}

// Cleanup is a no-op for write jobs.
func (t *WriteTask) Cleanup(job *jobs.Job) error { return nil }

func (t *WriteTask) selectGroups(job *jobs.Job) []*book.Group {
	if id, ok := job.Metadata["group_id"].(string); ok && id != "" {
		if group, found := t.groups.Group(id); found {
			return []*book.Group{group}
		}
		return nil
	}
	return t.groups.Groups()
}

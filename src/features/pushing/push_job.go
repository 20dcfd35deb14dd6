package pushing

import (
	"context"
	"fmt"

	"tomekeeper/src/book"
	"tomekeeper/src/features/jobs"
)

// GroupSource provides the groups of the latest scan.
type GroupSource interface {
	Groups() []*book.Group
}

// PushTask pushes reconciled group metadata to the remote server as a
// background job.
type PushTask struct {
	service *Service
	groups  GroupSource
}

// NewPushTask creates the task for the abs_push job type.
func NewPushTask(service *Service, groups GroupSource) *PushTask {
	return &PushTask{service: service, groups: groups}
}

// MetadataKeys returns the metadata keys required to start the job.
func (t *PushTask) MetadataKeys() []string { return nil }

// Execute pushes every reconciled group of the latest scan.
func (t *PushTask) Execute(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	progressUpdater(0, "Listing remote items")
	result, err := t.service.PushGroups(ctx, t.groups.Groups())
	if err != nil {
		return nil, err
	}

	stats := map[string]any{
		"updated":   result.Updated,
		"unmatched": len(result.Unmatched),
		"failed":    len(result.Failed),
		"msg": fmt.Sprintf("Pushed %d items (%d unmatched, %d failed)",
			result.Updated, len(result.Unmatched), len(result.Failed)),
	}
	if job.Logger != nil {
		for _, p := range result.Unmatched {
			job.Logger.Warn("No remote match", "path", p)
		}
		for _, f := range result.Failed {
			job.Logger.Warn("Remote update failed", "path", f.Path, "reason", f.Reason)
		}
	}

	if len(result.Failed) > 0 && result.Updated > 0 {
		return stats, fmt.Errorf("partial: %d items failed to push", len(result.Failed))
	}
	if len(result.Failed) > 0 {
		return stats, fmt.Errorf("all %d pushed items failed", len(result.Failed))
	}
	return stats, nil
}

// Cleanup is a no-op for push jobs.
func (t *PushTask) Cleanup(job *jobs.Job) error { return nil }

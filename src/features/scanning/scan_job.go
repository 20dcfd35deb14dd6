package scanning

import (
	"context"
	"fmt"

	"tomekeeper/src/features/jobs"
)

// ScanTask runs a library scan as an asynchronous job.
type ScanTask struct {
	service *Service
}

// NewScanTask creates the task for the library_scan job type.
func NewScanTask(service *Service) *ScanTask {
	return &ScanTask{service: service}
}

// MetadataKeys lists the job metadata this task requires. Scan roots are
// optional; the configured paths apply when absent.
func (t *ScanTask) MetadataKeys() []string {
	return nil
}

// Execute runs the scan and reports the outcome through the job metadata.
func (t *ScanTask) Execute(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	var roots []string
	if raw, ok := job.Metadata["paths"]; ok {
		if list, ok := raw.([]string); ok {
			roots = list
		}
	}

	result, err := t.service.Scan(ctx, roots, progressUpdater)
	if err != nil {
		return nil, err
	}

	stats := map[string]any{
		"groups": len(result.Groups),
		"errors": len(result.Errors),
		"msg":    fmt.Sprintf("Scanned %d groups (%d file errors)", len(result.Groups), len(result.Errors)),
	}
	if len(result.Errors) > 0 && job.Logger != nil {
		job.Logger.Warn("Scan finished with file errors", "count", len(result.Errors))
		for _, fe := range result.Errors {
			job.Logger.Warn("Unreadable file", "path", fe.Path, "error", fe.Error)
		}
	}
	return stats, nil
}

// Cleanup implements jobs.Task; scans hold no external resources.
func (t *ScanTask) Cleanup(job *jobs.Job) error {
	return nil
}

package renaming

import (
	"context"
	"log/slog"
	"path/filepath"

	"tomekeeper/src/book"
	"tomekeeper/src/features/metrics"
	"tomekeeper/src/infra/files"
)

// Preview is one proposed rename, not yet applied.
type Preview struct {
	Path    string `json:"path"`
	NewPath string `json:"new_path"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// Service derives target paths from canonical metadata and applies the
// moves. Previewing is pure; only Apply touches the filesystem.
type Service struct {
	organizer *files.Organizer
}

// NewService creates the renaming service.
func NewService(organizer *files.Organizer) *Service {
	return &Service{organizer: organizer}
}

// PreviewGroup renders the target path for every file of a group without
// moving anything.
func (s *Service) PreviewGroup(ctx context.Context, group *book.Group) []Preview {
	previews := make([]Preview, 0, len(group.Files))
	for _, f := range group.Files {
		p := Preview{Path: f.Path}
		target, err := s.organizer.TargetPath(ctx, f.Path, group.Metadata)
		if err != nil {
			p.Error = err.Error()
		} else {
			p.NewPath = target
			p.Changed = target != f.Path
		}
		previews = append(previews, p)
	}
	return previews
}

// PreviewPath renders the target path for a single file and metadata pair
// without moving anything.
func (s *Service) PreviewPath(ctx context.Context, path string, md *book.Metadata) (string, error) {
	return s.organizer.TargetPath(ctx, path, md)
}

// ApplyGroup moves every file of a group to its derived path. Only files
// whose latest tag write succeeded are moved; a file with unwritten or
// failed tags gets a per-file error instead. Collisions and move failures
// are also per-file errors; the rest of the group still moves. File paths
// on the group are updated for moved files.
func (s *Service) ApplyGroup(ctx context.Context, group *book.Group) []book.RenameResult {
	results := make([]book.RenameResult, 0, len(group.Files))
	for _, f := range group.Files {
		result := book.RenameResult{Path: f.Path}
		if !f.Written {
			result.Error = "tags not written"
			results = append(results, result)
			continue
		}
		target, err := s.organizer.TargetPath(ctx, f.Path, group.Metadata)
		switch {
		case err != nil:
			result.Error = err.Error()
		case target == f.Path:
			result.Success = true
			result.NewPath = target
		default:
			if err := s.organizer.Move(ctx, f.Path, target); err != nil {
				result.Error = err.Error()
				metrics.Renames.WithLabelValues("error").Inc()
				slog.Warn("Rename failed", "path", f.Path, "target", target, "error", err)
			} else {
				result.Success = true
				result.NewPath = target
				metrics.Renames.WithLabelValues("ok").Inc()
				f.Path = target
				f.Filename = filepath.Base(target)
			}
		}
		results = append(results, result)
	}
	return results
}

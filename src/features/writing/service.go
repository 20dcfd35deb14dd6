package writing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
	"tomekeeper/src/features/metrics"
	"tomekeeper/src/infra/files"
	"tomekeeper/src/infra/workers"
)

// TagWriter applies a change map to one audio file.
type TagWriter interface {
	WriteTags(ctx context.Context, filePath string, changes book.ChangeMap) error
}

// TagReader re-reads a file's embedded tags, used to verify writes.
type TagReader interface {
	ReadFileTags(ctx context.Context, filePath string) (*book.FileTags, error)
}

// Request is one file to write.
type Request struct {
	FileID  string         `json:"id"`
	Path    string         `json:"path"`
	Changes book.ChangeMap `json:"changes"`
}

// Service applies change maps to files in bounded parallel batches. Every
// requested file gets exactly one outcome; one bad file never aborts the
// rest of the batch.
type Service struct {
	config *config.Manager
	writer TagWriter
	reader TagReader
	pool   *workers.Pool
}

// NewService creates the writing service.
func NewService(cfg *config.Manager, writer TagWriter, reader TagReader, pool *workers.Pool) *Service {
	return &Service{config: cfg, writer: writer, reader: reader, pool: pool}
}

// WriteBatch writes every request, reporting progress after each file.
// Files with an empty change map succeed as no-ops. backup, when non-nil,
// overrides the configured backup_tags setting for this batch.
func (s *Service) WriteBatch(ctx context.Context, requests []Request, backup *bool, progress func(done, total int)) *book.WriteResult {
	cfg := *s.config.Get()
	if backup != nil {
		cfg.Write.BackupTags = *backup
	}
	result := &book.WriteResult{}

	var mu sync.Mutex
	var wg sync.WaitGroup
	done := 0

	record := func(req Request, backup string, err error) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if backup != "" {
			result.Backups = append(result.Backups, backup)
		}
		if err != nil {
			metrics.TagWrites.WithLabelValues("error").Inc()
			result.Failed++
			result.Errors = append(result.Errors, book.WriteError{
				FileID: req.FileID, Path: req.Path, Error: err.Error(),
			})
			slog.Warn("Tag write failed", "path", req.Path, "error", err)
		} else {
			metrics.TagWrites.WithLabelValues("ok").Inc()
			result.Success++
		}
		if progress != nil {
			progress(done, len(requests))
		}
	}

	for _, req := range requests {
		req := req
		wg.Add(1)
		submitErr := s.pool.Submit(ctx, func() {
			defer wg.Done()
			backupPath, err := s.writeOne(ctx, &cfg, req)
			record(req, backupPath, err)
		})
		if submitErr != nil {
			wg.Done()
			record(req, "", fmt.Errorf("not written: %w", submitErr))
		}
	}
	wg.Wait()

	return result
}

// GroupRequests collects the write requests for a group's files with
// pending changes.
func GroupRequests(group *book.Group) []Request {
	var requests []Request
	for _, f := range group.Files {
		if len(f.Changes) == 0 {
			continue
		}
		requests = append(requests, Request{FileID: f.ID, Path: f.Path, Changes: f.Changes})
	}
	return requests
}

// MarkWritten records a batch outcome on the group's files. Files whose
// write succeeded become eligible for renaming; files with no pending
// changes count as no-op successes. A failed write clears any earlier mark.
func MarkWritten(group *book.Group, result *book.WriteResult) {
	failed := make(map[string]bool, len(result.Errors))
	for _, e := range result.Errors {
		failed[e.FileID] = true
	}
	for _, f := range group.Files {
		f.Written = !failed[f.ID]
	}
}

func (s *Service) writeOne(ctx context.Context, cfg *config.Config, req Request) (backup string, err error) {
	if len(req.Changes) == 0 {
		return "", nil
	}
	if cfg.Write.SkipUnchanged && allUnchanged(req.Changes) {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if cfg.Write.BackupTags {
		backup, err = files.Backup(req.Path)
		if err != nil {
			return "", fmt.Errorf("backup failed: %w", err)
		}
	}

	if err := s.writer.WriteTags(ctx, req.Path, req.Changes); err != nil {
		return backup, err
	}
	if err := s.verify(ctx, req.Path, req.Changes); err != nil {
		return backup, err
	}
	return backup, nil
}

// verify re-reads the file and checks every written slot round-trips. The
// cover slot is skipped; embedded pictures are not surfaced as text.
func (s *Service) verify(ctx context.Context, path string, changes book.ChangeMap) error {
	tags, err := s.reader.ReadFileTags(ctx, path)
	if err != nil {
		return fmt.Errorf("verification read failed: %w", err)
	}

	for slot, change := range changes {
		switch slot {
		case book.SlotCover:
			continue
		case book.SlotGenres:
			if !genreSetsEqual(tags.Genres, change.NewValues) {
				return fmt.Errorf("verification failed: genres read back as %q", tags.Genres)
			}
		default:
			got := strings.TrimSpace(book.Val(slotValue(tags, slot)))
			if got != strings.TrimSpace(change.New) {
				return fmt.Errorf("verification failed: %s read back as %q, want %q", slot, got, change.New)
			}
		}
	}
	return nil
}

func slotValue(tags *book.FileTags, slot string) *string {
	switch slot {
	case book.SlotTitle:
		return tags.Title
	case book.SlotArtist:
		return tags.Artist
	case book.SlotAlbum:
		return tags.Album
	case book.SlotNarrator:
		return tags.Narrator
	case book.SlotSeries:
		return tags.Series
	case book.SlotSequence:
		return tags.Sequence
	case book.SlotYear:
		return tags.Year
	case book.SlotDescription:
		return tags.Description
	case book.SlotPublisher:
		return tags.Publisher
	case book.SlotISBN:
		return tags.ISBN
	}
	return nil
}

func genreSetsEqual(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(got))
	for _, g := range got {
		seen[strings.TrimSpace(g)] = true
	}
	for _, w := range want {
		if !seen[strings.TrimSpace(w)] {
			return false
		}
	}
	return true
}

func allUnchanged(changes book.ChangeMap) bool {
	for _, c := range changes {
		if strings.TrimSpace(c.Old) != strings.TrimSpace(c.New) || len(c.NewValues) > 0 {
			return false
		}
	}
	return true
}

package scanning

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
	"tomekeeper/src/features/metrics"
	"tomekeeper/src/infra/workers"
)

// TagReader reads the embedded tags of one audio file.
type TagReader interface {
	ReadFileTags(ctx context.Context, filePath string) (*book.FileTags, error)
}

// FileError records one file that could not be read. The file is excluded
// from grouping; the scan itself still succeeds.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result is the outcome of one library scan.
type Result struct {
	Groups []*book.Group `json:"groups"`
	Errors []FileError   `json:"errors,omitempty"`
}

// Service walks the scan roots, reads tags and partitions the files into
// audiobook groups. The latest scan is kept as the in-memory library view.
type Service struct {
	config *config.Manager
	reader TagReader
	pool   *workers.Pool

	mu     sync.RWMutex
	groups []*book.Group
}

// NewService creates a new scanning service.
func NewService(cfg *config.Manager, reader TagReader, pool *workers.Pool) *Service {
	return &Service{config: cfg, reader: reader, pool: pool}
}

// Scan walks the given roots (the configured scan paths when empty) and
// returns the grouped result. Progress, when non-nil, is called with a
// percentage and a status line.
func (s *Service) Scan(ctx context.Context, roots []string, progress func(int, string)) (*Result, error) {
	if len(roots) == 0 {
		roots = s.config.Get().ScanPaths
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no scan paths configured")
	}
	if progress == nil {
		progress = func(int, string) {}
	}

	progress(0, "Discovering files")
	paths, errs := discoverFiles(roots)
	slog.Info("Scan discovered files", "count", len(paths), "roots", roots)

	outcomes := make([]readOutcome, len(paths))

	total := len(paths)
	var done int
	var doneMu sync.Mutex

	// Waits on this batch only; other pipeline stages share the pool.
	var wg sync.WaitGroup
	for i, path := range paths {
		i, path := i, path
		wg.Add(1)
		err := s.pool.Submit(ctx, func() {
			defer wg.Done()
			outcomes[i] = s.readOne(ctx, path)
			doneMu.Lock()
			done++
			if total > 0 && done%25 == 0 {
				progress(done*90/total, fmt.Sprintf("Read %d/%d files", done, total))
			}
			doneMu.Unlock()
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	progress(90, "Grouping files")
	files := make([]*book.AudioFile, 0, len(outcomes))
	dirs := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, *o.err)
			continue
		}
		if o.file == nil {
			continue
		}
		files = append(files, o.file)
		dirs[o.file.ID] = o.dir
	}

	groups := BuildGroups(files, dirs)
	approved := s.config.Get().Genres.Approved
	for _, group := range groups {
		group.Metadata = seedMetadata(group)
		group.Processed = isAlreadyProcessed(group, approved)
	}

	metrics.FilesScanned.Add(float64(len(files)))
	metrics.ScanErrors.Add(float64(len(errs)))
	metrics.GroupsFormed.Set(float64(len(groups)))

	s.mu.Lock()
	s.groups = groups
	s.mu.Unlock()

	progress(100, fmt.Sprintf("Scan complete: %d groups, %d errors", len(groups), len(errs)))
	return &Result{Groups: groups, Errors: errs}, nil
}

type readOutcome struct {
	file *book.AudioFile
	dir  string
	err  *FileError
}

func (s *Service) readOne(ctx context.Context, path string) (o readOutcome) {
	info, err := os.Stat(path)
	if err != nil {
		o.err = &FileError{Path: path, Error: err.Error()}
		return o
	}

	tags, err := s.reader.ReadFileTags(ctx, path)
	if err != nil {
		o.err = &FileError{Path: path, Error: err.Error()}
		return o
	}

	o.file = &book.AudioFile{
		ID:       uuid.New().String(),
		Path:     path,
		Filename: filepath.Base(path),
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Size:     info.Size(),
		Tags:     *tags,
	}
	o.dir = filepath.Dir(path)
	return o
}

// Groups returns the latest scan snapshot.
func (s *Service) Groups() []*book.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups
}

// Group returns one group from the latest scan by ID.
func (s *Service) Group(id string) (*book.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// discoverFiles walks the roots collecting supported audio files. Hidden
// sidecar files are skipped; unreadable directories become file errors.
func discoverFiles(roots []string) ([]string, []FileError) {
	var paths []string
	var errs []FileError

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, FileError{Path: path, Error: err.Error()})
				return nil
			}
			if d.IsDir() {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, "._") || name == ".DS_Store" {
				return nil
			}
			switch strings.ToLower(filepath.Ext(name)) {
			case ".m4b", ".m4a", ".mp3", ".flac", ".ogg":
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, FileError{Path: root, Error: err.Error()})
		}
	}
	return paths, errs
}

// seedMetadata builds the group's starting metadata from its files' tags,
// first file wins per field. Reconciliation replaces these values with
// provider data field by field; the seed survives only where every
// provider comes up empty.
func seedMetadata(group *book.Group) *book.Metadata {
	md := &book.Metadata{}
	for _, f := range group.Files {
		other := metadataFromTags(&f.Tags)
		md.FillFrom(other)
	}
	return md
}

func metadataFromTags(tags *book.FileTags) *book.Metadata {
	md := &book.Metadata{
		Narrator:    tags.Narrator,
		Series:      tags.Series,
		Sequence:    tags.Sequence,
		Year:        tags.Year,
		Description: tags.Description,
		Publisher:   tags.Publisher,
		ISBN:        tags.ISBN,
		Genres:      append([]string(nil), tags.Genres...),
	}
	if book.Has(tags.Album) {
		md.Title = tags.Album
	} else {
		md.Title = tags.Title
	}
	if book.Has(tags.AlbumArtist) {
		md.Author = tags.AlbumArtist
	} else {
		md.Author = tags.Artist
	}
	return md
}

// isAlreadyProcessed reports whether a group's tags already look like this
// pipeline's output: a narrator credit in the comment convention or the
// dedicated slot, and only approved genres. Such groups short-circuit to
// "no changes".
func isAlreadyProcessed(group *book.Group, approved []string) bool {
	approvedSet := make(map[string]bool, len(approved))
	for _, g := range approved {
		approvedSet[strings.ToLower(g)] = true
	}

	for _, f := range group.Files {
		if !book.Has(f.Tags.Narrator) {
			return false
		}
		if len(f.Tags.Genres) == 0 {
			return false
		}
		for _, g := range f.Tags.Genres {
			if !approvedSet[strings.ToLower(g)] {
				return false
			}
		}
	}
	return len(group.Files) > 0
}

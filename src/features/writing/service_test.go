package writing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
	"tomekeeper/src/infra/workers"
)

// MockWriter records writes and can fail for selected paths.
type MockWriter struct {
	mu      sync.Mutex
	written map[string]book.ChangeMap
	failOn  map[string]error
}

func NewMockWriter() *MockWriter {
	return &MockWriter{written: make(map[string]book.ChangeMap), failOn: make(map[string]error)}
}

func (m *MockWriter) WriteTags(ctx context.Context, path string, changes book.ChangeMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failOn[path]; ok {
		return err
	}
	m.written[path] = changes
	return nil
}

func (m *MockWriter) Written(path string) (book.ChangeMap, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.written[path]
	return c, ok
}

// MockReader reads back whatever the mock writer recorded, so verification
// sees the written values.
type MockReader struct {
	writer *MockWriter
}

func (m *MockReader) ReadFileTags(ctx context.Context, path string) (*book.FileTags, error) {
	tags := &book.FileTags{}
	changes, ok := m.writer.Written(path)
	if !ok {
		return tags, nil
	}
	for slot, change := range changes {
		switch slot {
		case book.SlotTitle:
			tags.Title = book.Str(change.New)
		case book.SlotArtist:
			tags.Artist = book.Str(change.New)
		case book.SlotAlbum:
			tags.Album = book.Str(change.New)
		case book.SlotNarrator:
			tags.Narrator = book.Str(change.New)
		case book.SlotSeries:
			tags.Series = book.Str(change.New)
		case book.SlotSequence:
			tags.Sequence = book.Str(change.New)
		case book.SlotYear:
			tags.Year = book.Str(change.New)
		case book.SlotDescription:
			tags.Description = book.Str(change.New)
		case book.SlotPublisher:
			tags.Publisher = book.Str(change.New)
		case book.SlotISBN:
			tags.ISBN = book.Str(change.New)
		case book.SlotGenres:
			tags.Genres = change.NewValues
		}
	}
	return tags, nil
}

func newTestService(writer *MockWriter) (*Service, *workers.Pool) {
	pool := workers.NewPool(2)
	cfg := config.NewManager(&config.Config{})
	return NewService(cfg, writer, &MockReader{writer: writer}, pool), pool
}

func TestWriteBatch_OneOutcomePerFile(t *testing.T) {
	writer := NewMockWriter()
	service, pool := newTestService(writer)
	defer pool.Close()

	requests := []Request{
		{FileID: "1", Path: "/lib/a.mp3", Changes: book.ChangeMap{book.SlotTitle: {New: "A"}}},
		{FileID: "2", Path: "/lib/b.mp3", Changes: book.ChangeMap{book.SlotTitle: {New: "B"}}},
	}

	result := service.WriteBatch(context.Background(), requests, nil, nil)
	if result.Success+result.Failed != len(requests) {
		t.Errorf("expected %d outcomes, got %d success + %d failed",
			len(requests), result.Success, result.Failed)
	}
	if result.Failed != 0 {
		t.Errorf("expected no failures, got %v", result.Errors)
	}
}

func TestWriteBatch_FailureDoesNotStopBatch(t *testing.T) {
	writer := NewMockWriter()
	writer.failOn["/lib/bad.mp3"] = errors.New("corrupt frame")
	service, pool := newTestService(writer)
	defer pool.Close()

	requests := []Request{
		{FileID: "1", Path: "/lib/bad.mp3", Changes: book.ChangeMap{book.SlotTitle: {New: "A"}}},
		{FileID: "2", Path: "/lib/good.mp3", Changes: book.ChangeMap{book.SlotTitle: {New: "B"}}},
	}

	result := service.WriteBatch(context.Background(), requests, nil, nil)
	if result.Success != 1 || result.Failed != 1 {
		t.Errorf("expected 1 success and 1 failure, got %d/%d", result.Success, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].FileID != "1" {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if _, ok := writer.Written("/lib/good.mp3"); !ok {
		t.Error("good file should still be written")
	}
}

func TestWriteBatch_EmptyChangesIsNoOp(t *testing.T) {
	writer := NewMockWriter()
	service, pool := newTestService(writer)
	defer pool.Close()

	requests := []Request{{FileID: "1", Path: "/lib/a.mp3", Changes: book.ChangeMap{}}}

	result := service.WriteBatch(context.Background(), requests, nil, nil)
	if result.Success != 1 || result.Failed != 0 {
		t.Errorf("empty changes should succeed as no-op, got %+v", result)
	}
	if _, ok := writer.Written("/lib/a.mp3"); ok {
		t.Error("no-op file must not be written")
	}
}

func TestWriteBatch_VerificationMismatchFails(t *testing.T) {
	writer := NewMockWriter()
	pool := workers.NewPool(1)
	defer pool.Close()
	cfg := config.NewManager(&config.Config{})
	// Reader disconnected from the writer: nothing ever reads back.
	service := NewService(cfg, writer, &MockReader{writer: NewMockWriter()}, pool)

	requests := []Request{
		{FileID: "1", Path: "/lib/a.mp3", Changes: book.ChangeMap{book.SlotTitle: {New: "A"}}},
	}

	result := service.WriteBatch(context.Background(), requests, nil, nil)
	if result.Failed != 1 {
		t.Errorf("expected verification failure, got %+v", result)
	}
}

func TestMarkWritten_SuccessGatesRenameEligibility(t *testing.T) {
	group := &book.Group{Files: []*book.AudioFile{
		{ID: "1", Path: "/lib/ok.m4b", Changes: book.ChangeMap{book.SlotTitle: {New: "A"}}},
		{ID: "2", Path: "/lib/bad.m4b", Changes: book.ChangeMap{book.SlotTitle: {New: "B"}}},
		{ID: "3", Path: "/lib/clean.m4b"},
	}}
	result := &book.WriteResult{
		Success: 1, Failed: 1,
		Errors: []book.WriteError{{FileID: "2", Path: "/lib/bad.m4b", Error: "locked"}},
	}

	MarkWritten(group, result)

	if !group.Files[0].Written {
		t.Error("successfully written file should be marked")
	}
	if group.Files[1].Written {
		t.Error("failed file must not be marked")
	}
	if !group.Files[2].Written {
		t.Error("file with no pending changes is a no-op success")
	}
}

func TestMarkWritten_FailureClearsEarlierMark(t *testing.T) {
	group := &book.Group{Files: []*book.AudioFile{{ID: "1", Path: "/lib/a.m4b", Written: true}}}
	result := &book.WriteResult{
		Failed: 1,
		Errors: []book.WriteError{{FileID: "1", Path: "/lib/a.m4b", Error: "locked"}},
	}

	MarkWritten(group, result)
	if group.Files[0].Written {
		t.Error("latest outcome wins; a failed write must clear the mark")
	}
}

func TestGroupRequests_SkipsFilesWithoutChanges(t *testing.T) {
	group := &book.Group{Files: []*book.AudioFile{
		{ID: "1", Path: "/lib/a.m4b", Changes: book.ChangeMap{book.SlotTitle: {New: "A"}}},
		{ID: "2", Path: "/lib/b.m4b"},
	}}

	requests := GroupRequests(group)
	if len(requests) != 1 || requests[0].FileID != "1" {
		t.Errorf("expected one request for the changed file, got %+v", requests)
	}
}

func TestWriteBatch_ReportsProgress(t *testing.T) {
	writer := NewMockWriter()
	service, pool := newTestService(writer)
	defer pool.Close()

	requests := []Request{
		{FileID: "1", Path: "/lib/a.mp3", Changes: book.ChangeMap{book.SlotTitle: {New: "A"}}},
		{FileID: "2", Path: "/lib/b.mp3", Changes: book.ChangeMap{book.SlotTitle: {New: "B"}}},
	}

	var mu sync.Mutex
	calls := 0
	service.WriteBatch(context.Background(), requests, nil, func(done, total int) {
		mu.Lock()
		calls++
		mu.Unlock()
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
	})
	if calls != 2 {
		t.Errorf("expected 2 progress calls, got %d", calls)
	}
}

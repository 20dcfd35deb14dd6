package scanning

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
	"tomekeeper/src/infra/workers"
)

type stubReader struct{}

func (stubReader) ReadFileTags(ctx context.Context, path string) (*book.FileTags, error) {
	return &book.FileTags{Title: book.Str("Book"), Artist: book.Str("Author")}, nil
}

func TestScan_DoesNotWaitOnForeignPoolTasks(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "book.m4b"), []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	pool := workers.NewPool(2)
	release := make(chan struct{})
	defer func() {
		close(release)
		pool.Close()
	}()
	if err := pool.Submit(context.Background(), func() { <-release }); err != nil {
		t.Fatal(err)
	}

	svc := NewService(config.NewManager(&config.Config{}), stubReader{}, pool)

	var result *Result
	var scanErr error
	done := make(chan struct{})
	go func() {
		result, scanErr = svc.Scan(context.Background(), []string{dir}, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan blocked on an unrelated pool task")
	}
	if scanErr != nil {
		t.Fatalf("expected no error, got %v", scanErr)
	}
	if len(result.Groups) != 1 {
		t.Errorf("expected 1 group, got %d", len(result.Groups))
	}
}

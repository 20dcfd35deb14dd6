package renaming

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
	"tomekeeper/src/infra/files"
)

func testService(cfg *config.Config) *Service {
	manager := config.NewManager(cfg)
	return NewService(files.NewOrganizer(manager, files.NewTemplatePathParser(manager)))
}

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
}

func testRenameGroup(paths ...string) *book.Group {
	group := &book.Group{
		ID:       "g1",
		Metadata: &book.Metadata{Title: book.Str("Corrected Title")},
	}
	for i, p := range paths {
		group.Files = append(group.Files, &book.AudioFile{
			ID: string(rune('1' + i)), Path: p, Filename: filepath.Base(p),
		})
	}
	return group
}

func TestApplyGroup_UnwrittenFileIsNotMoved(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "raw.m4b")
	writeTestFile(t, src)
	s := testService(&config.Config{LibraryPath: dir, Rename: config.Rename{Template: "$title"}})

	group := testRenameGroup(src)
	results := s.ApplyGroup(context.Background(), group)

	if len(results) != 1 || results[0].Success {
		t.Fatalf("file with unwritten tags must not rename, got %+v", results)
	}
	if results[0].Error == "" {
		t.Error("expected a per-file error")
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("file must stay at its original path")
	}
}

func TestApplyGroup_MovesWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "raw.m4b")
	writeTestFile(t, src)
	s := testService(&config.Config{LibraryPath: dir, Rename: config.Rename{Template: "$title"}})

	group := testRenameGroup(src)
	group.Files[0].Written = true
	results := s.ApplyGroup(context.Background(), group)

	want := filepath.Join(dir, "Corrected Title.m4b")
	if len(results) != 1 || !results[0].Success || results[0].NewPath != want {
		t.Fatalf("expected move to %q, got %+v", want, results)
	}
	if _, err := os.Stat(want); err != nil {
		t.Error("target missing after move")
	}
	if group.Files[0].Path != want {
		t.Errorf("group file path not updated, got %q", group.Files[0].Path)
	}
}

func TestApplyGroup_WriteGateIsPerFile(t *testing.T) {
	dir := t.TempDir()
	written := filepath.Join(dir, "written.m4b")
	unwritten := filepath.Join(dir, "unwritten.mp3")
	writeTestFile(t, written)
	writeTestFile(t, unwritten)
	s := testService(&config.Config{LibraryPath: dir, Rename: config.Rename{Template: "$title"}})

	group := testRenameGroup(written, unwritten)
	group.Files[0].Written = true
	results := s.ApplyGroup(context.Background(), group)

	if !results[0].Success {
		t.Errorf("written file should move, got %+v", results[0])
	}
	if results[1].Success {
		t.Errorf("unwritten file must not move, got %+v", results[1])
	}
	if _, err := os.Stat(unwritten); err != nil {
		t.Error("unwritten file must stay put")
	}
}

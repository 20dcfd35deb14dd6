package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

func testOrganizer(cfg *config.Config) *Organizer {
	manager := config.NewManager(cfg)
	return NewOrganizer(manager, NewTemplatePathParser(manager))
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

func TestTargetPath_InPlaceRename(t *testing.T) {
	o := testOrganizer(&config.Config{
		Rename: config.Rename{Template: "$title"},
	})
	md := &book.Metadata{Title: book.Str("The Martian")}

	got, err := o.TargetPath(context.Background(), "/lib/somewhere/old name.M4B", md)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "/lib/somewhere/The Martian.m4b" {
		t.Errorf("got %q", got)
	}
}

func TestTargetPath_ReorganizeNestsAuthorAndSeries(t *testing.T) {
	o := testOrganizer(&config.Config{
		LibraryPath: "/library",
		Rename:      config.Rename{Template: "$title", Reorganize: true},
	})
	md := &book.Metadata{
		Title:  book.Str("The Final Empire"),
		Author: book.Str("Brandon Sanderson"),
		Series: book.Str("Mistborn"),
	}

	got, err := o.TargetPath(context.Background(), "/incoming/file.m4b", md)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := filepath.Join("/library", "Brandon Sanderson", "Mistborn", "The Final Empire.m4b")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTargetPath_EmptyRenderIsError(t *testing.T) {
	o := testOrganizer(&config.Config{
		Rename: config.Rename{Template: "$title"},
	})

	if _, err := o.TargetPath(context.Background(), "/lib/f.m4b", &book.Metadata{}); err == nil {
		t.Error("empty filename must be an error")
	}
}

func TestMove_ExistingTargetIsHardError(t *testing.T) {
	dir := t.TempDir()
	o := testOrganizer(&config.Config{LibraryPath: dir})

	src := filepath.Join(dir, "a", "src.m4b")
	dst := filepath.Join(dir, "b", "dst.m4b")
	writeTestFile(t, src)
	writeTestFile(t, dst)

	if err := o.Move(context.Background(), src, dst); err == nil {
		t.Fatal("expected collision error")
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("source must survive a failed move")
	}
}

func TestMove_MovesAndCleansEmptyDirs(t *testing.T) {
	dir := t.TempDir()
	o := testOrganizer(&config.Config{LibraryPath: dir})

	src := filepath.Join(dir, "old", "nested", "src.m4b")
	dst := filepath.Join(dir, "new", "dst.m4b")
	writeTestFile(t, src)

	if err := o.Move(context.Background(), src, dst); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Error("target missing after move")
	}
	if _, err := os.Stat(filepath.Join(dir, "old")); !os.IsNotExist(err) {
		t.Error("empty source directories should be removed")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("library root must never be removed")
	}
}

func TestMove_SamePathIsNoOp(t *testing.T) {
	dir := t.TempDir()
	o := testOrganizer(&config.Config{LibraryPath: dir})

	src := filepath.Join(dir, "src.m4b")
	writeTestFile(t, src)

	if err := o.Move(context.Background(), src, src); err != nil {
		t.Fatalf("moving onto itself should be a no-op, got %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("file must still exist")
	}
}

func TestBackup_CopiesNextToOriginal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "book.m4b")
	writeTestFile(t, src)

	backup, err := Backup(src)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if backup != src+".backup" {
		t.Errorf("backup path = %q", backup)
	}
	data, err := os.ReadFile(backup)
	if err != nil || string(data) != "audio" {
		t.Errorf("backup content wrong: %q err=%v", data, err)
	}
}

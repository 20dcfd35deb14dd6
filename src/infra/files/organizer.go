package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

// Organizer derives target paths for audiobook files and moves them there.
type Organizer struct {
	config     *config.Manager
	pathParser *TemplatePathParser
}

// NewOrganizer creates a new Organizer.
func NewOrganizer(cfg *config.Manager, pathParser *TemplatePathParser) *Organizer {
	return &Organizer{config: cfg, pathParser: pathParser}
}

// TargetPath computes where a file should live, without touching the disk.
// With reorganize on, the file nests under <library>/<author>/<series>/;
// otherwise only the filename changes within its current directory.
func (o *Organizer) TargetPath(ctx context.Context, currentPath string, md *book.Metadata) (string, error) {
	filename, err := o.pathParser.RenderFilename(md)
	if err != nil {
		return "", fmt.Errorf("failed to render filename: %w", err)
	}
	if filename == "" {
		return "", fmt.Errorf("rename template produced an empty filename")
	}
	filename += strings.ToLower(filepath.Ext(currentPath))

	cfg := o.config.Get()
	if !cfg.Rename.Reorganize {
		return filepath.Join(filepath.Dir(currentPath), filename), nil
	}

	dir := cfg.LibraryPath
	if book.Has(md.Author) {
		dir = filepath.Join(dir, SanitizeComponent(*md.Author))
	}
	if book.Has(md.Series) {
		dir = filepath.Join(dir, SanitizeComponent(*md.Series))
	}
	return filepath.Join(dir, filename), nil
}

// Move relocates a file to newPath. A different file already sitting at
// the target is a hard error; moving a file onto itself is a no-op.
func (o *Organizer) Move(ctx context.Context, oldPath, newPath string) error {
	if sameFile(oldPath, newPath) {
		return nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("target already exists: %s", newPath)
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		// Rename fails across filesystems; fall back to copy + remove.
		if err := copyFile(oldPath, newPath); err != nil {
			return fmt.Errorf("failed to copy file: %w", err)
		}
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("failed to remove original file after copy: %w", err)
		}
	}

	if err := o.removeEmptyDirectories(filepath.Dir(oldPath)); err != nil {
		slog.Warn("Failed to clean up empty directories after move", "dir", filepath.Dir(oldPath), "error", err)
	}
	return nil
}

func sameFile(a, b string) bool {
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return os.SameFile(ai, bi)
}

// removeEmptyDirectories removes empty directories walking up from dir,
// stopping at the library root and at any scan root.
func (o *Organizer) removeEmptyDirectories(dir string) error {
	cfg := o.config.Get()
	stop := map[string]bool{filepath.Clean(cfg.LibraryPath): true}
	for _, root := range cfg.ScanPaths {
		stop[filepath.Clean(root)] = true
	}

	for {
		if stop[filepath.Clean(dir)] {
			return nil
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read directory %s: %w", dir, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove empty directory %s: %w", dir, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// Backup copies a file next to itself as <name>.<ext>.backup before its
// tags are rewritten.
func Backup(path string) (string, error) {
	backupPath := path + ".backup"
	if err := copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}

func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()
	_, err = io.Copy(destination, source)
	return err
}

package tag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"tomekeeper/src/book"
)

// Inspection is the raw view of a file's embedded tags, for debugging what
// a player or server will actually see.
type Inspection struct {
	Path     string         `json:"path"`
	Format   string         `json:"format"`
	Size     int64          `json:"size"`
	FileType string         `json:"file_type"`
	Raw      map[string]any `json:"raw"`
	Parsed   *book.FileTags `json:"parsed"`
}

// Inspect reads a file's tags twice: once raw via the container parser and
// once through the normal reader, so the two views can be compared.
func (r *Reader) Inspect(ctx context.Context, filePath string) (*Inspection, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	raw := make(map[string]any)
	for key, value := range tags.Raw() {
		switch v := value.(type) {
		case string:
			raw[key] = v
		case []byte:
			raw[key] = fmt.Sprintf("<%d bytes>", len(v))
		case *tag.Picture:
			if v != nil {
				raw[key] = fmt.Sprintf("<picture %s, %d bytes>", v.MIMEType, len(v.Data))
			}
		default:
			raw[key] = fmt.Sprintf("%v", value)
		}
	}

	parsed, err := r.ReadFileTags(ctx, filePath)
	if err != nil {
		return nil, err
	}

	return &Inspection{
		Path:     filePath,
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), "."),
		Size:     info.Size(),
		FileType: string(tags.FileType()),
		Raw:      raw,
		Parsed:   parsed,
	}, nil
}

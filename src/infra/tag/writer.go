package tag

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nfnt/resize"
	"tomekeeper/src/book"
	"tomekeeper/src/features/config"

	_ "golang.org/x/image/webp"
	_ "image/gif"
)

// Writer applies change maps to audio files, dispatching on the container
// format. It never writes a slot that is not in the map.
type Writer struct {
	config *config.Manager
	client *http.Client
}

// NewWriter creates a new Writer.
func NewWriter(cfg *config.Manager) *Writer {
	return &Writer{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// WriteTags applies the change map to the file at filePath.
func (w *Writer) WriteTags(ctx context.Context, filePath string, changes book.ChangeMap) error {
	if len(changes) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return w.writeMP3(ctx, filePath, changes)
	case ".flac":
		return w.writeFLAC(ctx, filePath, changes)
	case ".m4b", ".m4a", ".mp4":
		return w.writeMP4(ctx, filePath, changes)
	case ".ogg":
		return fmt.Errorf("ogg tag writing is not supported")
	default:
		return fmt.Errorf("unsupported format: %s", ext)
	}
}

// loadCover resolves a cover source (local path or http URL) into image
// bytes, downscaled per the write config.
func (w *Writer) loadCover(ctx context.Context, source string) ([]byte, string, error) {
	var imgData []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if reqErr != nil {
			return nil, "", reqErr
		}
		resp, respErr := w.client.Do(req)
		if respErr != nil {
			return nil, "", respErr
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("cover fetch returned %d", resp.StatusCode)
		}
		imgData, err = io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	} else {
		imgData, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load cover: %w", err)
	}

	cfg := w.config.Get()
	imgData, err = w.resizeImage(imgData, cfg.Write.CoverSize, cfg.Write.CoverQuality)
	if err != nil {
		return nil, "", err
	}

	mimeType := "image/jpeg"
	if len(imgData) >= 4 && string(imgData[:4]) == "\x89PNG" {
		mimeType = "image/png"
	}
	return imgData, mimeType, nil
}

// resizeImage resizes image data to fit within maxSize pixels, maintaining
// aspect ratio. WebP and GIF sources are re-encoded to JPEG.
func (w *Writer) resizeImage(imgData []byte, maxSize, quality int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	needsResize := maxSize > 0 && (width > maxSize || height > maxSize)
	needsReencode := format != "jpeg" && format != "png"
	if !needsResize && !needsReencode {
		return imgData, nil
	}

	if needsResize {
		if width > height {
			height = (height * maxSize) / width
			width = maxSize
		} else {
			width = (width * maxSize) / height
			height = maxSize
		}
		img = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	}

	if quality <= 0 {
		quality = 85
	}
	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

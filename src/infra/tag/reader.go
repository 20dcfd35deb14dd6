package tag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"tomekeeper/src/book"
)

// Reader extracts embedded tags from audio files. It is the only component
// that touches tag libraries on the read side; everything downstream works
// with book.FileTags.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

var narratorComment = regexp.MustCompile(`(?i)^\s*(?:narrated by|read by)\s+(.+?)\s*$`)

// ReadFileTags reads the embedded tags of one audio file into a fixed
// optional-field record.
func (r *Reader) ReadFileTags(ctx context.Context, filePath string) (*book.FileTags, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	ft := &book.FileTags{
		Title:       book.Str(tags.Title()),
		Artist:      book.Str(tags.Artist()),
		Album:       book.Str(tags.Album()),
		AlbumArtist: book.Str(tags.AlbumArtist()),
		Composer:    book.Str(tags.Composer()),
		Comment:     book.Str(tags.Comment()),
		Genres:      splitGenres(tags.Genre()),
	}
	if y := tags.Year(); y > 0 {
		ft.Year = book.Str(strconv.Itoa(y))
	}
	if n, _ := tags.Track(); n > 0 {
		ft.Track = &n
	}

	r.readRawFields(tags, ft)

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".flac":
		readFLACFields(filePath, ft)
	case ".m4b", ".m4a", ".mp4":
		readMP4Fields(filePath, ft)
	}

	// Narrator convention recovery: some rippers only leave a
	// "Narrated by X" / "Read by X" comment behind.
	if !book.Has(ft.Narrator) && book.Has(ft.Comment) {
		if m := narratorComment.FindStringSubmatch(*ft.Comment); m != nil {
			ft.Narrator = book.Str(m[1])
		}
	}
	// Composer is the classic narrator slot for audiobooks.
	if !book.Has(ft.Narrator) && book.Has(ft.Composer) {
		ft.Narrator = ft.Composer
	}

	return ft, nil
}

// readRawFields picks up the fields dhowden/tag has no accessor for. Raw
// keys differ per container, so every plausible spelling is tried.
func (r *Reader) readRawFields(tags tag.Metadata, ft *book.FileTags) {
	raw := tags.Raw()
	if raw == nil {
		return
	}

	if !book.Has(ft.Narrator) {
		ft.Narrator = rawString(raw, "NARRATOR", "narrator", "\xa9nrt", "©nrt")
	}
	if !book.Has(ft.Series) {
		ft.Series = rawString(raw, "SERIES", "series", "MVNM", "mvnm")
	}
	if !book.Has(ft.Sequence) {
		ft.Sequence = rawString(raw, "SERIES-PART", "series-part", "PART", "part", "MVIN", "mvin")
	}
	if !book.Has(ft.Description) {
		ft.Description = rawString(raw, "DESCRIPTION", "description", "desc", "TIT3")
	}
	if !book.Has(ft.Publisher) {
		ft.Publisher = rawString(raw, "PUBLISHER", "publisher", "TPUB", "LABEL", "label")
	}
	if !book.Has(ft.ISBN) {
		ft.ISBN = rawString(raw, "ISBN", "isbn")
	}
}

func rawString(raw map[string]interface{}, keys ...string) *string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if p := book.Str(v); p != nil {
				return p
			}
		case []byte:
			if p := book.Str(string(v)); p != nil {
				return p
			}
		case *tag.Comm:
			if v != nil {
				if p := book.Str(v.Text); p != nil {
					return p
				}
			}
		}
	}
	return nil
}

// splitGenres turns a delimited genre string into discrete entries. ID3v2.4
// uses NUL separators for multi-value frames; older tags use punctuation.
func splitGenres(genre string) []string {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return nil
	}
	parts := strings.FieldsFunc(genre, func(r rune) bool {
		return r == 0 || r == ';' || r == '/'
	})
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		out = append(out, p)
	}
	return out
}

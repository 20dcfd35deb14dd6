package book

import (
	"strings"
)

// GroupKind classifies how the files of a group relate to each other.
type GroupKind string

const (
	// KindSingle is one standalone audiobook file.
	KindSingle GroupKind = "single"
	// KindMultiFile is one book split across several part/chapter files.
	KindMultiFile GroupKind = "multi-file"
	// KindSeries is a series entry whose files share a sequence number.
	KindSeries GroupKind = "series"
)

// Metadata is the canonical record describing one audiobook. A nil field
// means "unknown"; an empty string is never used as a placeholder.
type Metadata struct {
	Title       *string  `json:"title,omitempty"`
	Subtitle    *string  `json:"subtitle,omitempty"`
	Author      *string  `json:"author,omitempty"`
	Narrator    *string  `json:"narrator,omitempty"`
	Series      *string  `json:"series,omitempty"`
	Sequence    *string  `json:"sequence,omitempty"`
	Year        *string  `json:"year,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Description *string  `json:"description,omitempty"`
	Publisher   *string  `json:"publisher,omitempty"`
	ISBN        *string  `json:"isbn,omitempty"`
	CoverURL    *string  `json:"cover_url,omitempty"`
}

// Str returns a pointer to s, or nil when s is blank. It is the only way
// metadata fields should be populated from free text.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Val dereferences an optional field, returning "" for unknown.
func Val(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Has reports whether an optional field carries a value.
func Has(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// FillFrom copies every field that is unknown in m from other. Known fields
// are never overwritten.
func (m *Metadata) FillFrom(other *Metadata) {
	if other == nil {
		return
	}
	if m.Title == nil {
		m.Title = other.Title
	}
	if m.Subtitle == nil {
		m.Subtitle = other.Subtitle
	}
	if m.Author == nil {
		m.Author = other.Author
	}
	if m.Narrator == nil {
		m.Narrator = other.Narrator
	}
	if m.Series == nil {
		m.Series = other.Series
	}
	if m.Sequence == nil {
		m.Sequence = other.Sequence
	}
	if m.Year == nil {
		m.Year = other.Year
	}
	if len(m.Genres) == 0 {
		m.Genres = append([]string(nil), other.Genres...)
	}
	if m.Description == nil {
		m.Description = other.Description
	}
	if m.Publisher == nil {
		m.Publisher = other.Publisher
	}
	if m.ISBN == nil {
		m.ISBN = other.ISBN
	}
	if m.CoverURL == nil {
		m.CoverURL = other.CoverURL
	}
}

// SeriesAlbum renders the composite "Series #Sequence" slot value, or ""
// when the book has no series.
func (m *Metadata) SeriesAlbum() string {
	if !Has(m.Series) {
		return ""
	}
	if Has(m.Sequence) {
		return *m.Series + " #" + strings.TrimSpace(*m.Sequence)
	}
	return *m.Series
}

// FileTags is a fixed record of the metadata embedded in one audio file.
// Every field is explicitly optional so "absent" and "empty" never blur.
type FileTags struct {
	Title       *string  `json:"title,omitempty"`
	Artist      *string  `json:"artist,omitempty"`
	Album       *string  `json:"album,omitempty"`
	AlbumArtist *string  `json:"album_artist,omitempty"`
	Narrator    *string  `json:"narrator,omitempty"`
	Composer    *string  `json:"composer,omitempty"`
	Comment     *string  `json:"comment,omitempty"`
	Description *string  `json:"description,omitempty"`
	Publisher   *string  `json:"publisher,omitempty"`
	ISBN        *string  `json:"isbn,omitempty"`
	Series      *string  `json:"series,omitempty"`
	Sequence    *string  `json:"sequence,omitempty"`
	Year        *string  `json:"year,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Track       *int     `json:"track,omitempty"`
}

// AudioFile is one discovered file on disk. Identity is the absolute path;
// the ID is a handle for boundary callers. Written records whether the
// latest tag write batch succeeded for this file; renaming requires it.
type AudioFile struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Filename string    `json:"filename"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Tags     FileTags  `json:"tags"`
	Changes  ChangeMap `json:"changes,omitempty"`
	Written  bool      `json:"written,omitempty"`
}

// Group is a set of audio files judged to represent one logical audiobook
// or series entry. Files keep their on-disk order across re-scans.
type Group struct {
	ID           string       `json:"id"`
	Key          string       `json:"key"`
	Name         string       `json:"name"`
	Kind         GroupKind    `json:"kind"`
	Files        []*AudioFile `json:"files"`
	Metadata     *Metadata    `json:"metadata,omitempty"`
	TotalChanges int          `json:"total_changes"`
	Processed    bool         `json:"processed,omitempty"`
}

// GroupKey derives the grouping identity for an author/title pair. Keys are
// case- and whitespace-insensitive so re-scans land on the same group.
func GroupKey(author, title string) string {
	return normalizeKeyPart(author) + "|" + normalizeKeyPart(title)
}

// SeriesGroupKey derives the grouping identity for one entry of a series.
func SeriesGroupKey(author, series, sequence string) string {
	return normalizeKeyPart(author) + "|" + normalizeKeyPart(series) + "#" + strings.TrimSpace(sequence)
}

func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

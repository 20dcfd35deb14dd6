package scanning

import (
	"path/filepath"
	"regexp"
	"strings"

	"tomekeeper/src/book"
)

// Hints are the structural facts a filename or folder name gives away when
// the embedded tags are missing or junk.
type Hints struct {
	Author   *string
	Title    *string
	Series   *string
	Sequence *string
	Narrator *string
}

var (
	// "(Stormlight Archive 2) Words of Radiance.m4b"
	reSeriesPrefix = regexp.MustCompile(`^\(([^)]+?)\s+(\d+(?:\.\d+)?)\)\s*`)
	// "Project Hail Mary read by Ray Porter.m4b"
	reNarratorSuffix = regexp.MustCompile(`(?i)[\s\-(\[]*(?:read|narrated)\s+by\s+([^)\]]+?)[)\]]?\s*$`)
	// "01 - Chapter One.mp3", "003_part.mp3"
	reLeadingTrackNum = regexp.MustCompile(`^\d{1,3}[\s._\-]+`)
	// "Mistborn (Book 2)" folder convention
	reBookFolder = regexp.MustCompile(`(?i)^(.*?)\s*\(book\s*#?(\d+(?:\.\d+)?)\)$`)
	// chapter/part/track markers that flag one file of a multi-file book
	rePartMarker = regexp.MustCompile(`(?i)(?:^|[\s._\-])(?:chapter|part|track|cd|disc)[\s._\-]*\d+`)
)

// ParseFilename extracts hints from one audio filename.
func ParseFilename(filename string) Hints {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	var h Hints

	if m := reSeriesPrefix.FindStringSubmatch(name); m != nil {
		h.Series = book.Str(m[1])
		h.Sequence = book.Str(m[2])
		name = name[len(m[0]):]
	}

	if m := reNarratorSuffix.FindStringSubmatch(name); m != nil {
		h.Narrator = book.Str(m[1])
		name = name[:len(name)-len(m[0])]
	}

	name = reLeadingTrackNum.ReplaceAllString(name, "")

	// "Author - Title" only when the dash splits exactly two parts; more
	// dashes are too ambiguous to guess at.
	if parts := strings.Split(name, " - "); len(parts) == 2 {
		h.Author = book.Str(parts[0])
		h.Title = book.Str(parts[1])
	} else {
		h.Title = book.Str(name)
	}

	return h
}

// ParseFolder extracts series hints from a folder name, understanding the
// "Series Name (Book N)" convention.
func ParseFolder(folderName string) Hints {
	var h Hints
	if m := reBookFolder.FindStringSubmatch(folderName); m != nil {
		h.Series = book.Str(m[1])
		h.Sequence = book.Str(m[2])
		h.Title = book.Str(m[1])
	} else {
		h.Title = book.Str(folderName)
	}
	return h
}

// HasPartMarker reports whether a filename looks like one slice of a
// multi-file book.
func HasPartMarker(filename string) bool {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return rePartMarker.MatchString(name) || reLeadingTrackNum.MatchString(name)
}

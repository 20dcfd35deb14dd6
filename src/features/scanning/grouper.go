package scanning

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"tomekeeper/src/book"
)

// scannedFile pairs a discovered file with where it was found.
type scannedFile struct {
	file *book.AudioFile
	dir  string
}

// identity is the grouping decision for one file.
type identity struct {
	key      string
	name     string
	kind     book.GroupKind
	author   string
	title    string
	series   string
	sequence string
}

// BuildGroups partitions files into logical audiobook groups. Every file
// lands in exactly one group; files within a group keep filename order and
// groups come back sorted by name.
func BuildGroups(files []*book.AudioFile, dirs map[string]string) []*book.Group {
	scanned := make([]scannedFile, 0, len(files))
	for _, f := range files {
		scanned = append(scanned, scannedFile{file: f, dir: dirs[f.ID]})
	}

	byKey := make(map[string]*book.Group)
	var order []string

	for _, sf := range scanned {
		id := deriveIdentity(sf)
		group, ok := byKey[id.key]
		if !ok {
			group = &book.Group{
				ID:   uuid.New().String(),
				Key:  id.key,
				Name: id.name,
				Kind: id.kind,
			}
			byKey[id.key] = group
			order = append(order, id.key)
		}
		group.Files = append(group.Files, sf.file)
	}

	groups := make([]*book.Group, 0, len(order))
	for _, key := range order {
		group := byKey[key]
		sort.Slice(group.Files, func(i, j int) bool {
			return group.Files[i].Filename < group.Files[j].Filename
		})
		// A series identity only affects the key and name; a lone file is
		// still one standalone book.
		if len(group.Files) == 1 {
			group.Kind = book.KindSingle
		} else if group.Kind != book.KindSeries {
			group.Kind = book.KindMultiFile
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

// deriveIdentity decides which group a file belongs to, preferring embedded
// tags and falling back to filename and folder structure.
func deriveIdentity(sf scannedFile) identity {
	tags := sf.file.Tags
	fileHints := ParseFilename(sf.file.Filename)
	folderHints := ParseFolder(filepath.Base(sf.dir))

	author := firstOf(tags.AlbumArtist, tags.Artist, fileHints.Author)
	series := firstOf(tags.Series, fileHints.Series, folderHints.Series)
	sequence := firstOf(tags.Sequence, fileHints.Sequence, folderHints.Sequence)

	// A part of a multi-file book is grouped by its book, not its chapter
	// title, so the folder name outranks a per-file title there.
	var title string
	if HasPartMarker(sf.file.Filename) || !book.Has(tags.Title) {
		title = firstOf(tags.Album, folderHints.Title, fileHints.Title)
	} else {
		title = firstOf(tags.Title, tags.Album, folderHints.Title, fileHints.Title)
	}

	if series != "" && sequence != "" {
		name := fmt.Sprintf("%s #%s", series, sequence)
		if title != "" && title != series {
			name = fmt.Sprintf("%s - %s", name, title)
		}
		return identity{
			key:      book.SeriesGroupKey(author, series, sequence),
			name:     name,
			kind:     book.KindSeries,
			author:   author,
			title:    title,
			series:   series,
			sequence: sequence,
		}
	}

	name := title
	if name == "" {
		name = sf.file.Filename
	}
	return identity{
		key:    book.GroupKey(author, title),
		name:   name,
		kind:   book.KindSingle,
		author: author,
		title:  title,
	}
}

func firstOf(candidates ...*string) string {
	for _, c := range candidates {
		if book.Has(c) {
			return *c
		}
	}
	return ""
}

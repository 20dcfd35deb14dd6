package changeset

import (
	"sort"
	"strings"

	"tomekeeper/src/book"
)

// Options tune how changes are derived. EmbedCovers gates the cover slot;
// everything else is unconditional.
type Options struct {
	EmbedCovers bool
}

// Compute derives the minimal slot mutations that bring one file's tags in
// line with canonical metadata. It is pure: same tags and metadata, same
// result. Unknown metadata fields never produce a change, and values that
// already match (after trimming) are left alone.
func Compute(tags book.FileTags, md *book.Metadata, opts Options) book.ChangeMap {
	changes := book.ChangeMap{}
	if md == nil {
		return changes
	}

	addText := func(slot string, current *string, target *string) {
		if !book.Has(target) {
			return
		}
		old := strings.TrimSpace(book.Val(current))
		next := strings.TrimSpace(*target)
		if old == next {
			return
		}
		changes[slot] = book.FieldChange{Old: old, New: next}
	}

	addText(book.SlotTitle, tags.Title, md.Title)
	addText(book.SlotArtist, tags.Artist, md.Author)
	addText(book.SlotNarrator, tags.Narrator, md.Narrator)
	addText(book.SlotSeries, tags.Series, md.Series)
	addText(book.SlotSequence, tags.Sequence, md.Sequence)
	addText(book.SlotYear, tags.Year, md.Year)
	addText(book.SlotDescription, tags.Description, md.Description)
	addText(book.SlotPublisher, tags.Publisher, md.Publisher)
	addText(book.SlotISBN, tags.ISBN, md.ISBN)

	// Album carries the "Series #Sequence" composite when the book belongs
	// to a series; standalone books get their title as album.
	if album := md.SeriesAlbum(); album != "" {
		addText(book.SlotAlbum, tags.Album, &album)
	} else if book.Has(md.Title) {
		addText(book.SlotAlbum, tags.Album, md.Title)
	}

	if len(md.Genres) > 0 && !sameGenres(tags.Genres, md.Genres) {
		changes[book.SlotGenres] = book.FieldChange{
			Old:       strings.Join(tags.Genres, "; "),
			New:       strings.Join(md.Genres, "; "),
			NewValues: append([]string(nil), md.Genres...),
		}
	}

	if opts.EmbedCovers && book.Has(md.CoverURL) {
		changes[book.SlotCover] = book.FieldChange{New: *md.CoverURL}
	}

	return changes
}

// ComputeGroup fills in Changes for every file of a group and updates the
// group's change total. Processed groups are left untouched.
func ComputeGroup(group *book.Group, opts Options) int {
	if group.Processed {
		return 0
	}
	total := 0
	for _, f := range group.Files {
		f.Changes = Compute(f.Tags, group.Metadata, opts)
		total += len(f.Changes)
	}
	group.TotalChanges = total
	return total
}

// sameGenres compares genre lists ignoring order and surrounding space.
func sameGenres(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	na := normalizedSorted(a)
	nb := normalizedSorted(b)
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

func normalizedSorted(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	sort.Strings(out)
	return out
}

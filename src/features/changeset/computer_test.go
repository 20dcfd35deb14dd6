package changeset

import (
	"reflect"
	"testing"

	"tomekeeper/src/book"
)

func TestCompute_EmptyWhenTagsMatch(t *testing.T) {
	tags := book.FileTags{
		Title:    book.Str("The Hobbit"),
		Artist:   book.Str("J.R.R. Tolkien"),
		Album:    book.Str("The Hobbit"),
		Narrator: book.Str("Andy Serkis"),
	}
	md := &book.Metadata{
		Title:    book.Str("The Hobbit"),
		Author:   book.Str("J.R.R. Tolkien"),
		Narrator: book.Str("Andy Serkis"),
	}

	changes := Compute(tags, md, Options{})
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %v", changes)
	}
}

func TestCompute_UnknownMetadataNeverChanges(t *testing.T) {
	tags := book.FileTags{
		Title:       book.Str("Old Title"),
		Description: book.Str("Old description"),
	}

	changes := Compute(tags, &book.Metadata{}, Options{})
	if len(changes) != 0 {
		t.Errorf("unknown fields must not produce changes, got %v", changes)
	}
}

func TestCompute_NarratorGetsOwnSlot(t *testing.T) {
	tags := book.FileTags{Title: book.Str("Book")}
	md := &book.Metadata{Narrator: book.Str("Jane Reader")}

	changes := Compute(tags, md, Options{})
	change, ok := changes[book.SlotNarrator]
	if !ok {
		t.Fatal("expected a narrator change")
	}
	if change.New != "Jane Reader" || change.Old != "" {
		t.Errorf("unexpected change: %+v", change)
	}
}

func TestCompute_SeriesCompositeAlbum(t *testing.T) {
	tags := book.FileTags{Album: book.Str("Mistborn")}
	md := &book.Metadata{
		Title:    book.Str("The Final Empire"),
		Series:   book.Str("Mistborn"),
		Sequence: book.Str("1"),
	}

	changes := Compute(tags, md, Options{})
	if got := changes[book.SlotAlbum].New; got != "Mistborn #1" {
		t.Errorf("expected composite album, got %q", got)
	}
	if _, ok := changes[book.SlotSeries]; !ok {
		t.Error("expected a series change")
	}
	if _, ok := changes[book.SlotSequence]; !ok {
		t.Error("expected a sequence change")
	}
}

func TestCompute_StandaloneAlbumIsTitle(t *testing.T) {
	tags := book.FileTags{}
	md := &book.Metadata{Title: book.Str("The Martian")}

	changes := Compute(tags, md, Options{})
	if got := changes[book.SlotAlbum].New; got != "The Martian" {
		t.Errorf("expected title as album, got %q", got)
	}
}

func TestCompute_GenresCarryDiscreteValues(t *testing.T) {
	tags := book.FileTags{Genres: []string{"Audiobook"}}
	md := &book.Metadata{Genres: []string{"Fantasy", "Adventure"}}

	changes := Compute(tags, md, Options{})
	change, ok := changes[book.SlotGenres]
	if !ok {
		t.Fatal("expected a genres change")
	}
	if !reflect.DeepEqual(change.NewValues, []string{"Fantasy", "Adventure"}) {
		t.Errorf("expected discrete values, got %v", change.NewValues)
	}
}

func TestCompute_GenreOrderDoesNotMatter(t *testing.T) {
	tags := book.FileTags{Genres: []string{"Adventure", "Fantasy"}}
	md := &book.Metadata{Genres: []string{"Fantasy", "Adventure"}}

	changes := Compute(tags, md, Options{})
	if _, ok := changes[book.SlotGenres]; ok {
		t.Error("same genre set in different order should not change")
	}
}

func TestCompute_CoverOnlyWhenEmbedding(t *testing.T) {
	tags := book.FileTags{}
	md := &book.Metadata{CoverURL: book.Str("https://example.com/cover.jpg")}

	if changes := Compute(tags, md, Options{}); len(changes) != 0 {
		t.Errorf("cover must not change without embedding enabled, got %v", changes)
	}

	changes := Compute(tags, md, Options{EmbedCovers: true})
	if changes[book.SlotCover].New != "https://example.com/cover.jpg" {
		t.Errorf("expected cover change, got %v", changes)
	}
}

func TestCompute_TrimmedEqualValuesSkip(t *testing.T) {
	tags := book.FileTags{Title: book.Str(" The Hobbit ")}
	md := &book.Metadata{Title: book.Str("The Hobbit")}

	changes := Compute(tags, md, Options{})
	if _, ok := changes[book.SlotTitle]; ok {
		t.Error("whitespace-only difference should not change")
	}
}

func TestCompute_IsPure(t *testing.T) {
	tags := book.FileTags{Title: book.Str("Old")}
	md := &book.Metadata{Title: book.Str("New"), Genres: []string{"Fantasy"}}

	first := Compute(tags, md, Options{})
	second := Compute(tags, md, Options{})
	if !reflect.DeepEqual(first, second) {
		t.Error("compute must be deterministic")
	}
}

func TestComputeGroup_SkipsProcessedGroups(t *testing.T) {
	group := &book.Group{
		Processed: true,
		Metadata:  &book.Metadata{Title: book.Str("New Title")},
		Files: []*book.AudioFile{
			{Tags: book.FileTags{Title: book.Str("Old Title")}},
		},
	}

	if total := ComputeGroup(group, Options{}); total != 0 {
		t.Errorf("processed group should produce no changes, got %d", total)
	}
	if len(group.Files[0].Changes) != 0 {
		t.Errorf("processed group file got changes: %v", group.Files[0].Changes)
	}
}

func TestComputeGroup_TotalsAcrossFiles(t *testing.T) {
	group := &book.Group{
		Metadata: &book.Metadata{Narrator: book.Str("Jane Reader")},
		Files: []*book.AudioFile{
			{Tags: book.FileTags{}},
			{Tags: book.FileTags{Narrator: book.Str("Jane Reader")}},
		},
	}

	total := ComputeGroup(group, Options{})
	if total != 1 {
		t.Errorf("expected 1 total change, got %d", total)
	}
	if group.TotalChanges != 1 {
		t.Errorf("group total not updated, got %d", group.TotalChanges)
	}
}

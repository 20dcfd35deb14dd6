package scanning

import (
	"testing"

	"tomekeeper/src/book"
)

func TestParseFilename_SeriesPrefix(t *testing.T) {
	h := ParseFilename("(Stormlight Archive 2) Words of Radiance.m4b")
	if book.Val(h.Series) != "Stormlight Archive" {
		t.Errorf("series = %q", book.Val(h.Series))
	}
	if book.Val(h.Sequence) != "2" {
		t.Errorf("sequence = %q", book.Val(h.Sequence))
	}
	if book.Val(h.Title) != "Words of Radiance" {
		t.Errorf("title = %q", book.Val(h.Title))
	}
}

func TestParseFilename_DecimalSequence(t *testing.T) {
	h := ParseFilename("(Cradle 3.5) Skysworn.m4b")
	if book.Val(h.Sequence) != "3.5" {
		t.Errorf("sequence = %q", book.Val(h.Sequence))
	}
}

func TestParseFilename_NarratorSuffix(t *testing.T) {
	h := ParseFilename("Project Hail Mary read by Ray Porter.m4b")
	if book.Val(h.Narrator) != "Ray Porter" {
		t.Errorf("narrator = %q", book.Val(h.Narrator))
	}
	if book.Val(h.Title) != "Project Hail Mary" {
		t.Errorf("title = %q", book.Val(h.Title))
	}
}

func TestParseFilename_AuthorDashTitle(t *testing.T) {
	h := ParseFilename("Andy Weir - The Martian.mp3")
	if book.Val(h.Author) != "Andy Weir" {
		t.Errorf("author = %q", book.Val(h.Author))
	}
	if book.Val(h.Title) != "The Martian" {
		t.Errorf("title = %q", book.Val(h.Title))
	}
}

func TestParseFilename_TooManyDashesIsJustTitle(t *testing.T) {
	h := ParseFilename("A - B - C.mp3")
	if h.Author != nil {
		t.Errorf("ambiguous dashes must not guess an author, got %q", book.Val(h.Author))
	}
}

func TestParseFilename_StripsLeadingTrackNumber(t *testing.T) {
	h := ParseFilename("01 - Chapter One.mp3")
	if book.Val(h.Title) != "Chapter One" {
		t.Errorf("title = %q", book.Val(h.Title))
	}
}

func TestParseFolder_BookConvention(t *testing.T) {
	h := ParseFolder("Mistborn (Book 2)")
	if book.Val(h.Series) != "Mistborn" {
		t.Errorf("series = %q", book.Val(h.Series))
	}
	if book.Val(h.Sequence) != "2" {
		t.Errorf("sequence = %q", book.Val(h.Sequence))
	}
}

func TestParseFolder_PlainNameIsTitle(t *testing.T) {
	h := ParseFolder("The Hobbit")
	if book.Val(h.Title) != "The Hobbit" || h.Series != nil {
		t.Errorf("unexpected hints: %+v", h)
	}
}

func TestHasPartMarker(t *testing.T) {
	cases := map[string]bool{
		"Chapter 01.mp3":        true,
		"Part 2.mp3":            true,
		"book - disc 3.mp3":     true,
		"05 - something.mp3":    true,
		"The Final Empire.m4b":  false,
		"Partly Cloudy.m4b":     false,
		"Chapterhouse Dune.m4b": false,
	}
	for name, want := range cases {
		if got := HasPartMarker(name); got != want {
			t.Errorf("HasPartMarker(%q) = %v, want %v", name, got, want)
		}
	}
}

package abs

import (
	"reflect"
	"testing"

	"tomekeeper/src/book"
)

func TestSplitAuthors(t *testing.T) {
	cases := map[string][]string{
		"Brandon Sanderson":                {"Brandon Sanderson"},
		"Terry Pratchett & Neil Gaiman":    {"Terry Pratchett", "Neil Gaiman"},
		"A and B":                          {"A", "B"},
		"One; Two / Three | Four":          {"One", "Two", "Three", "Four"},
		"Trailing, ":                       {"Trailing"},
		"James S.A. Corey, Daniel Abraham": {"James S.A. Corey", "Daniel Abraham"},
	}
	for in, want := range cases {
		if got := SplitAuthors(in); !reflect.DeepEqual(got, want) {
			t.Errorf("SplitAuthors(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	a := NormalizePath(`/Audiobooks/The Hobbit/`)
	b := NormalizePath(`/audiobooks/the hobbit`)
	if a != b {
		t.Errorf("paths should normalize equal: %q vs %q", a, b)
	}
	if got := NormalizePath(`C:\books\one`); got != "c:/books/one" {
		t.Errorf("backslashes should normalize, got %q", got)
	}
}

func TestMatchItem_WalksUpToBookFolder(t *testing.T) {
	items := []Item{
		{ID: "item-1", Path: "/audiobooks/The Hobbit"},
		{ID: "item-2", Path: "/audiobooks/Dune"},
	}

	item, ok := MatchItem(items, "/audiobooks/The Hobbit/Chapter 01.mp3")
	if !ok || item.ID != "item-1" {
		t.Errorf("expected item-1, got %+v (ok=%v)", item, ok)
	}

	if _, ok := MatchItem(items, "/elsewhere/file.m4b"); ok {
		t.Error("unrelated path must not match")
	}
}

func TestMatchItemByMetadata_TitleAndAuthor(t *testing.T) {
	items := []Item{
		{ID: "item-1", Metadata: ItemMetadata{Title: "The Hobbit", AuthorName: "J.R.R. Tolkien"}},
		{ID: "item-2", Metadata: ItemMetadata{Title: "The Hobbit", AuthorName: "Someone Else"}},
	}

	md := &book.Metadata{Title: book.Str("the hobbit"), Author: book.Str("j.r.r. tolkien")}
	item, ok := MatchItemByMetadata(items, md)
	if !ok || item.ID != "item-1" {
		t.Errorf("expected author-narrowed match, got %+v (ok=%v)", item, ok)
	}

	if _, ok := MatchItemByMetadata(items, &book.Metadata{}); ok {
		t.Error("no title, no match")
	}
}

func TestBuildUpdatePayload_OmitsUnknownFields(t *testing.T) {
	md := &book.Metadata{
		Title:    book.Str("The Hobbit"),
		Author:   book.Str("J.R.R. Tolkien & Someone"),
		Series:   book.Str("Middle Earth"),
		Sequence: book.Str("1"),
		Genres:   []string{"Fantasy"},
	}

	payload := buildUpdatePayload(md)
	if payload["title"] != "The Hobbit" {
		t.Errorf("title = %v", payload["title"])
	}
	if _, ok := payload["description"]; ok {
		t.Error("unknown description must be omitted")
	}

	authors, ok := payload["authors"].([]map[string]string)
	if !ok || len(authors) != 2 {
		t.Fatalf("expected 2 author entries, got %v", payload["authors"])
	}

	series, ok := payload["series"].([]map[string]string)
	if !ok || len(series) != 1 || series[0]["sequence"] != "1" {
		t.Fatalf("expected series with sequence, got %v", payload["series"])
	}
}
